// internal/output/mqtt/mqtt.go
package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
	disconnectWait = 250 // ms
)

var (
	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt: timed out")
	// ErrNotConnected is returned while the client is (re)connecting.
	ErrNotConnected = errors.New("mqtt: not connected")
)

type Config struct {
	Server      string
	ClientID    string
	Username    string
	Password    string
	Topic       string
	StatusTopic string
	QoS         byte
	Retain      bool
	Format      payload.Format
	Device      string // used for the last will
}

// client is the part of mqtt.Client the output uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

type MQTTOutput struct {
	client client
	cfg    Config
	log    zerolog.Logger

	mu         sync.Mutex
	lastStatus *status.Snapshot
}

// NewMQTT connects to the broker. The connection is retried in the background
// when the broker is not reachable yet; publishes fail until it is.
func NewMQTT(cfg Config, log zerolog.Logger) (*MQTTOutput, error) {
	if cfg.Topic == "" {
		return nil, errors.New("mqtt: topic required")
	}
	will, err := status.Encode(status.Offline(cfg.Device))
	if err != nil {
		return nil, err
	}

	m := &MQTTOutput{cfg: cfg, log: log}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retryInterval)
	opts.SetConnectTimeout(connectTimeout)
	if cfg.StatusTopic != "" {
		opts.SetBinaryWill(cfg.StatusTopic, will, cfg.QoS, true)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) { m.onConnect() })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.log.Warn().Err(err).Msg("mqtt connection lost, reconnecting")
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		m.log.Debug().Msg("mqtt reconnecting")
	})

	c := mqtt.NewClient(opts)
	m.client = c
	token := c.Connect()
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("mqtt connect: %w", err)
		}
	} else {
		log.Warn().Str("server", cfg.Server).Msg("mqtt broker not reachable yet, retrying in background")
	}
	return m, nil
}

// newWithClient wires an existing client; tests use it with a fake.
func newWithClient(c client, cfg Config, log zerolog.Logger) *MQTTOutput {
	return &MQTTOutput{client: c, cfg: cfg, log: log}
}

func (m *MQTTOutput) Name() string { return "mqtt" }

// onConnect re-asserts the last status, replacing an offline will left by a
// previous connection.
func (m *MQTTOutput) onConnect() {
	m.log.Info().Str("server", m.cfg.Server).Str("client_id", m.cfg.ClientID).Msg("connected to mqtt broker")

	m.mu.Lock()
	last := m.lastStatus
	m.mu.Unlock()
	if last == nil {
		return
	}
	// the handler runs on paho's goroutine; don't block it on the ack
	go func(s status.Snapshot) {
		if err := m.PublishStatus(s); err != nil {
			m.log.Warn().Err(err).Msg("status re-publish after connect failed")
		}
	}(*last)
}

func (m *MQTTOutput) Publish(ds payload.Dataset) error {
	b, err := payload.Encode(ds, m.cfg.Format)
	if err != nil {
		return err
	}
	return m.publish(m.cfg.Topic, m.cfg.Retain, b)
}

// PublishStatus writes the snapshot retained on the status topic.
func (m *MQTTOutput) PublishStatus(s status.Snapshot) error {
	m.mu.Lock()
	m.lastStatus = &s
	m.mu.Unlock()

	if m.cfg.StatusTopic == "" {
		return nil
	}
	b, err := status.Encode(s)
	if err != nil {
		return err
	}
	return m.publish(m.cfg.StatusTopic, true, b)
}

// Close announces offline and disconnects.
func (m *MQTTOutput) Close() error {
	if m.client == nil {
		return nil
	}
	var err error
	if m.cfg.StatusTopic != "" && m.client.IsConnectionOpen() {
		if b, encErr := status.Encode(status.Offline(m.cfg.Device)); encErr == nil {
			token := m.client.Publish(m.cfg.StatusTopic, m.cfg.QoS, true, b)
			err = wait(m.cfg.StatusTopic, token)
		}
	}
	m.client.Disconnect(disconnectWait)
	return err
}

// publish hands the message to paho without waiting for the broker.
// It fails fast while the connection is down, so a broker outage never
// holds up the caller; acknowledgement is logged from a goroutine.
func (m *MQTTOutput) publish(topic string, retained bool, b []byte) error {
	if !m.client.IsConnectionOpen() {
		return fmt.Errorf("publish %s: %w", topic, ErrNotConnected)
	}
	token := m.client.Publish(topic, m.cfg.QoS, retained, b)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		return nil
	default:
	}

	go func() {
		if err := wait(topic, token); err != nil {
			m.log.Warn().Err(err).Msg("publish not acknowledged")
			return
		}
		m.log.Debug().Str("topic", topic).Msg("publish acknowledged")
	}()
	return nil
}

func wait(topic string, token mqtt.Token) error {
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
