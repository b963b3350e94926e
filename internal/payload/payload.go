// internal/payload/payload.go
package payload

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
	"github.com/tamzrod/modbus-mqtt/internal/phases"
)

// Dataset is one published message: every module decoded from one poll.
type Dataset struct {
	Device    string          `json:"device" cbor:"device"`
	Timestamp int64           `json:"timestamp" cbor:"timestamp"`
	Results   []decode.Module `json:"results" cbor:"results"`
	Phases    []phases.Phase  `json:"phases,omitempty" cbor:"phases,omitempty"`
}

// New builds a dataset stamped with at in unix seconds.
func New(device string, at time.Time, results []decode.Module) Dataset {
	if results == nil {
		results = []decode.Module{}
	}
	return Dataset{Device: device, Timestamp: at.Unix(), Results: results}
}

// Format selects the wire encoding of a dataset.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" and "cbor", case-insensitive; empty means json.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("payload: unknown format %q", s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCBOR {
		return "application/cbor"
	}
	return "application/json"
}

// cborEnc keeps map keys in canonical order so identical datasets encode identically.
var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("payload: cbor encoder mode: %v", err))
	}
}

// Encode serializes the dataset. JSON is compact (no whitespace).
func Encode(ds Dataset, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, "":
		return json.Marshal(ds)
	case FormatCBOR:
		return cborEnc.Marshal(ds)
	}
	return nil, fmt.Errorf("payload: unknown format %q", f)
}
