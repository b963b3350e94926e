// internal/phases/phases.go
package phases

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
)

// Phase is the per-phase view of one module: element p of every grouped field.
type Phase struct {
	Module int                      `json:"module" cbor:"module"`
	Phase  int                      `json:"phase" cbor:"phase"`
	Values map[string]decode.Number `json:"values" cbor:"values"`
}

// ConversionError reports a field whose decoded shape does not fit the grouping.
type ConversionError struct {
	Field string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("phases: field %q value %s: %v", e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var (
	ErrMissingField = errors.New("field not in module")
	ErrNotList      = errors.New("expected a list")
	ErrListLength   = errors.New("list length does not match phase count")
)

// Group reshapes fields that hold one value per phase into count phases,
// numbered from 1. Every field must be a list of exactly count values.
func Group(m decode.Module, fields []string, count int) ([]Phase, error) {
	if count <= 0 {
		return nil, fmt.Errorf("phases: count must be > 0, got %d", count)
	}

	lists := make(map[string][]decode.Number, len(fields))
	for _, name := range fields {
		v, ok := m.Get(name)
		if !ok {
			return nil, &ConversionError{Field: name, Value: "<missing>", Err: ErrMissingField}
		}
		list, ok := v.List()
		if !ok {
			return nil, &ConversionError{Field: name, Value: v.String(), Err: ErrNotList}
		}
		if len(list) != count {
			return nil, &ConversionError{Field: name, Value: v.String(), Err: ErrListLength}
		}
		lists[name] = list
	}

	out := make([]Phase, count)
	for p := 0; p < count; p++ {
		vals := make(map[string]decode.Number, len(fields))
		for name, list := range lists {
			vals[name] = list[p]
		}
		out[p] = Phase{Module: m.Index, Phase: p + 1, Values: vals}
	}
	return out, nil
}

// GroupAll applies Group to every module, in order.
func GroupAll(mods []decode.Module, fields []string, count int) ([]Phase, error) {
	out := make([]Phase, 0, len(mods)*count)
	for _, m := range mods {
		ps, err := Group(m, fields, count)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", m.Index, err)
		}
		out = append(out, ps...)
	}
	return out, nil
}
