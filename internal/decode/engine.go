// internal/decode/engine.go
package decode

import (
	"fmt"

	"github.com/tamzrod/modbus-mqtt/internal/layout"
)

// Decode converts one module's registers into named values following l.
// raw must hold at least l.Size() registers; anything past the last field is ignored.
// raw is only read, never retained.
func Decode(l layout.Layout, raw []uint16) (Module, error) {
	if len(raw) < l.Size() {
		return Module{}, fmt.Errorf("%w: got %d registers, want %d", ErrShortBuffer, len(raw), l.Size())
	}

	fields := make([]Field, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		f := l.At(i)

		v, err := decodeField(f, l.Order(), raw)
		if err != nil {
			return Module{}, &FieldError{Field: f.Name, Err: err}
		}
		fields = append(fields, Field{Name: f.Name, Value: v})
	}

	return Module{Fields: fields}, nil
}

func decodeField(f layout.Field, order layout.WordOrder, raw []uint16) (Value, error) {
	if f.Offset < 0 || f.Words <= 0 || f.End() > len(raw) {
		return Value{}, fmt.Errorf("%w: registers %d-%d of %d", ErrFieldBounds, f.Offset, f.End()-1, len(raw))
	}

	if f.Count == 1 {
		n, err := Convert(raw[f.Offset:f.End()], f.Kind, order)
		if err != nil {
			return Value{}, err
		}
		return Scalar(n), nil
	}

	nums := make([]Number, 0, f.Count)
	for start := f.Offset; start < f.End(); start += f.Words {
		n, err := Convert(raw[start:start+f.Words], f.Kind, order)
		if err != nil {
			return Value{}, err
		}
		nums = append(nums, n)
	}
	return Value{nums: nums, repeated: true}, nil
}
