// internal/decode/slicer.go
package decode

import (
	"fmt"

	"github.com/tamzrod/modbus-mqtt/internal/layout"
)

// Slice splits a response covering count identical modules and decodes each
// module independently, in order. Module i is tagged with Index i.
// len(raw) must be exactly count*l.Size().
func Slice(l layout.Layout, raw []uint16, count int) ([]Module, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative module count %d", ErrLengthMismatch, count)
	}
	size := l.Size()
	if len(raw) != count*size {
		return nil, fmt.Errorf("%w: got %d registers, want %d modules x %d", ErrLengthMismatch, len(raw), count, size)
	}

	out := make([]Module, 0, count)
	for i := 0; i < count; i++ {
		m, err := Decode(l, raw[i*size:(i+1)*size])
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
		m.Index = i
		out = append(out, m)
	}
	return out, nil
}
