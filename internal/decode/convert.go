// internal/decode/convert.go
package decode

import (
	"fmt"
	"math"

	"github.com/tamzrod/modbus-mqtt/internal/layout"
)

// Fractional digits kept on float values.
const floatDigits = 3

// converter turns the assembled register bits of one value into a Number.
type converter func(bits uint64) Number

// converters is the dispatch table for every supported kind.
var converters = map[layout.Kind]converter{
	layout.Uint16: func(b uint64) Number { return Int(int64(uint16(b))) },
	layout.Int16:  func(b uint64) Number { return Int(int64(int16(uint16(b)))) },
	layout.Uint32: func(b uint64) Number { return Int(int64(uint32(b))) },
	layout.Int32:  func(b uint64) Number { return Int(int64(int32(uint32(b)))) },
	layout.Float32: func(b uint64) Number {
		return Float(round(float64(math.Float32frombits(uint32(b)))))
	},
	layout.Float64: func(b uint64) Number {
		return Float(round(math.Float64frombits(b)))
	},
}

// Convert decodes one value of the given kind from exactly kind.Words() registers.
// Multi-word values are assembled according to order; floats are bit
// reinterpretations of the assembled pattern, rounded to three decimals.
func Convert(words []uint16, kind layout.Kind, order layout.WordOrder) (Number, error) {
	conv, ok := converters[kind]
	if !ok {
		return Number{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if want := kind.Words(); len(words) != want {
		return Number{}, fmt.Errorf("%w: %s needs %d words, got %d", ErrWordCount, kind, want, len(words))
	}
	return conv(assemble(words, order)), nil
}

// assemble joins up to four registers into one bit pattern.
// BigEndian: words[0] is most significant. LittleEndian: words[len-1] is.
func assemble(words []uint16, order layout.WordOrder) uint64 {
	var v uint64
	if order == layout.LittleEndian {
		for i := len(words) - 1; i >= 0; i-- {
			v = v<<16 | uint64(words[i])
		}
		return v
	}
	for _, w := range words {
		v = v<<16 | uint64(w)
	}
	return v
}

// split is the inverse of assemble for n registers.
func split(v uint64, n int, order layout.WordOrder) []uint16 {
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		w := uint16(v >> (16 * uint(n-1-i)))
		if order == layout.LittleEndian {
			out[n-1-i] = w
		} else {
			out[i] = w
		}
	}
	return out
}

func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	// beyond this magnitude a float64 carries no fractional digits
	if math.Abs(v) >= 1<<52 {
		return v
	}
	p := math.Pow10(floatDigits)
	return math.Round(v*p) / p
}

// ---- encoding (inverse of Convert) ----

// Encode produces the registers that Convert decodes back to n.
// Floats are stored unrounded; integers are truncated to the kind's width.
func Encode(n Number, kind layout.Kind, order layout.WordOrder) ([]uint16, error) {
	var bits uint64
	switch kind {
	case layout.Uint16, layout.Int16:
		bits = uint64(uint16(n.Int64()))
	case layout.Uint32, layout.Int32:
		bits = uint64(uint32(n.Int64()))
	case layout.Float32:
		bits = uint64(math.Float32bits(float32(n.Float64())))
	case layout.Float64:
		bits = math.Float64bits(n.Float64())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return split(bits, kind.Words(), order), nil
}

// EncodeFloat32 returns the two registers of an IEEE-754 single in the given order.
func EncodeFloat32(v float32, order layout.WordOrder) []uint16 {
	return split(uint64(math.Float32bits(v)), 2, order)
}

// EncodeFloat64 returns the four registers of an IEEE-754 double in the given order.
func EncodeFloat64(v float64, order layout.WordOrder) []uint16 {
	return split(math.Float64bits(v), 4, order)
}

// EncodeUint32 returns the two registers of v in the given order.
func EncodeUint32(v uint32, order layout.WordOrder) []uint16 {
	return split(uint64(v), 2, order)
}
