// internal/decode/value.go
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// cborEnc writes maps in canonical key order so equal modules encode identically.
var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("decode: cbor encoder mode: %v", err))
	}
}

// Number is one decoded value. Integers and floats stay distinct so that
// serializers can write 7 instead of 7.0.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

func Int(v int64) Number     { return Number{i: v} }
func Float(v float64) Number { return Number{f: v, isFloat: true} }

func (n Number) IsFloat() bool { return n.isFloat }

// Float64 returns the value as a float regardless of its kind.
func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// Int64 returns the integer value; floats are truncated.
func (n Number) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

func (n Number) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'f', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

// MarshalJSON writes NaN and infinities as null; JSON has no literal for them.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.isFloat {
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(n.f)
	}
	return []byte(strconv.FormatInt(n.i, 10)), nil
}

func (n Number) MarshalCBOR() ([]byte, error) {
	if n.isFloat {
		return cborEnc.Marshal(n.f)
	}
	return cborEnc.Marshal(n.i)
}

// Value is a decoded field: a single number, or an ordered list for repeated fields.
type Value struct {
	nums     []Number
	repeated bool
}

func Scalar(n Number) Value { return Value{nums: []Number{n}} }

// List copies nums into a repeated value.
func List(nums ...Number) Value {
	own := make([]Number, len(nums))
	copy(own, nums)
	return Value{nums: own, repeated: true}
}

func (v Value) Repeated() bool { return v.repeated }

// Scalar returns the single number of a non-repeated value.
func (v Value) Scalar() (Number, bool) {
	if v.repeated || len(v.nums) != 1 {
		return Number{}, false
	}
	return v.nums[0], true
}

// List returns a copy of the numbers of a repeated value.
func (v Value) List() ([]Number, bool) {
	if !v.repeated {
		return nil, false
	}
	out := make([]Number, len(v.nums))
	copy(out, v.nums)
	return out, true
}

// Len is 1 for scalars and the element count for lists.
func (v Value) Len() int { return len(v.nums) }

func (v Value) String() string {
	if !v.repeated {
		if len(v.nums) == 1 {
			return v.nums[0].String()
		}
		return "<nil>"
	}
	var b bytes.Buffer
	b.WriteByte('[')
	for i, n := range v.nums {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.repeated {
		return json.Marshal(v.nums)
	}
	if len(v.nums) != 1 {
		return []byte("null"), nil
	}
	return v.nums[0].MarshalJSON()
}

func (v Value) MarshalCBOR() ([]byte, error) {
	if v.repeated {
		return cborEnc.Marshal(v.nums)
	}
	if len(v.nums) != 1 {
		return cborEnc.Marshal(nil)
	}
	return v.nums[0].MarshalCBOR()
}

// Field is one named decoded value.
type Field struct {
	Name  string
	Value Value
}

// Module is the decoded register block of one module, in layout order.
// Index is the module's position in the poll response.
type Module struct {
	Index  int
	Fields []Field
}

// Get looks up a decoded field by name.
func (m Module) Get(name string) (Value, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON writes the fields in layout order, followed by "index".
func (m Module) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for _, f := range m.Fields {
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
		b.WriteByte(',')
	}
	b.WriteString(`"index":`)
	b.WriteString(strconv.Itoa(m.Index))
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalCBOR writes the module as a map of field names plus "index".
func (m Module) MarshalCBOR() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for _, f := range m.Fields {
		out[f.Name] = f.Value
	}
	out["index"] = m.Index
	return cborEnc.Marshal(out)
}
