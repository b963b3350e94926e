// internal/layout/kind.go
package layout

import (
	"fmt"
	"strings"
)

// Kind is the primitive type stored in a field.
// The set is closed; decoding dispatches on it.
type Kind uint8

const (
	KindUnknown Kind = iota
	Uint16           // aka WORD, UINT
	Int16            // aka INT
	Uint32           // aka UDINT
	Int32            // aka DWORD, DINT
	Float32          // aka REAL
	Float64          // aka LREAL
)

var kindNames = map[Kind]string{
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

// PLC type names accepted in configuration.
var kindAliases = map[string]Kind{
	"word":  Uint16,
	"uint":  Uint16,
	"int":   Int16,
	"udint": Uint32,
	"dword": Int32,
	"dint":  Int32,
	"real":  Float32,
	"lreal": Float64,
}

// Words returns the register width of one value of this kind, 0 if unknown.
func (k Kind) Words() int {
	switch k {
	case Uint16, Int16:
		return 1
	case Uint32, Int32, Float32:
		return 2
	case Float64:
		return 4
	}
	return 0
}

// IsFloat reports whether values of this kind decode to floating point.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind name or PLC alias, case-insensitive.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("unknown value kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown value kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ---- WORD ORDER ----

// WordOrder selects which word of a multi-word value holds the most significant bits.
type WordOrder uint8

const (
	// BigEndian: the first word is the most significant.
	BigEndian WordOrder = iota
	// LittleEndian: the last word is the most significant.
	LittleEndian
)

func (o WordOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	}
	return fmt.Sprintf("order(%d)", uint8(o))
}

// ParseWordOrder accepts "big"/"little" and the "-endian" spellings.
func ParseWordOrder(s string) (WordOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "big-endian", "bigendian", "msw":
		return BigEndian, nil
	case "little", "little-endian", "littleendian", "lsw":
		return LittleEndian, nil
	}
	return BigEndian, fmt.Errorf("unknown word order %q", s)
}

func (o WordOrder) MarshalText() ([]byte, error) {
	if o != BigEndian && o != LittleEndian {
		return nil, fmt.Errorf("unknown word order %d", uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *WordOrder) UnmarshalText(b []byte) error {
	v, err := ParseWordOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
