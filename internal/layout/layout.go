// internal/layout/layout.go
package layout

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalid marks a malformed layout. It is a configuration error:
// a process holding one must not start polling.
var ErrInvalid = errors.New("layout: invalid")

// Field describes one named value inside a module's register block.
// Count consecutive values of Words registers each start at Offset.
type Field struct {
	Name   string `yaml:"name" json:"name"`
	Offset int    `yaml:"offset" json:"offset"`
	Words  int    `yaml:"words,omitempty" json:"words"`
	Count  int    `yaml:"count,omitempty" json:"count"`
	Kind   Kind   `yaml:"kind" json:"kind"`
}

// Span is the number of registers the field covers.
func (f Field) Span() int {
	return f.Words * f.Count
}

// End is the first register offset after the field.
func (f Field) End() int {
	return f.Offset + f.Span()
}

// Repeated reports whether the field decodes to a list.
func (f Field) Repeated() bool {
	return f.Count > 1
}

// Layout maps named fields onto one module's registers.
// It is immutable once built; share it freely across goroutines.
type Layout struct {
	order  WordOrder
	size   int
	fields []Field
}

// New validates the fields and returns a Layout owning a private copy of them.
// size is the fixed register count of one module; registers after the last field
// are padding.
func New(order WordOrder, size int, fields []Field) (Layout, error) {
	if order != BigEndian && order != LittleEndian {
		return Layout{}, fmt.Errorf("%w: unknown word order %d", ErrInvalid, uint8(order))
	}
	if size <= 0 {
		return Layout{}, fmt.Errorf("%w: module size must be > 0, got %d", ErrInvalid, size)
	}
	if len(fields) == 0 {
		return Layout{}, fmt.Errorf("%w: at least one field required", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return Layout{}, fmt.Errorf("%w: field at offset %d has no name", ErrInvalid, f.Offset)
		}
		if _, dup := seen[f.Name]; dup {
			return Layout{}, fmt.Errorf("%w: duplicate field %q", ErrInvalid, f.Name)
		}
		seen[f.Name] = struct{}{}

		if !f.Kind.Valid() {
			return Layout{}, fmt.Errorf("%w: field %q: unknown value kind %d", ErrInvalid, f.Name, uint8(f.Kind))
		}
		if f.Words != f.Kind.Words() {
			return Layout{}, fmt.Errorf("%w: field %q: %s needs %d words, got %d",
				ErrInvalid, f.Name, f.Kind, f.Kind.Words(), f.Words)
		}
		if f.Count < 1 {
			return Layout{}, fmt.Errorf("%w: field %q: count must be >= 1, got %d", ErrInvalid, f.Name, f.Count)
		}
		if f.Offset < 0 {
			return Layout{}, fmt.Errorf("%w: field %q: negative offset %d", ErrInvalid, f.Name, f.Offset)
		}
		if f.End() > size {
			return Layout{}, fmt.Errorf("%w: field %q: registers %d-%d exceed module size %d",
				ErrInvalid, f.Name, f.Offset, f.End()-1, size)
		}
	}

	if err := checkOverlap(fields); err != nil {
		return Layout{}, err
	}

	own := make([]Field, len(fields))
	copy(own, fields)

	return Layout{order: order, size: size, fields: own}, nil
}

// MustNew is New for static layouts; it panics on error.
func MustNew(order WordOrder, size int, fields []Field) Layout {
	l, err := New(order, size, fields)
	if err != nil {
		panic(err)
	}
	return l
}

func checkOverlap(fields []Field) error {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Offset < prev.End() {
			return fmt.Errorf("%w: field %q (registers %d-%d) overlaps field %q (registers %d-%d)",
				ErrInvalid, cur.Name, cur.Offset, cur.End()-1, prev.Name, prev.Offset, prev.End()-1)
		}
	}
	return nil
}

func (l Layout) Order() WordOrder { return l.order }

// Size is the register count of one module.
func (l Layout) Size() int { return l.size }

// Len is the number of fields.
func (l Layout) Len() int { return len(l.fields) }

// At returns the i-th field in layout order.
func (l Layout) At(i int) Field { return l.fields[i] }

// Fields returns a copy of the fields in layout order.
func (l Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Lookup finds a field by name.
func (l Layout) Lookup(name string) (Field, bool) {
	for _, f := range l.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Spec returns the declarative form of the layout.
func (l Layout) Spec() Spec {
	return Spec{WordOrder: l.order, ModuleSize: l.size, Fields: l.Fields()}
}
