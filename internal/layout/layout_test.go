// internal/layout/layout_test.go
package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultLayout(t *testing.T) {
	l := Default()

	assert.Equal(t, LittleEndian, l.Order())
	assert.Equal(t, 24, l.Size())
	require.Equal(t, 6, l.Len())

	names := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		names = append(names, l.At(i).Name)
	}
	assert.Equal(t, []string{"timestamp", "busIndex", "voltage", "current", "power", "energy"}, names)

	v, ok := l.Lookup("voltage")
	require.True(t, ok)
	assert.Equal(t, 6, v.Span())
	assert.True(t, v.Repeated())
}

func TestNew_Rejects(t *testing.T) {
	ok := Field{Name: "a", Offset: 0, Words: 1, Count: 1, Kind: Uint16}

	tests := []struct {
		name   string
		size   int
		fields []Field
	}{
		{"zero size", 0, []Field{ok}},
		{"no fields", 4, nil},
		{"empty name", 4, []Field{{Offset: 0, Words: 1, Count: 1, Kind: Uint16}}},
		{"duplicate name", 4, []Field{ok, {Name: "a", Offset: 1, Words: 1, Count: 1, Kind: Uint16}}},
		{"unknown kind", 4, []Field{{Name: "a", Words: 1, Count: 1}}},
		{"width mismatch", 4, []Field{{Name: "a", Words: 1, Count: 1, Kind: Float32}}},
		{"zero count", 4, []Field{{Name: "a", Words: 1, Count: 0, Kind: Uint16}}},
		{"negative offset", 4, []Field{{Name: "a", Offset: -1, Words: 1, Count: 1, Kind: Uint16}}},
		{"past module end", 4, []Field{{Name: "a", Offset: 2, Words: 2, Count: 2, Kind: Float32}}},
		{"overlap", 8, []Field{
			{Name: "a", Offset: 0, Words: 2, Count: 2, Kind: Float32},
			{Name: "b", Offset: 3, Words: 1, Count: 1, Kind: Uint16},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(BigEndian, tt.size, tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "want ErrInvalid, got %v", err)
		})
	}
}

func TestNew_TouchingFieldsAndPadding(t *testing.T) {
	l, err := New(BigEndian, 10, []Field{
		{Name: "a", Offset: 0, Words: 2, Count: 2, Kind: Float32}, // 0-3
		{Name: "b", Offset: 4, Words: 1, Count: 1, Kind: Int16},   // 4
	})
	require.NoError(t, err)
	assert.Equal(t, 10, l.Size())
}

func TestNew_CopiesFields(t *testing.T) {
	fields := []Field{{Name: "a", Offset: 0, Words: 1, Count: 1, Kind: Uint16}}
	l, err := New(BigEndian, 1, fields)
	require.NoError(t, err)

	fields[0].Name = "changed"
	assert.Equal(t, "a", l.At(0).Name)

	out := l.Fields()
	out[0].Offset = 99
	assert.Equal(t, 0, l.At(0).Offset)
}

func TestSpec_BuildDefaults(t *testing.T) {
	s := Spec{
		WordOrder:  BigEndian,
		ModuleSize: 8,
		Fields: []Field{
			{Name: "total", Offset: 0, Kind: Float64},
			{Name: "phase", Offset: 4, Count: 2, Kind: Int32},
		},
	}

	l, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, 4, l.At(0).Words)
	assert.Equal(t, 1, l.At(0).Count)
	assert.Equal(t, 2, l.At(1).Words)

	// s itself is left untouched
	assert.Equal(t, 0, s.Fields[0].Words)
}

func TestSpec_YAML(t *testing.T) {
	src := `
word_order: little
module_size: 6
fields:
  - { name: busIndex, offset: 0, kind: word }
  - { name: voltage, offset: 2, count: 2, kind: REAL }
`
	var s Spec
	require.NoError(t, yaml.Unmarshal([]byte(src), &s))

	l, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, LittleEndian, l.Order())
	assert.Equal(t, Uint16, l.At(0).Kind)
	assert.Equal(t, Float32, l.At(1).Kind)
	assert.Equal(t, 2, l.At(1).Words)

	out, err := yaml.Marshal(l.Spec())
	require.NoError(t, err)
	assert.Contains(t, string(out), "kind: float32")
	assert.Contains(t, string(out), "word_order: little")
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"uint16": Uint16, "INT": Int16, "udint": Uint32, "dword": Int32,
		"dint": Int32, "real": Float32, " lreal ": Float64, "float64": Float64,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("string")
	assert.Error(t, err)
}

func TestKindWords(t *testing.T) {
	assert.Equal(t, 1, Uint16.Words())
	assert.Equal(t, 1, Int16.Words())
	assert.Equal(t, 2, Uint32.Words())
	assert.Equal(t, 2, Int32.Words())
	assert.Equal(t, 2, Float32.Words())
	assert.Equal(t, 4, Float64.Words())
	assert.Equal(t, 0, KindUnknown.Words())
}
