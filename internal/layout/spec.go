// internal/layout/spec.go
package layout

// Spec is the declarative layout as it appears in configuration files.
// Omitted words are derived from the kind; omitted count means a scalar.
type Spec struct {
	WordOrder  WordOrder `yaml:"word_order" json:"word_order"`
	ModuleSize int       `yaml:"module_size" json:"module_size"`
	Fields     []Field   `yaml:"fields" json:"fields"`
}

// Build fills in defaults and validates the result.
// It does not modify s.
func (s Spec) Build() (Layout, error) {
	fields := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		if f.Words == 0 {
			f.Words = f.Kind.Words()
		}
		if f.Count == 0 {
			f.Count = 1
		}
		fields[i] = f
	}
	return New(s.WordOrder, s.ModuleSize, fields)
}

// DefaultModuleSize is the register count of one bus module in DefaultSpec.
const DefaultModuleSize = 24

// DefaultSpec is the per-bus measurement block: a 32-bit timestamp, the bus index,
// three phases each of voltage, current and power, and the accumulated energy.
// Floats are stored low word first.
func DefaultSpec() Spec {
	return Spec{
		WordOrder:  LittleEndian,
		ModuleSize: DefaultModuleSize,
		Fields: []Field{
			{Name: "timestamp", Offset: 0, Words: 2, Count: 1, Kind: Uint32},
			{Name: "busIndex", Offset: 2, Words: 1, Count: 1, Kind: Uint16},
			{Name: "voltage", Offset: 4, Words: 2, Count: 3, Kind: Float32},
			{Name: "current", Offset: 10, Words: 2, Count: 3, Kind: Float32},
			{Name: "power", Offset: 16, Words: 2, Count: 3, Kind: Float32},
			{Name: "energy", Offset: 22, Words: 2, Count: 1, Kind: Float32},
		},
	}
}

// Default is DefaultSpec, built.
func Default() Layout {
	s := DefaultSpec()
	return MustNew(s.WordOrder, s.ModuleSize, s.Fields)
}
