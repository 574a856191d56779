package extractor

// Extractor parses structured attributes out of free-text product names.
// Implementations are pure: no I/O, no shared state, safe for concurrent use.
type Extractor interface {
	// Extract returns the attributes found in text. Implausible values are
	// rejected by the extractor itself; a field that fails validation is
	// simply absent from the result.
	Extract(text string) map[string]any

	// Name identifies the extractor in task payloads and logs.
	Name() string
}

// Registry holds the available extractors keyed by name.
type Registry struct {
	extractors map[string]Extractor
	order      []string
}

// NewRegistry creates a registry pre-populated with the default extractors.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(NewElectricalExtractor())
	r.Register(NewPhysicalExtractor())
	return r
}

// Register adds an extractor under its own name.
func (r *Registry) Register(e Extractor) {
	if _, exists := r.extractors[e.Name()]; !exists {
		r.order = append(r.order, e.Name())
	}
	r.extractors[e.Name()] = e
}

// Get returns the extractor registered under name, or nil.
func (r *Registry) Get(name string) Extractor {
	return r.extractors[name]
}

// All returns the extractors in registration order.
func (r *Registry) All() []Extractor {
	out := make([]Extractor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.extractors[name])
	}
	return out
}
