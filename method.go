package goMFA

// methodRegistry maps a method name to its implementation. It is resolved
// once at Build from Config.Methods and never mutated afterwards, so lookups
// need no locking.
type methodRegistry struct {
	order   []string
	methods map[string]Method
}

func newMethodRegistry() *methodRegistry {
	return &methodRegistry{
		methods: make(map[string]Method),
	}
}

func (r *methodRegistry) add(m Method) {
	name := m.Name()
	if _, exists := r.methods[name]; !exists {
		r.order = append(r.order, name)
	}
	r.methods[name] = m
}

func (r *methodRegistry) get(name string) (Method, error) {
	m, ok := r.methods[name]
	if !ok {
		return nil, ErrMethodNotFound
	}
	return m, nil
}

// names returns the configured method order, not map order.
func (r *methodRegistry) names() []string {
	return r.order
}
