package reference

import "strings"

// Fields is an ordered, case-insensitive mapping from field name to value.
// Names are stored lowercase. Iteration follows insertion order; updating an
// existing name keeps its position.
type Fields struct {
	names  []string
	values map[string]string
}

// NewFields creates an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

func fieldKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the value for name and whether it is present.
func (f *Fields) Get(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[fieldKey(name)]
	return v, ok
}

// Has reports whether name is present (even with an empty value).
func (f *Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Set stores value under name.
func (f *Fields) Set(name, value string) {
	k := fieldKey(name)
	if k == "" {
		return
	}
	if _, ok := f.values[k]; !ok {
		f.names = append(f.names, k)
	}
	f.values[k] = value
}

// Names returns the field names in order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Each calls fn for every field in order.
func (f *Fields) Each(fn func(name, value string)) {
	if f == nil {
		return
	}
	for _, n := range f.names {
		fn(n, f.values[n])
	}
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	c := NewFields()
	f.Each(func(name, value string) {
		c.Set(name, value)
	})
	return c
}
