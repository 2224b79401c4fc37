// Package dedupe tracks which athletes have already been drafted.
package dedupe

// Registry records drafted athlete names for the lifetime of one draft.
// It has a single owner and is not safe for concurrent use; picks are
// strictly sequential so no locking is needed. Entries are never evicted,
// since forgetting a name would let it be drafted twice.
type Registry struct {
	seen     map[string]struct{}
	order    []string
	capacity int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	r.seen = make(map[string]struct{}, r.capacity)
	r.order = make([]string, 0, r.capacity)
	return r
}

// SeenAndRecord checks if name was drafted and records it if not.
// Returns true if name was already drafted, false if it was newly recorded.
func (r *Registry) SeenAndRecord(name string) bool {
	if _, ok := r.seen[name]; ok {
		return true
	}
	r.seen[name] = struct{}{}
	r.order = append(r.order, name)
	return false
}

// Seen reports whether name has been drafted.
func (r *Registry) Seen(name string) bool {
	_, ok := r.seen[name]
	return ok
}

// Size returns the number of drafted names.
func (r *Registry) Size() int {
	return len(r.order)
}

// Order returns drafted names in pick order. The slice is a copy.
func (r *Registry) Order() []string {
	return append([]string(nil), r.order...)
}
