package star

// Registry hands out dense, 1-based surrogate keys in first-seen order.
//
// Ensure on a known key is a no-op returning the existing id, so re-running a
// builder over the same input always reproduces the same key assignment.
type Registry[K comparable] struct {
	ids  map[K]int64
	keys []K
}

// NewRegistry returns an empty registry.
func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{ids: make(map[K]int64)}
}

// Ensure returns the surrogate id for key, allocating the next dense id when
// the key is new. The second result reports whether an allocation happened.
func (r *Registry[K]) Ensure(key K) (int64, bool) {
	if id, ok := r.ids[key]; ok {
		return id, false
	}
	id := int64(len(r.keys)) + 1
	r.ids[key] = id
	r.keys = append(r.keys, key)
	return id, true
}

// Lookup returns the surrogate id for key without allocating.
func (r *Registry[K]) Lookup(key K) (int64, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Len reports how many keys have been registered.
func (r *Registry[K]) Len() int {
	return len(r.keys)
}
