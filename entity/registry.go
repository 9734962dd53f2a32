// Package entity provides normalized, id-indexed storage for homogeneous
// entity collections such as accounts, networks and tokens.
package entity

import "slices"

// SelectIDFn extracts the entity id used to index a record.
type SelectIDFn[T any] func(T) string

// Registry keeps an ordered id list alongside an id -> entity map.
// Every id in IDs has an entry in Entities and vice versa.
type Registry[T any] struct {
	IDs      []string     `json:"ids" msgpack:"ids"`
	Entities map[string]T `json:"entities" msgpack:"entities"`

	selectID SelectIDFn[T]
}

// New returns an empty registry that indexes records with selectID.
func New[T any](selectID SelectIDFn[T]) *Registry[T] {
	return &Registry[T]{
		IDs:      []string{},
		Entities: map[string]T{},
		selectID: selectID,
	}
}

// FromList normalizes items into a new registry.
func FromList[T any](selectID SelectIDFn[T], items []T) *Registry[T] {
	r := New(selectID)
	r.SetAll(items)
	return r
}

// SetAll replaces ids and entities in one step. When items repeat an id the
// last record wins and the id keeps its first position.
func (r *Registry[T]) SetAll(items []T) {
	ids := make([]string, 0, len(items))
	entities := make(map[string]T, len(items))
	for _, item := range items {
		id := r.selectID(item)
		if _, exists := entities[id]; !exists {
			ids = append(ids, id)
		}
		entities[id] = item
	}
	r.IDs = ids
	r.Entities = entities
}

// UpsertOne inserts item at the end of the id list or replaces the existing record.
func (r *Registry[T]) UpsertOne(item T) {
	id := r.selectID(item)
	if r.Entities == nil {
		r.Entities = map[string]T{}
	}
	if _, exists := r.Entities[id]; !exists {
		r.IDs = append(r.IDs, id)
	}
	r.Entities[id] = item
}

// RemoveOne deletes the record with id. It reports whether a record was removed.
func (r *Registry[T]) RemoveOne(id string) bool {
	if _, exists := r.Entities[id]; !exists {
		return false
	}
	delete(r.Entities, id)
	r.IDs = slices.DeleteFunc(r.IDs, func(existing string) bool { return existing == id })
	return true
}

// Get returns the record stored under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	item, ok := r.Entities[id]
	return item, ok
}

// First returns the record at the head of the id list.
func (r *Registry[T]) First() (T, bool) {
	if len(r.IDs) == 0 {
		var zero T
		return zero, false
	}
	return r.Get(r.IDs[0])
}

// Has reports whether id is present.
func (r *Registry[T]) Has(id string) bool {
	_, ok := r.Entities[id]
	return ok
}

// Len returns the number of records.
func (r *Registry[T]) Len() int {
	return len(r.IDs)
}

// List returns the records in id order.
func (r *Registry[T]) List() []T {
	out := make([]T, 0, len(r.IDs))
	for _, id := range r.IDs {
		if item, ok := r.Entities[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// EntityIDs returns a copy of the ordered id list.
func (r *Registry[T]) EntityIDs() []string {
	return slices.Clone(r.IDs)
}

// SelectID returns the id the registry would assign to item.
func (r *Registry[T]) SelectID(item T) string {
	return r.selectID(item)
}

// Clone returns a copy whose id list and entity map can be mutated without
// affecting r. Records are copied by value.
func (r *Registry[T]) Clone() *Registry[T] {
	out := &Registry[T]{
		IDs:      slices.Clone(r.IDs),
		Entities: make(map[string]T, len(r.Entities)),
		selectID: r.selectID,
	}
	for id, item := range r.Entities {
		out.Entities[id] = item
	}
	return out
}

// CopyValue lets query caches draft registries for optimistic patches.
func (r *Registry[T]) CopyValue() any {
	return r.Clone()
}

// Consistent reports whether IDs and Entities describe the same id set
// without duplicates.
func (r *Registry[T]) Consistent() bool {
	if len(r.IDs) != len(r.Entities) {
		return false
	}
	seen := make(map[string]struct{}, len(r.IDs))
	for _, id := range r.IDs {
		if _, dup := seen[id]; dup {
			return false
		}
		if _, ok := r.Entities[id]; !ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
