package querycache

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Tag labels cached results for group invalidation. An empty ID makes the
// tag generic for its type.
type Tag struct {
	Type string
	ID   string
}

// GenericTag returns the tag covering every entity of typ.
func GenericTag(typ string) Tag {
	return Tag{Type: typ}
}

// IDTag returns the tag for one entity of typ.
func IDTag(typ, id string) Tag {
	return Tag{Type: typ, ID: id}
}

// IsGeneric reports whether the tag has no id.
func (t Tag) IsGeneric() bool {
	return t.ID == ""
}

// Matches reports whether invalidating t affects a query that provided other.
// Types must be equal; a generic tag on either side matches any id.
func (t Tag) Matches(other Tag) bool {
	if t.Type != other.Type {
		return false
	}
	return t.IsGeneric() || other.IsGeneric() || t.ID == other.ID
}

func (t Tag) String() string {
	if t.IsGeneric() {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// TagIndex maps tags to the query keys that currently provide them.
// It holds keys only and never owns entries.
type TagIndex struct {
	mu       sync.RWMutex
	byType   map[string]mapset.Set[QueryKey]
	generic  map[string]mapset.Set[QueryKey]
	specific map[Tag]mapset.Set[QueryKey]
	keyTags  map[QueryKey]mapset.Set[Tag]
}

// NewTagIndex returns an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		byType:   map[string]mapset.Set[QueryKey]{},
		generic:  map[string]mapset.Set[QueryKey]{},
		specific: map[Tag]mapset.Set[QueryKey]{},
		keyTags:  map[QueryKey]mapset.Set[Tag]{},
	}
}

// Record replaces the tag set previously associated with key.
func (x *TagIndex) Record(key QueryKey, tags []Tag) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.forgetLocked(key)
	if len(tags) == 0 {
		return
	}

	set := mapset.NewThreadUnsafeSet(tags...)
	x.keyTags[key] = set
	set.Each(func(t Tag) bool {
		addKey(x.byType, t.Type, key)
		if t.IsGeneric() {
			addKey(x.generic, t.Type, key)
		} else {
			addKey(x.specific, t, key)
		}
		return false
	})
}

// Forget drops key from the index.
func (x *TagIndex) Forget(key QueryKey) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.forgetLocked(key)
}

// TagsFor returns the tags recorded for key.
func (x *TagIndex) TagsFor(key QueryKey) []Tag {
	x.mu.RLock()
	defer x.mu.RUnlock()
	set, ok := x.keyTags[key]
	if !ok {
		return nil
	}
	return sortedTags(set.ToSlice())
}

// InvalidateByTags returns the union of keys whose recorded tags match any
// of tags. The result is sorted for stable iteration.
func (x *TagIndex) InvalidateByTags(tags []Tag) []QueryKey {
	x.mu.RLock()
	defer x.mu.RUnlock()

	matched := mapset.NewThreadUnsafeSet[QueryKey]()
	for _, t := range tags {
		if t.IsGeneric() {
			if keys, ok := x.byType[t.Type]; ok {
				matched = matched.Union(keys)
			}
			continue
		}
		if keys, ok := x.generic[t.Type]; ok {
			matched = matched.Union(keys)
		}
		if keys, ok := x.specific[t]; ok {
			matched = matched.Union(keys)
		}
	}

	out := matched.ToSlice()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Args < out[j].Args
	})
	return out
}

// Len returns the number of keys with recorded tags.
func (x *TagIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.keyTags)
}

func (x *TagIndex) forgetLocked(key QueryKey) {
	old, ok := x.keyTags[key]
	if !ok {
		return
	}
	delete(x.keyTags, key)
	old.Each(func(t Tag) bool {
		removeKey(x.byType, t.Type, key)
		if t.IsGeneric() {
			removeKey(x.generic, t.Type, key)
		} else {
			removeKey(x.specific, t, key)
		}
		return false
	})
}

func addKey[K comparable](m map[K]mapset.Set[QueryKey], k K, key QueryKey) {
	set, ok := m[k]
	if !ok {
		set = mapset.NewThreadUnsafeSet[QueryKey]()
		m[k] = set
	}
	set.Add(key)
}

func removeKey[K comparable](m map[K]mapset.Set[QueryKey], k K, key QueryKey) {
	set, ok := m[k]
	if !ok {
		return
	}
	set.Remove(key)
	if set.IsEmpty() {
		delete(m, k)
	}
}

func sortedTags(tags []Tag) []Tag {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Type != tags[j].Type {
			return tags[i].Type < tags[j].Type
		}
		return tags[i].ID < tags[j].ID
	})
	return tags
}
