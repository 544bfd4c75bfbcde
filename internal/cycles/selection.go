package cycles

import (
	"maps"
	"slices"
)

// Selection is the set of active cycle keys. It is seeded from the pipeline's
// suggested cycles and afterwards changed only by Toggle; Clear empties it when
// the series changes. It is not safe for concurrent use.
type Selection struct {
	keys map[Key]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{keys: make(map[Key]struct{})}
}

// Seed replaces the selection wholesale.
func (s *Selection) Seed(keys []Key) {
	s.keys = make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
}

// Toggle flips membership of key and reports whether it is now selected.
func (s *Selection) Toggle(key Key) bool {
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.keys)
}

// Contains reports whether key is selected.
func (s *Selection) Contains(key Key) bool {
	_, ok := s.keys[key]
	return ok
}

// Len is the number of selected keys.
func (s *Selection) Len() int {
	return len(s.keys)
}

// Keys returns the selected keys in ascending string order.
func (s *Selection) Keys() []Key {
	return slices.Sorted(maps.Keys(s.keys))
}
