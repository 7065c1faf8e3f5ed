package topics

import "sort"

// Set is an unordered collection of topic identifiers.
type Set map[string]struct{}

// NewSet creates a set from the given topics. Duplicates collapse.
func NewSet[T ~string](items ...T) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[string(item)] = struct{}{}
	}
	return s
}

// Contains reports whether topic is in the set.
func (s Set) Contains(topic string) bool {
	_, ok := s[topic]
	return ok
}

// Equal reports set equality; ordering never matters.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for topic := range s {
		if !other.Contains(topic) {
			return false
		}
	}
	return true
}

// Difference returns the topics in s that are not in other, sorted.
func (s Set) Difference(other Set) []string {
	out := make([]string, 0)
	for topic := range s {
		if !other.Contains(topic) {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for topic := range s {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}
