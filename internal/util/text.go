package util

import "sort"

// OrderedIntKeys returns the keys of m sorted ascending, for deterministic
// iteration over a code-keyed table in output such as trace logs and error
// messages.
func OrderedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
