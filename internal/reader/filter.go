package reader

// filterIndexes computes the ordered list of event indices whose level is in
// the allowed set. Recomputed wholesale on every filter change; indices are
// strictly ascending by construction.
func filterIndexes(allowed []int, n int, levelAt func(int) int) []int {
	set := make(map[int]struct{}, len(allowed))
	for _, lvl := range allowed {
		set[lvl] = struct{}{}
	}

	indexes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := set[levelAt(i)]; ok {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// resolveRange validates a half-open [begin, end) range against the selected
// view and reports whether it can be decoded. viewLen is the filtered length
// when filtering, the full store length otherwise.
func resolveRange(begin, end, viewLen int) bool {
	return begin >= 0 && begin < end && end <= viewLen
}
