package importer

// SimilarityRatio computes a normalized edit-distance ratio between two
// strings: 1.0 for identical inputs, 0.0 for completely different ones. The
// comparison is rune-based so CJK names score the same way as ASCII ones.
func SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes the edit distance with a rolling single-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := prev[0]
		prev[0] = i
		for j := 1; j <= len(b); j++ {
			insertion := prev[j-1] + 1
			deletion := prev[j] + 1
			substitution := current
			if a[i-1] != b[j-1] {
				substitution++
			}

			current = prev[j]
			prev[j] = min3(insertion, deletion, substitution)
		}
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
