package keyword

// LevenshteinDistance returns the number of single-rune insertions, deletions and
// substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	return boundedDistance([]rune(a), []rune(b), -1, false)
}

// DamerauLevenshteinDistance is LevenshteinDistance with a swap of two adjacent
// runes counted as one edit, so "tolkein" is one edit from "tolkien".
func DamerauLevenshteinDistance(a, b string) int {
	return boundedDistance([]rune(a), []rune(b), -1, true)
}

// boundedDistance computes the (optionally Damerau) edit distance of a and b. With
// max >= 0 it stops early and returns max+1 once the distance must exceed max.
func boundedDistance(a, b []rune, max int, transpose bool) int {
	if max >= 0 && abs(len(a)-len(b)) > max {
		return max + 1
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Three rows: the transposition check looks two rows back.
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if transpose && i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				curr[j] = min(curr[j], prev2[j-2]+1)
			}
			rowMin = min(rowMin, curr[j])
		}
		if max >= 0 && rowMin > max && !transpose {
			return max + 1
		}
		prev2, prev, curr = prev, curr, prev2
	}
	d := prev[len(b)]
	if max >= 0 && d > max {
		return max + 1
	}
	return d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
