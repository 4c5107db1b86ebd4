package textmatch

// Similarity computes a Ratcliff/Obershelp similarity ratio between two
// strings: the longest common contiguous substring is located, the regions
// to its left and right are matched recursively, and the ratio is
// 2*matched / (len(a)+len(b)).
//
// Two empty strings are considered identical (ratio 1); if exactly one is
// empty the ratio is 0. The function is pure, symmetric, and deterministic.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matched := matchedLength([]rune(a), []rune(b))
	return 2 * float64(matched) / float64(len([]rune(a))+len([]rune(b)))
}

// matchedLength sums the lengths of all common blocks found by recursive
// longest-common-substring decomposition.
func matchedLength(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}

	total := size
	total += matchedLength(a[:ai], b[:bi])
	total += matchedLength(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonSubstring finds the longest common contiguous run between a
// and b using an O(len(a)*len(b)) dynamic-programming scan. It returns the
// start offsets in a and b and the run length; size 0 means no common rune.
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j] holds the run length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return ai, bi, size
}
