package scoring

// NameRatio computes a Ratcliff/Obershelp similarity ratio between two
// person names, after normalization. It recursively finds the longest
// common contiguous substring, recurses on the left and right remainders,
// and reports 2*matches / (len(a)+len(b)). Returns 0.0 if either name
// normalizes to empty.
func NameRatio(a, b string) float64 {
	ra := []rune(NormalizeName(a))
	rb := []rune(NormalizeName(b))
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	m := matchingChars(ra, rb)
	return 2.0 * float64(m) / float64(len(ra)+len(rb))
}

// matchingChars counts characters in matching blocks, Ratcliff/Obershelp style.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonBlock finds the longest common contiguous substring.
// Ties go to the earliest position in a, then in b.
func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	// lengths[j] holds the length of the common suffix ending at a[i], b[j]
	// for the current row, computed in place right-to-left.
	lengths := make([]int, len(b))
	for i := range a {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] != b[j] {
				lengths[j] = 0
				continue
			}
			if j == 0 {
				lengths[j] = 1
			} else {
				lengths[j] = lengths[j-1] + 1
			}
			if lengths[j] > size {
				size = lengths[j]
				ai = i - size + 1
				bi = j - size + 1
			}
		}
	}
	return ai, bi, size
}
