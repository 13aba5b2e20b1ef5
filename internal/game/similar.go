package game

import "strings"

// variationSuffixes are the endings that turn a held word into a
// rejected variation. The list is a deliberately coarse anti-gaming
// heuristic, not a morphological analyzer; gameplay depends on its
// exact boundaries.
var variationSuffixes = []string{"S", "ED", "ING", "ER", "EST", "LY", "Y"}

// Similar reports whether one word is a variation of the other: the
// same word, one plus a known suffix, or a shared stem where the
// shorter is a prefix of the longer and the gap is at most 3 letters.
func Similar(a, b string) bool {
	if a == b {
		return true
	}
	for _, suffix := range variationSuffixes {
		if a == b+suffix || b == a+suffix {
			return true
		}
	}

	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	return strings.HasPrefix(longer, shorter) && len(longer)-len(shorter) <= 3
}
