package textsource

import "unicode"

// suspectCorruption flags text dominated by encoding damage: replacement
// runes, stray control characters, or almost no letters at all. The flag is a
// reliability indicator for downstream confidence handling, not a rejection.
func suspectCorruption(s string) bool {
	if len(s) == 0 {
		return true
	}
	var total, letters, bad int
	for _, r := range s {
		total++
		switch {
		case r == unicode.ReplacementChar:
			bad++
		case r < 0x20 && r != '\n' && r != '\f':
			bad++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			letters++
		}
	}
	if total < 40 {
		// too short to be a real application page
		return true
	}
	if float64(bad)/float64(total) > 0.05 {
		return true
	}
	return float64(letters)/float64(total) < 0.30
}
