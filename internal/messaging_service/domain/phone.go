package domain

import "strings"

// NormalizePhone reduces phone text to its canonical comparable form: digits
// only, with a North American country code "1" removed from 11-digit numbers.
// No numbering-plan validation is done.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// SamePhone reports whether a and b identify the same phone. Inputs without
// any digits never match.
func SamePhone(a, b string) bool {
	na := NormalizePhone(a)
	return na != "" && na == NormalizePhone(b)
}
