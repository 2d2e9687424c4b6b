package normalize

import "strings"

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ComparableDigits reduces a phone number to the form used for matching:
// digits only, with the NANP country code dropped from 11-digit numbers, so
// "+1 (555) 123-4567", "15551234567" and "555-123-4567" compare equal.
func ComparableDigits(s string) string {
	d := Digits(s)
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}

// PhoneNumber renders an E.164-like string: "+" and digits, with "+1" added
// to bare 10-digit numbers. Values without digits (SIP URIs, client names)
// are returned unchanged.
func PhoneNumber(s string) string {
	d := Digits(s)
	switch {
	case d == "":
		return strings.TrimSpace(s)
	case len(d) == 10:
		return "+1" + d
	default:
		return "+" + d
	}
}
