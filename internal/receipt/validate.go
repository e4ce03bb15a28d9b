package receipt

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+$`)
	// E.164-ish: optional +, 2–15 digits, no leading zero.
	phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{1,14}$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s looks like a phone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
