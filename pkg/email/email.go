// Package email holds the address helpers shared by registration and the
// stores: normalization, syntactic validation, and name derivation for
// members registered without an explicit name.
package email

import (
	"regexp"
	"strings"
	"unicode"
)

var addressRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Normalize lowercases and trims an address. Stores index on the normalized
// form, so every lookup and save goes through here first.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValid reports whether s looks like an address. Deliverability is not
// checked.
func IsValid(s string) bool {
	return addressRe.MatchString(s)
}

// DeriveName guesses a first and last name from the local part, for members
// registered by email alone. "marie.dupont@x.org" gives ("Marie", "Dupont").
func DeriveName(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Membre", ""
	}

	first := capitalize(parts[0])
	last := ""
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
