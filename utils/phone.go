package utils

import (
	"errors"
	"regexp"
)

var (
	phoneSeparators    = regexp.MustCompile(`[\s-]`)
	dutchMobilePattern = regexp.MustCompile(`^(\+31|0031|0)6\d{8}$`)

	ErrInvalidDutchMobile = errors.New("enter a valid Dutch mobile number (e.g. 06-12345678)")
)

// NormalizeDutchMobile accepts 06…, 0031 6… and +31 6… numbers with optional
// spaces or hyphens and returns the canonical +316XXXXXXXX form.
func NormalizeDutchMobile(raw string) (string, error) {
	cleaned := phoneSeparators.ReplaceAllString(raw, "")

	match := dutchMobilePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return "", ErrInvalidDutchMobile
	}

	return "+31" + cleaned[len(match[1]):], nil
}
