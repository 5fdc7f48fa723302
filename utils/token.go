package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewOpaqueToken returns 32 random bytes hex encoded.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeCompanyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCompanyCode reports whether code is 4-8 uppercase letters or digits.
func ValidCompanyCode(code string) bool {
	if len(code) < 4 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
