package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password12":  {},
	"password123": {},
	"passw0rd":    {},
	"wachtwoord":  {},
	"wachtwoord1": {},
	"welkom01":    {},
	"welkom123":   {},
	"welcome1":    {},
	"welcome123":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou1":   {},
	"letmein1":    {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"11111111":    {},
	"00000000":    {},
	"sunshine1":   {},
	"football1":   {},
	"admin123":    {},
}

// CheckPasswordStrength is the generic strength check shared by registration
// and password changes. attributes are personal values (email, names) the
// password must not contain.
func CheckPasswordStrength(password string, attributes ...string) []string {
	var problems []string

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "Password must be at least 8 characters long.")
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, "Password must be at most 72 bytes long.")
	}

	lower := strings.ToLower(password)
	if _, common := commonPasswords[lower]; common {
		problems = append(problems, "This password is too common.")
	}

	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "Password cannot be entirely numeric.")
	}

	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if at := strings.IndexByte(attr, '@'); at > 0 {
			attr = attr[:at]
		}
		if len(attr) >= 4 && strings.Contains(lower, attr) {
			problems = append(problems, "Password is too similar to your personal information.")
			break
		}
	}

	return problems
}

// ValidatePassword applies the generic check plus the character class rules
// required for new staff accounts.
func ValidatePassword(password string, attributes ...string) []string {
	problems := CheckPasswordStrength(password, attributes...)

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter.")
	}
	if !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter.")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one digit.")
	}

	return problems
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
