package auth

import (
	"strings"
	"unicode"
)

// PasswordPolicyError lists the password rules that were not met.
type PasswordPolicyError struct {
	Problems []string
}

func (e *PasswordPolicyError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// ValidatePassword checks a password against the account policy:
// at least 10 characters with an uppercase letter, a lowercase letter
// and a digit.
func ValidatePassword(password string) error {
	var problems []string

	if len(password) < 10 {
		problems = append(problems, "password must be at least 10 characters")
	}

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
		problems = append(problems, "password must contain an uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "password must contain a digit")
	}

	if len(problems) > 0 {
		return &PasswordPolicyError{Problems: problems}
	}
	return nil
}
