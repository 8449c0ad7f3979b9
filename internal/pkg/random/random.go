// Package random generates credentials from a cryptographically secure
// source.
package random

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// GeneratePassword returns an alphanumeric password of the given length.
// The alphabet is restricted to [A-Za-z0-9] so the result never needs SQL
// escaping.
func GeneratePassword(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("password length must be at least 1, got %d", length)
	}

	digits := length / 4
	if digits > 10 {
		digits = 10
	}

	return password.Generate(length, digits, 0, false, true)
}
