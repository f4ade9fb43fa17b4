// Package password holds the account password policy and bcrypt hashing.
package password

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor applied to every new hash.
const Cost = 10

const (
	minLength = 8
	specials  = "@$!%*?#&_"
)

// ErrTooLong is returned when the password exceeds bcrypt's 72-byte input limit.
var ErrTooLong = errors.New("password: longer than 72 bytes")

// ValidateStrength reports whether p has at least eight characters and at
// least one lowercase letter, uppercase letter, digit and one of @$!%*?#&_.
func ValidateStrength(p string) bool {
	if utf8.RuneCountInString(p) < minLength {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// Hash returns a salted bcrypt hash of p.
func Hash(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		return "", err
	}
	return string(hash), nil
}

// Verify compares p against hash. A plain mismatch is (false, nil); a hash
// that cannot be parsed is reported as an error.
func Verify(p, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(p))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
