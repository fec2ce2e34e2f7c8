package invitecode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// Length is the fixed size of every invite code
const Length = 8

// alphabet excludes nothing; codes are plain uppercase alphanumerics so they
// survive being read aloud or typed from a flyer
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxAttempts bounds GenerateUnique's retry loop
const maxAttempts = 10

// ErrExhausted is returned when GenerateUnique cannot find a free code
var ErrExhausted = errors.New("could not generate a unique invite code")

// Generate returns an 8-character uppercase alphanumeric code. The generator
// itself does not check for collisions; callers that need uniqueness use
// GenerateUnique against their store.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// GenerateUnique draws codes until exists reports the code as unused.
// The exists check is an optimistic pre-check; the store's unique index on
// the code column remains the authoritative guard.
func GenerateUnique(exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Matches compares a user-supplied code against the stored one,
// case-insensitively.
func Matches(stored, provided string) bool {
	return stored != "" && strings.EqualFold(stored, provided)
}
