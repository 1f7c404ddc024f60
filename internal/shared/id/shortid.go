// Package id generates Stripe-style prefixed identifiers exposed through the API.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12
)

const (
	PrefixTenant   = "tnt"
	PrefixUser     = "usr"
	PrefixRole     = "rol"
	PrefixActivity = "act"
)

// Generate creates a cryptographically random Base62 string.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}
	return string(result), nil
}

// GenerateWithPrefix returns "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

func MustGenerateWithPrefix(prefix string, length int) string {
	s, err := GenerateWithPrefix(prefix, length)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidatePrefix checks that prefixedID is "<expected>_<non-empty>".
func ValidatePrefix(prefixedID, expected string) error {
	prefix, rest, ok := strings.Cut(prefixedID, "_")
	if !ok || rest == "" {
		return fmt.Errorf("invalid prefixed ID format: %q", prefixedID)
	}
	if prefix != expected {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expected, prefix)
	}
	return nil
}

func NewTenantID() (string, error)   { return GenerateWithPrefix(PrefixTenant, DefaultLength) }
func NewUserID() (string, error)     { return GenerateWithPrefix(PrefixUser, DefaultLength) }
func NewRoleID() (string, error)     { return GenerateWithPrefix(PrefixRole, DefaultLength) }
func NewActivityID() (string, error) { return GenerateWithPrefix(PrefixActivity, DefaultLength) }
