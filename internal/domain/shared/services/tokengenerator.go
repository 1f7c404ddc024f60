package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenGenerator issues the opaque tokens a tenant publishes in DNS to prove
// ownership of a custom domain.
type TokenGenerator interface {
	GenerateDomainToken() (string, error)
}

type DefaultTokenGenerator struct{}

func NewTokenGenerator() TokenGenerator {
	return &DefaultTokenGenerator{}
}

func (g *DefaultTokenGenerator) GenerateDomainToken() (string, error) {
	tokenBytes := make([]byte, 24)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return "spendwise-verify=" + base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}
