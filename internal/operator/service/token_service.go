// Package service provides operator token generation and hashing.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/newsletter/internal/errors"
)

// TokenService creates and hashes operator bearer tokens.
type TokenService interface {
	// GenerateToken returns a random URL-safe token and its hash.
	GenerateToken() (plainToken string, tokenHash string, err error)
	// HashToken returns the hex SHA-256 of a plain token.
	HashToken(plainToken string) string
}

type tokenService struct{}

// NewTokenService creates a TokenService backed by SHA-256.
func NewTokenService() TokenService {
	return &tokenService{}
}

func (t *tokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}
	plainToken := base64.RawURLEncoding.EncodeToString(randomBytes)
	return plainToken, t.HashToken(plainToken), nil
}

func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
