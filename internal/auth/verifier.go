// Package auth checks the shared admin secret.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier compares a presented password against the configured admin
// secret. A bcrypt hash takes precedence over a plain secret.
type Verifier struct {
	plain []byte
	hash  []byte
}

// NewVerifier builds a Verifier from a plain secret and/or a bcrypt hash.
func NewVerifier(plain, hash string) (*Verifier, error) {
	hash = strings.TrimSpace(hash)
	if plain == "" && hash == "" {
		return nil, fmt.Errorf("admin secret is not configured")
	}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("parse admin password hash: %w", err)
		}
	}
	return &Verifier{plain: []byte(plain), hash: []byte(hash)}, nil
}

// Check reports whether password matches. Empty passwords never match.
func (v *Verifier) Check(password string) bool {
	if password == "" {
		return false
	}
	if len(v.hash) > 0 {
		return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare(v.plain, []byte(password)) == 1
}
