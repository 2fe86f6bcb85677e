// Package auth checks the shared secret that unlocks management requests.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

// ErrInvalidSecret indicates the presented secret does not match.
var ErrInvalidSecret = errors.New("auth: invalid secret")

// Validator validates secrets presented by clients.
type Validator interface {
	// Validate returns nil when the secret is accepted and ErrInvalidSecret
	// otherwise.
	Validate(ctx context.Context, secret string) error
}

// SecretValidator accepts exactly one configured secret.
type SecretValidator struct {
	secret []byte
}

// NewSecretValidator creates a validator for secret. An empty secret accepts
// nothing.
func NewSecretValidator(secret string) *SecretValidator {
	return &SecretValidator{secret: []byte(secret)}
}

func (v *SecretValidator) Validate(ctx context.Context, secret string) error {
	if len(v.secret) == 0 || secret == "" {
		return ErrInvalidSecret
	}
	if subtle.ConstantTimeCompare(v.secret, []byte(secret)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}
