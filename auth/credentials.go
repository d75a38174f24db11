package auth

import (
	"crypto/subtle"

	"journal/crypto"
)

// Credentials is the one identity allowed into the journal. PasswordHash is
// a bcrypt or Argon2id hash, never a plaintext password.
type Credentials struct {
	Username     string
	PasswordHash string
}

// CredentialSource supplies the configured identity. It is consulted on
// every check so a source may rotate credentials.
type CredentialSource interface {
	Lookup() Credentials
}

func (c Credentials) Lookup() Credentials {
	return c
}

type Checker struct {
	source CredentialSource
}

func NewChecker(source CredentialSource) *Checker {
	return &Checker{source: source}
}

// Check reports whether username and password match the configured
// identity. Unusable hashes count as a mismatch.
func (c *Checker) Check(username, password string) bool {
	stored := c.source.Lookup()
	if stored.Username == "" || stored.PasswordHash == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(stored.Username)) != 1 {
		return false
	}
	ok, err := crypto.VerifyPassword(password, stored.PasswordHash)
	if err != nil {
		return false
	}
	return ok
}
