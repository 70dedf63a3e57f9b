package secret

import (
	"crypto/rand"
	"fmt"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as the database password and the session signing key.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Well-known keys.
const (
	KeySigningKey    = "signing_key"
	KeyDBPassword    = "db_password"
	KeyMongoPassword = "mongo_password"
)

// Chain reads from each store in order and writes to the last one.
type Chain []SecretStore

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return fmt.Errorf("secret chain is empty")
	}
	return c[len(c)-1].Set(key, value)
}

func (c Chain) Delete(key string) error {
	for _, s := range c {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// EnsureRandom returns the secret under key, generating and storing n random
// bytes the first time.
func EnsureRandom(s SecretStore, key string, n int) ([]byte, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 {
		return v, nil
	}
	v = make([]byte, n)
	if _, err := rand.Read(v); err != nil {
		return nil, fmt.Errorf("generate %s: %w", key, err)
	}
	if err := s.Set(key, v); err != nil {
		return nil, err
	}
	return v, nil
}
