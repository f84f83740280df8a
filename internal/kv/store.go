// Package kv provides the key-value backends that hold the raw JSON
// documents of the attendance tracker. Values are opaque byte slices;
// decoding is the caller's business.
package kv

import (
	"errors"
	"fmt"
	"regexp"
)

// Store is a whole-value key-value store. Writes replace the stored value
// entirely; there are no partial updates.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// ErrInvalidKey is returned for keys that cannot be mapped to a backend name.
var ErrInvalidKey = errors.New("invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
