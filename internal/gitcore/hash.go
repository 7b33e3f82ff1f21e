package gitcore

import (
	"encoding/hex"
	"fmt"
)

// Hash represents a Git object hash.
type Hash string

// NewHash creates a Hash from a hexadecimal string, validating its format.
func NewHash(s string) (Hash, error) {
	if len(s) != 40 {
		return "", fmt.Errorf("invalid hash length: %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid hash: %w", err)
	}
	return Hash(s), nil
}

// IsValid checks if the hash has a valid format (40 hex characters for SHA-1).
func (h Hash) IsValid() bool {
	if len(string(h)) != 40 {
		return false
	}
	_, err := hex.DecodeString(string(h))
	return err == nil
}

// Short returns the abbreviated 7 character form used in log messages.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h[:7])
}

func (h Hash) String() string {
	return string(h)
}
