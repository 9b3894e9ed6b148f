package storage

import (
	"fmt"
	"strings"
)

const maxKeyLength = 200

// ValidateKey checks that key can be used by every backend, including the
// file and object backends where it becomes part of a path.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("storage key exceeds %d bytes", maxKeyLength)
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("storage key %q contains a path separator", key)
	}
	return nil
}
