package keys

import (
	"fmt"
	"strings"
)

// LastSegment returns the component after the final ':' of an index key.
func LastSegment(key string) (string, error) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 || i == len(key)-1 {
		return "", fmt.Errorf("malformed index key: %q", key)
	}
	return key[i+1:], nil
}

// ParseRetentionIndex extracts the message id from idx:rt:<id>.
func ParseRetentionIndex(key string) (string, error) {
	if !strings.HasPrefix(key, RetentionPrefix) || len(key) == len(RetentionPrefix) {
		return "", fmt.Errorf("invalid retention index key: %q", key)
	}
	return key[len(RetentionPrefix):], nil
}
