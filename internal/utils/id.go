package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// ShortID trims an identifier to at most n characters for display.
func ShortID(id string, n int) string {
	if n <= 0 {
		return ""
	}
	if r := []rune(id); len(r) > n {
		return string(r[:n])
	}
	return strings.Clone(id)
}
