// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// Username is the only identity a participant has. Two sessions using the
// same string are the same participant as far as rooms are concerned.
type Username string

// NewUsername trims surrounding whitespace and enforces length bounds.
func NewUsername(raw string) (Username, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return Username(name), nil
}
