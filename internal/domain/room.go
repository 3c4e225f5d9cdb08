package domain

import (
	"errors"
	"strings"
)

const (
	// RoomCodeAlphabet is the 36-symbol alphabet room codes are drawn from.
	RoomCodeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultRoomCodeLength = 6
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrDuplicateRoomCode = errors.New("duplicate room code")
)

type RoomCode string

// NormalizeRoomCode trims a user supplied code. Codes are compared verbatim
// afterwards, so "abc123" never matches "ABC123".
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.TrimSpace(raw))
}

// ValidRoomCode reports whether every symbol of code belongs to the alphabet.
func ValidRoomCode(code RoomCode) bool {
	if code == "" {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, c) {
			return false
		}
	}
	return true
}
