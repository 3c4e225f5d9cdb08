package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUsername(t *testing.T) {
	req := require.New(t)

	name, err := NewUsername("  alice ")
	req.NoError(err)
	req.Equal(Username("alice"), name)

	_, err = NewUsername("   ")
	req.ErrorIs(err, ErrUsernameEmpty)

	_, err = NewUsername(strings.Repeat("x", MaxUsernameLen+1))
	req.ErrorIs(err, ErrUsernameTooLong)
}

func TestValidRoomCode(t *testing.T) {
	req := require.New(t)
	req.True(ValidRoomCode("AB12CD"))
	req.False(ValidRoomCode(""))
	req.False(ValidRoomCode("ab12cd"))
	req.False(ValidRoomCode("AB-2CD"))
}

func TestMessage_Expired_BoundaryIsRetained(t *testing.T) {
	req := require.New(t)
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := Message{CreatedAt: created}

	req.False(m.Expired(created.Add(10*time.Minute), 10*time.Minute))
	req.True(m.Expired(created.Add(10*time.Minute+time.Nanosecond), 10*time.Minute))
}
