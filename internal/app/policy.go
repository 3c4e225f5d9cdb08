package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

type Policy interface {
	OnBackPressure(room domain.RoomCode, member core.MemberSession) BackpressureAction
}

// DropPolicy loses the frame for the slow member and keeps it connected.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomCode, core.MemberSession) BackpressureAction {
	return DropFrame
}

// DisconnectPolicy closes the session of a member that cannot keep up.
type DisconnectPolicy struct{}

func (DisconnectPolicy) OnBackPressure(domain.RoomCode, core.MemberSession) BackpressureAction {
	return KickMember
}

// PolicyByName maps the "backpressure" config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "disconnect":
		return DisconnectPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
