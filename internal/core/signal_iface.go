//go:generate go run go.uber.org/mock/mockgen -source=signal_iface.go -destination=../mocks/mock_signal.go -package=mocks
package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is an encoded outbound envelope.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must never block. A full buffer is reported as ErrBackpressure.
	TrySend(Frame) error
	Close()
}
