package app

import (
	"crypto/rand"
	"math/big"

	"github.com/dkeye/Relay/internal/domain"
)

// CodeGenerator produces a candidate room code of the given length.
// Uniqueness is the store's job, not the generator's.
type CodeGenerator func(length int) domain.RoomCode

var alphabetSize = big.NewInt(int64(len(domain.RoomCodeAlphabet)))

// RandomCode draws each symbol uniformly from domain.RoomCodeAlphabet.
func RandomCode(length int) domain.RoomCode {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf[i] = domain.RoomCodeAlphabet[n.Int64()]
	}
	return domain.RoomCode(buf)
}
