package rng

import (
	"crypto/rand"
	"math/big"
)

// Crypto draws from crypto/rand
// It is the default source for table decks
type Crypto struct{}

// Intn returns a random number in [0, n)
// It panics if n <= 0 or the system source fails
func (Crypto) Intn(n int) int {
	b, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(b.Int64())
}
