package rng

// Generator provides random numbers for shuffling
// *math/rand.Rand satisfies this interface, which makes seeded decks easy to build in tests
type Generator interface {
	// Intn will return a random number in [0, n)
	Intn(n int) int
}
