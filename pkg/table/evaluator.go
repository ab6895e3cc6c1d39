package table

import "pokertable-server/pkg/deck"

// Contender is a player still in the hand when it completes
type Contender struct {
	PlayerID  string
	HoleCards deck.Hand
}

// HandEvaluator settles the pot when a hand completes
// It is invoked once per hand, when the hand completes and before the pot is reset.
// The returned map is player ID -> chips awarded; the amounts must add up to pot or the result is ignored.
// No evaluator ships with the server: without one the pot is discarded when the next hand starts.
type HandEvaluator interface {
	Settle(pot int, community deck.Hand, contenders []Contender) map[string]int
}
