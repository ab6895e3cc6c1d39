package deck

import "strings"

// Hand is an ordered collection of cards
type Hand []*Card

// AddCard appends a card
func (h *Hand) AddCard(card *Card) {
	*h = append(*h, card)
}

// HasCard returns true if an equal card is in the hand
func (h Hand) HasCard(card *Card) bool {
	for _, c := range h {
		if c.Equal(card) {
			return true
		}
	}

	return false
}

// String renders the hand as space separated glyphs, e.g. "A♠ 10♥"
func (h Hand) String() string {
	s := make([]string, len(h))
	for i, c := range h {
		s[i] = c.String()
	}

	return strings.Join(s, " ")
}

// Clone returns a copy that can be appended to without touching h
// Cards are immutable so they are shared.
func (h Hand) Clone() Hand {
	h2 := make(Hand, len(h))
	copy(h2, h)

	return h2
}
