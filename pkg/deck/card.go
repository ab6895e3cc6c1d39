package deck

import "strconv"

// Suit represents a card suit
type Suit string

// suit constants
const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

// Suits is every suit in deck-building order
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Symbol returns the suit glyph
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	}

	return "?"
}

// Card is an individual playing card
// Cards are never mutated once a deck is built
type Card struct {
	Rank int  `json:"rank"`
	Suit Suit `json:"suit"`
}

// face cards
const (
	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14
)

// rank bounds
const (
	MinRank = 2
	MaxRank = Ace
)

var faces = map[int]string{
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (c *Card) String() string {
	rank, ok := faces[c.Rank]
	if !ok {
		rank = strconv.Itoa(c.Rank)
	}

	return rank + c.Suit.Symbol()
}

// Equal returns true if the cards match suit and rank
func (c *Card) Equal(card *Card) bool {
	return c.Suit == card.Suit && c.Rank == card.Rank
}
