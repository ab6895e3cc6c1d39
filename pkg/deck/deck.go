package deck

import (
	"errors"

	"pokertable-server/internal/rng"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrDeckExhausted is returned by Draw once every card has been dealt
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered stack of the 52 distinct cards
// Cards are only ever drawn from the top.
type Deck struct {
	cards []*Card
	next  int
}

// New returns an unshuffled deck, ordered by suit then rank
func New() *Deck {
	cards := make([]*Card, 0, Size)
	for _, suit := range Suits {
		for rank := MinRank; rank <= MaxRank; rank++ {
			cards = append(cards, &Card{Rank: rank, Suit: suit})
		}
	}

	return &Deck{cards: cards}
}

// Shuffled returns a full deck permuted by gen
func Shuffled(gen rng.Generator) *Deck {
	d := New()
	d.Shuffle(gen)
	return d
}

// Shuffle returns every drawn card to the deck and applies a Fisher-Yates shuffle
func (d *Deck) Shuffle(gen rng.Generator) {
	d.next = 0
	for j := len(d.cards) - 1; j > 0; j-- {
		i := gen.Intn(j + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card
func (d *Deck) Draw() (*Card, error) {
	if d.next >= len(d.cards) {
		return nil, ErrDeckExhausted
	}

	card := d.cards[d.next]
	d.next++

	return card, nil
}

// CanDraw returns true if at least want cards remain
func (d *Deck) CanDraw(want int) bool {
	return d.CardsLeft() >= want
}

// CardsLeft returns the number of cards that can still be drawn
func (d *Deck) CardsLeft() int {
	return len(d.cards) - d.next
}

// Remaining returns the undrawn cards, top first
func (d *Deck) Remaining() Hand {
	return Hand(d.cards[d.next:]).Clone()
}
