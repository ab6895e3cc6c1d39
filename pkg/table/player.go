package table

import (
	"time"

	"pokertable-server/pkg/deck"
)

// Player is a seat at a table
// The ID never changes; the connection bound to the seat does
type Player struct {
	ID          string
	DisplayName string

	stack     int
	holeCards deck.Hand
	roundBet  int
	committed int

	// acted is set once the player has acted in the current betting round
	acted bool

	isActive    bool
	isConnected bool
	sittingOut  bool
	lastSeenAt  time.Time

	connectionID string
}

// PlayerView is the public representation of a player
// HoleCards is only populated for the player the view was built for
type PlayerView struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Stack       int       `json:"stack"`
	RoundBet    int       `json:"roundBet"`
	Committed   int       `json:"committed"`
	CardCount   int       `json:"cardCount"`
	HoleCards   deck.Hand `json:"holeCards"`
	IsActive    bool      `json:"isActive"`
	IsConnected bool      `json:"isConnected"`
	SittingOut  bool      `json:"sittingOut"`
	IsHost      bool      `json:"isHost"`
	IsDealer    bool      `json:"isDealer"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func newPlayer(id, displayName string, stack int, now time.Time) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
		stack:       stack,
		holeCards:   make(deck.Hand, 0, 2),
		isConnected: true,
		lastSeenAt:  now,
	}
}

// canAct is true if the player may hold the turn
func (p *Player) canAct() bool {
	return p.isActive && p.isConnected
}

// eligible is true if the player should be dealt into the next hand
func (p *Player) eligible() bool {
	return p.isConnected && !p.sittingOut
}

// commit moves chips from the stack into the current round
func (p *Player) commit(amount int) {
	p.stack -= amount
	p.roundBet += amount
	p.committed += amount
}

func (p *Player) resetForHand(dealtIn bool) {
	p.holeCards = make(deck.Hand, 0, 2)
	p.roundBet = 0
	p.committed = 0
	p.acted = false
	p.isActive = dealtIn
}

func (p *Player) view(reveal bool) *PlayerView {
	v := &PlayerView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Stack:       p.stack,
		RoundBet:    p.roundBet,
		Committed:   p.committed,
		CardCount:   len(p.holeCards),
		IsActive:    p.isActive,
		IsConnected: p.isConnected,
		SittingOut:  p.sittingOut,
		LastSeenAt:  p.lastSeenAt,
	}

	if reveal {
		v.HoleCards = p.holeCards.Clone()
	}

	return v
}
