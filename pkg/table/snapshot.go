package table

import (
	"time"

	"pokertable-server/pkg/deck"
)

// Snapshot is a view of the table for a single viewer
// Only the viewer's own hole cards are ever included.
type Snapshot struct {
	TableID        string        `json:"tableId"`
	PlayerID       string        `json:"playerId,omitempty"`
	Phase          Phase         `json:"phase"`
	HandNumber     int           `json:"handNumber"`
	HostID         string        `json:"hostId"`
	DealerID       string        `json:"dealerId"`
	CurrentTurn    string        `json:"currentTurn"`
	Pot            int           `json:"pot"`
	CurrentBet     int           `json:"currentBet"`
	Community      deck.Hand     `json:"community"`
	Players        []*PlayerView `json:"players"`
	Actions        []Action      `json:"actions"`
	LastAction     *LastAction   `json:"lastAction"`
	Logs           []*LogMessage `json:"logs"`
	LastActivityAt time.Time     `json:"lastActivityAt"`
}

// Summary is used when listing tables
type Summary struct {
	ID             string    `json:"id"`
	Phase          Phase     `json:"phase"`
	HandNumber     int       `json:"handNumber"`
	Players        int       `json:"players"`
	Connected      int       `json:"connected"`
	MaxPlayers     int       `json:"maxPlayers"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// Snapshot returns the table as seen by the player bound to connectionID
// An unknown connection gets the public view.
func (t *Table) Snapshot(connectionID string) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotFor(t.playerByConnection(connectionID))
}

// PublicSnapshot returns the table as seen by a spectator
func (t *Table) PublicSnapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotFor(nil)
}

// Summary returns a short description of the table
func (t *Table) Summary() *Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return &Summary{
		ID:             t.id,
		Phase:          t.phase,
		HandNumber:     t.handNumber,
		Players:        len(t.seats),
		Connected:      t.connectedCount(),
		MaxPlayers:     t.opts.MaxPlayers,
		LastActivityAt: t.lastActivityAt,
	}
}

// NOTE: must be called with the table lock held
func (t *Table) snapshotFor(viewer *Player) *Snapshot {
	players := make([]*PlayerView, len(t.seats))
	for i, p := range t.seats {
		v := p.view(viewer != nil && p == viewer)
		v.IsHost = p.ID == t.hostPlayerID
		v.IsDealer = t.dealer != nil && p == t.dealer
		players[i] = v
	}

	logs := make([]*LogMessage, len(t.logMessages))
	copy(logs, t.logMessages)

	snap := &Snapshot{
		TableID:        t.id,
		Phase:          t.phase,
		HandNumber:     t.handNumber,
		HostID:         t.hostPlayerID,
		Pot:            t.pot,
		CurrentBet:     t.currentBet,
		Community:      t.community.Clone(),
		Players:        players,
		Actions:        t.actionsFor(viewer),
		Logs:           logs,
		LastActivityAt: t.lastActivityAt,
	}

	if viewer != nil {
		snap.PlayerID = viewer.ID
	}

	if t.dealer != nil {
		snap.DealerID = t.dealer.ID
	}

	if t.turn != nil {
		snap.CurrentTurn = t.turn.ID
	}

	if t.lastAction != nil {
		la := *t.lastAction
		snap.LastAction = &la
	}

	return snap
}

// actionsFor returns the actions the player may legally take right now
func (t *Table) actionsFor(p *Player) []Action {
	actions := make([]Action, 0, 4)
	if p == nil || p != t.turn || !t.phase.IsBettingRound() || !p.canAct() {
		return actions
	}

	due := t.currentBet - p.roundBet
	if due == 0 {
		actions = append(actions, Check)
	} else if due <= p.stack {
		actions = append(actions, Call)
	}

	if t.currentBet == 0 {
		if p.stack > 0 {
			actions = append(actions, Bet)
		}
	} else if p.stack >= t.currentBet*2 {
		actions = append(actions, Raise)
	}

	return append(actions, Fold)
}
