package table

import (
	"strings"
	"unicode/utf8"
)

const maxDisplayNameLength = 32

// Join seats a new player bound to connectionID
// The first player to join a table becomes its host. Players joining during a hand sit out until the next one.
func (t *Table) Join(connectionID, displayName string) (*Snapshot, error) {
	displayName = strings.TrimSpace(displayName)

	var snap *Snapshot
	err := t.mutate(func() error {
		if _, ok := t.connections[connectionID]; ok {
			return ErrAlreadySeated
		}

		if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameLength {
			return ErrInvalidName
		}

		if len(t.seats) >= t.opts.MaxPlayers {
			return ErrTableFull
		}

		for _, p := range t.seats {
			if p.isConnected && p.DisplayName == displayName {
				return ErrNameTaken
			}
		}

		p := newPlayer(t.opts.NewPlayerID(), displayName, t.opts.StartingStack, t.clock.Now())
		p.connectionID = connectionID
		t.seats = append(t.seats, p)
		t.players[p.ID] = p
		t.connections[connectionID] = p.ID

		if t.hostPlayerID == "" {
			t.hostPlayerID = p.ID
		}

		t.addLog(p.ID, "{} joined the table")
		t.touch()

		t.log.WithField("player", p.ID).Info("player joined")

		snap = t.snapshotFor(p)
		return nil
	})

	return snap, err
}

// Disconnect unbinds the connection from its seat
// The seat is kept. Outside of the lobby a grace timer starts, after which the player is folded and sat out.
// The table is torn down once no player is connected.
func (t *Table) Disconnect(connectionID string) error {
	return t.mutate(func() error {
		p := t.playerByConnection(connectionID)
		if p == nil {
			return ErrNotSeated
		}

		delete(t.connections, connectionID)
		p.connectionID = ""
		p.isConnected = false
		p.lastSeenAt = t.clock.Now()

		t.addLog(p.ID, "{} disconnected")
		t.touch()

		t.log.WithField("player", p.ID).Info("player disconnected")

		if t.connectedCount() == 0 {
			t.closeLocked(ErrNoConnectedPlayers)
			return nil
		}

		if t.phase != PhaseLobby {
			t.startGraceTimer(p)
		}

		if t.opts.ReassignHost && p.ID == t.hostPlayerID {
			t.reassignHost(p)
		}

		if t.phase.IsBettingRound() {
			return t.advance(&ActionResult{}, t.turn == p)
		}

		return nil
	})
}

// Reconnect rebinds a disconnected seat with the exact display name to connectionID
func (t *Table) Reconnect(connectionID, displayName string) (*Snapshot, error) {
	var snap *Snapshot
	err := t.mutate(func() error {
		if _, ok := t.connections[connectionID]; ok {
			return ErrAlreadySeated
		}

		var found *Player
		for _, p := range t.seats {
			if p.DisplayName != displayName {
				continue
			}

			if p.isConnected {
				return ErrPlayerNotFound
			}

			if found == nil {
				found = p
			}
		}

		if found == nil {
			return ErrPlayerNotFound
		}

		t.stopGraceTimer(found.ID)

		found.connectionID = connectionID
		found.isConnected = true
		found.sittingOut = false
		found.lastSeenAt = t.clock.Now()
		t.connections[connectionID] = found.ID

		t.addLog(found.ID, "{} reconnected")
		t.touch()

		t.log.WithField("player", found.ID).Info("player reconnected")

		snap = t.snapshotFor(found)
		return nil
	})

	return snap, err
}

// reassignHost hands host privileges to the next connected seat after p
func (t *Table) reassignHost(p *Player) {
	n := len(t.seats)
	from := t.seatIndex(p)
	for i := 1; i < n; i++ {
		if next := t.seats[(from+i)%n]; next.isConnected {
			t.hostPlayerID = next.ID
			t.addLog(next.ID, "{} is now the host")
			return
		}
	}
}

func (t *Table) startGraceTimer(p *Player) {
	t.stopGraceTimer(p.ID)

	t.graceGeneration++
	generation := t.graceGeneration
	playerID := p.ID

	timer := t.clock.AfterFunc(t.opts.DisconnectGrace, func() {
		t.graceExpired(playerID, generation)
	})

	t.graceTimers[playerID] = &graceTimer{
		timer:      timer,
		generation: generation,
	}
}

func (t *Table) stopGraceTimer(playerID string) {
	if gt, ok := t.graceTimers[playerID]; ok {
		gt.timer.Stop()
		delete(t.graceTimers, playerID)
	}
}

// graceExpired folds a player that has not reconnected and sits them out
// A timer that was superseded by a reconnect or another disconnect is ignored.
func (t *Table) graceExpired(playerID string, generation int) {
	changed := false
	_ = t.mutate(func() error {
		gt, ok := t.graceTimers[playerID]
		if !ok || gt.generation != generation {
			return nil
		}

		delete(t.graceTimers, playerID)

		p, ok := t.players[playerID]
		if !ok || p.isConnected {
			return nil
		}

		changed = true
		p.sittingOut = true
		t.addLog(p.ID, "{} is sitting out")

		t.log.WithField("player", p.ID).Info("disconnect grace expired")

		if !p.isActive || !t.phase.IsBettingRound() {
			return nil
		}

		p.isActive = false
		t.lastAction = &LastAction{
			PlayerID: p.ID,
			Action:   Fold,
			Time:     t.clock.Now(),
		}
		t.addLog(p.ID, "{} %s", Fold.LogMessage(0))

		return t.advance(&ActionResult{}, false)
	})

	if changed && !t.IsClosed() && t.listener != nil {
		t.listener.TableChanged(t)
	}
}
