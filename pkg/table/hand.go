package table

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"pokertable-server/pkg/deck"
)

const (
	holeCardCount      = 2
	communityCardCount = 5
)

// ActionResult describes the transitions caused by an action
type ActionResult struct {
	Phase       Phase `json:"phase"`
	RoundClosed bool  `json:"roundClosed"`
	HandStarted bool  `json:"handStarted"`
}

// StartHand deals a new hand
// Only the host may start a hand, and only from the lobby or after a completed hand
func (t *Table) StartHand(connectionID string) error {
	return t.mutate(func() error {
		p := t.playerByConnection(connectionID)
		if p == nil {
			return ErrNotSeated
		}

		if p.ID != t.hostPlayerID {
			return ErrNotHost
		}

		if t.phase != PhaseLobby && t.phase != PhaseHandComplete {
			return ErrHandInProgress
		}

		if err := t.startHand(); err != nil {
			return err
		}

		t.touch()
		return nil
	})
}

// ApplyAction applies a betting action for the player bound to connectionID
// The action is applied in full or not at all
func (t *Table) ApplyAction(connectionID string, action Action, amount int) (*ActionResult, error) {
	var result *ActionResult
	err := t.mutate(func() error {
		p := t.playerByConnection(connectionID)
		if p == nil || !t.phase.IsBettingRound() || t.turn != p || !p.canAct() {
			return ErrNotYourTurn
		}

		chips := 0
		switch action {
		case Fold:
		case Check:
			if t.currentBet != p.roundBet {
				return ErrIllegalCheck
			}
		case Call:
			chips = t.currentBet - p.roundBet
			if chips > p.stack {
				return ErrInsufficientChips
			}
		case Bet, Raise:
			if amount > p.stack {
				return ErrInsufficientChips
			}

			if amount <= 0 || (t.currentBet > 0 && amount < t.currentBet*2) {
				return ErrIllegalRaise
			}

			chips = amount
		default:
			return fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}

		if action == Fold {
			p.isActive = false
		}

		if chips > 0 {
			p.commit(chips)
			t.pot += chips
			if p.roundBet > t.currentBet {
				t.currentBet = p.roundBet
			}
		}

		p.acted = true
		t.actedCount++
		t.lastAction = &LastAction{
			PlayerID: p.ID,
			Action:   action,
			Amount:   chips,
			Time:     t.clock.Now(),
		}
		t.addLog(p.ID, "{} %s", action.LogMessage(chips))
		t.touch()

		result = &ActionResult{}
		if err := t.advance(result, true); err != nil {
			return err
		}

		result.Phase = t.phase
		return nil
	})

	return result, err
}

// startHand shuffles, rotates the dealer and deals hole cards to every eligible player
// NOTE: must be called with the table lock held
func (t *Table) startHand() error {
	if t.eligibleCount() < 2 {
		return ErrNotEnoughPlayers
	}

	t.deck = deck.Shuffled(t.opts.RNG)
	t.community = make(deck.Hand, 0, communityCardCount)
	t.undealt = make(deck.Hand, 0, communityCardCount)
	for _, p := range t.seats {
		p.resetForHand(p.eligible())
	}

	t.dealer = t.nextDealer()

	for i := 0; i < holeCardCount; i++ {
		for _, p := range t.seats {
			if !p.isActive {
				continue
			}

			card, err := t.deck.Draw()
			if err != nil {
				return fmt.Errorf("dealing hole cards: %w", err)
			}

			p.holeCards.AddCard(card)
		}
	}

	for i := 0; i < communityCardCount; i++ {
		card, err := t.deck.Draw()
		if err != nil {
			return fmt.Errorf("dealing community cards: %w", err)
		}

		t.undealt.AddCard(card)
	}

	t.pot = 0
	t.currentBet = 0
	t.actedCount = 0
	t.lastAction = nil
	t.phase = PhasePreFlop
	t.handNumber++

	t.turn = t.nextActionableAfter(t.dealer)
	if t.turn == nil {
		return ErrNoActivePlayer
	}

	t.addLog(t.dealer.ID, "{} is dealing hand #%d", t.handNumber)

	t.log.WithFields(logrus.Fields{
		"hand":   t.handNumber,
		"dealer": t.dealer.ID,
	}).Info("hand started")

	return nil
}

// nextDealer moves the dealer button to the next dealt-in seat
// On the first hand the button starts on the last dealt-in seat, so the first seat acts first.
func (t *Table) nextDealer() *Player {
	n := len(t.seats)
	if t.dealer == nil {
		for i := n - 1; i >= 0; i-- {
			if t.seats[i].isActive {
				return t.seats[i]
			}
		}

		return nil
	}

	from := t.seatIndex(t.dealer)
	for i := 1; i <= n; i++ {
		if p := t.seats[(from+i)%n]; p.isActive {
			return p
		}
	}

	return nil
}

// advance moves the hand forward after its state changed
// If moveTurn is set and the round is still open, the turn passes to the next actionable player.
func (t *Table) advance(result *ActionResult, moveTurn bool) error {
	if t.activeCount() < 2 || len(t.actionable()) == 0 {
		return t.completeHand(result)
	}

	if t.bettingRoundComplete() {
		return t.closeBettingRound(result)
	}

	if !moveTurn {
		return nil
	}

	next := t.nextActionableAfter(t.turn)
	if next == nil {
		return ErrNoActivePlayer
	}

	t.turn = next
	return nil
}

// bettingRoundComplete is true once every actionable player has acted and matched the current bet
// Folded and disconnected players are not waited on.
func (t *Table) bettingRoundComplete() bool {
	for _, p := range t.actionable() {
		if !p.acted || p.roundBet != t.currentBet {
			return false
		}
	}

	return true
}

func (t *Table) closeBettingRound(result *ActionResult) error {
	result.RoundClosed = true

	t.resetBettingRound()

	var reveal int
	switch t.phase {
	case PhasePreFlop:
		reveal = 3
	case PhaseFlop, PhaseTurn:
		reveal = 1
	case PhaseRiver:
		return t.completeHand(result)
	default:
		return fmt.Errorf("cannot close a betting round in phase %s", t.phase)
	}

	if err := t.revealCommunity(reveal); err != nil {
		return err
	}

	t.phase++
	t.addLog("", "the %s: %s", t.phase, t.community)

	t.turn = t.nextActionableAfter(t.dealer)
	if t.turn == nil {
		return ErrNoActivePlayer
	}

	return nil
}

func (t *Table) resetBettingRound() {
	t.actedCount = 0
	t.currentBet = 0
	for _, p := range t.seats {
		p.roundBet = 0
		p.acted = false
	}
}

func (t *Table) revealCommunity(count int) error {
	if len(t.undealt) < count {
		return fmt.Errorf("revealing %d community cards: %w", count, deck.ErrDeckExhausted)
	}

	t.community = append(t.community, t.undealt[:count]...)
	t.undealt = t.undealt[count:]
	return nil
}

// completeHand ends the hand and, with enough eligible players, deals the next one
func (t *Table) completeHand(result *ActionResult) error {
	t.phase = PhaseHandComplete
	t.turn = nil
	t.resetBettingRound()

	t.settle()

	t.addLog("", "hand #%d is complete", t.handNumber)
	t.log.WithField("hand", t.handNumber).Info("hand complete")

	if t.eligibleCount() < 2 {
		return nil
	}

	if err := t.startHand(); err != nil {
		return err
	}

	result.HandStarted = true
	return nil
}

// settle distributes the pot when a HandEvaluator is configured
// An evaluator result that does not account for the whole pot is discarded.
func (t *Table) settle() {
	if t.opts.Evaluator == nil || t.pot == 0 {
		return
	}

	contenders := make([]Contender, 0, len(t.seats))
	for _, p := range t.seats {
		if p.isActive {
			contenders = append(contenders, Contender{
				PlayerID:  p.ID,
				HoleCards: p.holeCards.Clone(),
			})
		}
	}

	awards := t.opts.Evaluator.Settle(t.pot, t.community.Clone(), contenders)

	total := 0
	for id, amount := range awards {
		if _, ok := t.players[id]; !ok || amount < 0 {
			t.log.WithField("player", id).Error("hand evaluator awarded an unknown player")
			return
		}

		total += amount
	}

	if total != t.pot {
		t.log.WithFields(logrus.Fields{
			"pot":     t.pot,
			"awarded": total,
		}).Error("hand evaluator did not settle the full pot")
		return
	}

	for id, amount := range awards {
		t.players[id].stack += amount
		if amount > 0 {
			t.addLog(id, "{} won ${%d}", amount)
		}
	}

	for _, p := range t.seats {
		p.committed = 0
	}
	t.pot = 0
}
