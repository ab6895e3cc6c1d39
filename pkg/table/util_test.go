package table

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type recordingListener struct {
	lock    sync.Mutex
	changed int
	closed  []error
}

func (r *recordingListener) TableChanged(t *Table) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.changed++
}

func (r *recordingListener) TableClosed(t *Table, reason error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.closed = append(r.closed, reason)
}

func (r *recordingListener) changedCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.changed
}

func (r *recordingListener) closedReasons() []error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]error(nil), r.closed...)
}

func testOptions() (Options, *clock.Mock) {
	mock := clock.NewMock()
	logger, _ := test.NewNullLogger()

	id := 0
	opts := DefaultOptions()
	opts.Clock = mock
	opts.RNG = rand.New(rand.NewSource(1))
	opts.Logger = logger
	opts.NewPlayerID = func() string {
		id++
		return fmt.Sprintf("p%d", id)
	}

	return opts, mock
}

func newTestTable(t *testing.T, modify ...func(o *Options)) (*Table, *clock.Mock, *recordingListener) {
	t.Helper()

	opts, mock := testOptions()
	for _, fn := range modify {
		fn(&opts)
	}

	l := &recordingListener{}
	return New("test", opts, l), mock, l
}

// seat joins each name on connection "c-<name>"
func seat(t *testing.T, tbl *Table, names ...string) {
	t.Helper()

	for _, name := range names {
		_, err := tbl.Join("c-"+name, name)
		if !assert.NoError(t, err, name) {
			t.FailNow()
		}
	}
}

func createExecFunctions(t *testing.T, tbl *Table) (func(name string, a Action, amount int) *ActionResult, func(name string, a Action, amount int, expected error)) {
	execOK := func(name string, a Action, amount int) *ActionResult {
		t.Helper()

		result, err := tbl.ApplyAction("c-"+name, a, amount)
		if !assert.NoError(t, err, "%s %s %d", name, a, amount) {
			t.FailNow()
		}

		assertInvariants(t, tbl)
		return result
	}

	execError := func(name string, a Action, amount int, expected error) {
		t.Helper()

		before := tbl.PublicSnapshot()
		result, err := tbl.ApplyAction("c-"+name, a, amount)
		assert.ErrorIs(t, err, expected, "%s %s %d", name, a, amount)
		assert.Nil(t, result)

		after := tbl.PublicSnapshot()
		assert.Equal(t, before.Pot, after.Pot)
		assert.Equal(t, before.CurrentBet, after.CurrentBet)
		assert.Equal(t, before.CurrentTurn, after.CurrentTurn)
		assert.Equal(t, before.Phase, after.Phase)
	}

	return execOK, execError
}

// assertInvariants checks the invariants that must hold between operations
func assertInvariants(t *testing.T, tbl *Table) {
	t.Helper()

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	a := assert.New(t)

	committed := 0
	for _, p := range tbl.seats {
		committed += p.committed
		a.GreaterOrEqual(p.stack, 0, p.ID)

		if tbl.phase.IsBettingRound() && p.canAct() {
			a.LessOrEqual(p.roundBet, tbl.currentBet, p.ID)
		}
	}

	a.Equal(committed, tbl.pot, "pot equals committed chips")

	if tbl.phase.IsBettingRound() {
		if a.NotNil(tbl.turn, "turn") {
			a.True(tbl.turn.canAct(), "turn holder can act")
		}
	} else {
		a.Nil(tbl.turn, "turn outside of a betting round")
	}
}

func playerView(snap *Snapshot, id string) *PlayerView {
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func playerByID(t *testing.T, tbl *Table, id string) Player {
	t.Helper()

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	p, ok := tbl.players[id]
	if !assert.True(t, ok, id) {
		t.FailNow()
	}

	return *p
}
