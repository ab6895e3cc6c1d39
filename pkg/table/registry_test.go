package table

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func newTestRegistry(t *testing.T) (*Registry, *clock.Mock, *recordingListener) {
	t.Helper()

	opts, mock := testOptions()
	r := NewRegistry(RegistryOptions{
		Table:         opts,
		IdleTimeout:   time.Hour,
		SweepInterval: 15 * time.Minute,
	})

	l := &recordingListener{}
	r.SetListener(l)

	return r, mock, l
}

func TestRegistry_GetOrCreate(t *testing.T) {
	a := assert.New(t)
	r, _, _ := newTestRegistry(t)

	_, err := r.GetOrCreate("")
	a.ErrorIs(err, ErrInvalidTableID)

	_, err = r.GetOrCreate(strings.Repeat("x", 65))
	a.ErrorIs(err, ErrInvalidTableID)

	t1, err := r.GetOrCreate("friday")
	a.NoError(err)
	a.Equal("friday", t1.ID())

	t2, err := r.GetOrCreate(" friday ")
	a.NoError(err)
	a.Same(t1, t2)

	_, err = r.GetOrCreate("monday")
	a.NoError(err)
	a.Equal(2, r.Len())

	got, ok := r.Get("friday")
	a.True(ok)
	a.Same(t1, got)

	_, ok = r.Get("tuesday")
	a.False(ok)

	ids := make([]string, 0)
	for _, tbl := range r.Tables() {
		ids = append(ids, tbl.ID())
	}
	a.Equal([]string{"friday", "monday"}, ids)
}

func TestRegistry_RemovesClosedTables(t *testing.T) {
	a := assert.New(t)
	r, _, l := newTestRegistry(t)

	tbl, _ := r.GetOrCreate("friday")
	seat(t, tbl, "alice")
	a.NoError(tbl.Disconnect("c-alice"))

	a.True(tbl.IsClosed())
	a.Equal(0, r.Len())
	a.Equal([]error{ErrNoConnectedPlayers}, l.closedReasons())

	// the ID can be reused
	tbl2, err := r.GetOrCreate("friday")
	a.NoError(err)
	a.NotSame(tbl, tbl2)
	a.False(tbl2.IsClosed())
}

func TestRegistry_Sweep(t *testing.T) {
	a := assert.New(t)
	r, mock, l := newTestRegistry(t)

	idle, _ := r.GetOrCreate("idle")
	mock.Add(30 * time.Minute)

	busy, _ := r.GetOrCreate("busy")
	seat(t, busy, "alice")

	a.Equal(0, r.Sweep())

	mock.Add(30 * time.Minute)
	a.Equal(1, r.Sweep())
	a.True(idle.IsClosed())
	a.False(busy.IsClosed())
	a.Equal([]error{ErrIdleTimeout}, l.closedReasons())

	_, ok := r.Get("idle")
	a.False(ok)
	a.Equal(1, r.Len())

	// activity resets the idle timer
	mock.Add(59 * time.Minute)
	seat(t, busy, "bob")
	mock.Add(59 * time.Minute)
	a.Equal(0, r.Sweep())
}

func TestRegistry_Run(t *testing.T) {
	a := assert.New(t)
	r, mock, _ := newTestRegistry(t)

	_, err := r.GetOrCreate("idle")
	a.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	a.Eventually(func() bool {
		mock.Add(15 * time.Minute)
		return r.Len() == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistry_ForwardsTableChanged(t *testing.T) {
	a := assert.New(t)
	r, mock, l := newTestRegistry(t)

	tbl, _ := r.GetOrCreate("friday")
	seat(t, tbl, "alice", "bob", "carol")
	a.NoError(tbl.StartHand("c-alice"))
	a.NoError(tbl.Disconnect("c-carol"))

	mock.Add(DefaultDisconnectGrace)
	a.Eventually(func() bool {
		return l.changedCount() == 1
	}, time.Second, 10*time.Millisecond)
}
