package room

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pokertable-server/pkg/table"
)

func playerView(snap *table.Snapshot, id string) *table.PlayerView {
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func TestPitBoss_JoinTable(t *testing.T) {
	a := assert.New(t)
	p, _ := newTestPitBoss(t)

	alice := newTestClient(t)
	snap := join(t, p, alice, "friday", "alice")
	a.Equal("p1", snap.PlayerID)
	a.Equal("p1", snap.HostID)
	a.Equal("friday", snap.TableID)
	a.NotNil(alice.Dealer())
	a.Equal(1, p.Len())

	bob := newTestClient(t)
	snap = join(t, p, bob, "friday", "bob")
	a.Equal("p2", snap.PlayerID)
	a.Len(snap.Players, 2)

	snap = receiveKey(t, alice, KeyTableUpdated).Data.(*table.Snapshot)
	a.Equal("p1", snap.PlayerID)
	a.Len(snap.Players, 2)

	p.ReceivedMessage(alice, &PayloadIn{Event: EventJoinTable, TableID: "monday", DisplayName: "alice", Context: "again"})
	assertRejected(t, alice, "again", "AlreadySeated")

	carol := newTestClient(t)
	p.ReceivedMessage(carol, &PayloadIn{Event: EventJoinTable, TableID: "", DisplayName: "carol", Context: "1"})
	assertRejected(t, carol, "1", "InvalidTableID")
	a.Nil(carol.Dealer())

	p.ReceivedMessage(carol, &PayloadIn{Event: EventJoinTable, TableID: "friday", DisplayName: "alice", Context: "2"})
	assertRejected(t, carol, "2", "NameTaken")
	a.Nil(carol.Dealer())

	snap = join(t, p, carol, "friday", "")
	a.NotEmpty(playerView(snap, snap.PlayerID).DisplayName, "a random name is assigned")
}

func TestPitBoss_StartHandAndAct(t *testing.T) {
	a := assert.New(t)
	p, _ := newTestPitBoss(t)

	alice := newTestClient(t)
	bob := newTestClient(t)
	join(t, p, alice, "friday", "alice")
	join(t, p, bob, "friday", "bob")
	receiveKey(t, alice, KeyTableUpdated)

	p.ReceivedMessage(bob, &PayloadIn{Event: EventStartHand, TableID: "friday", Context: "start"})
	assertRejected(t, bob, "start", "NotHost")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventStartHand, TableID: "monday", Context: "start"})
	assertRejected(t, alice, "start", "NotSeated")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventStartHand, TableID: "friday", Context: "start"})
	assertOK(t, alice, "start")
	a.Equal(KeyHandStarted, receive(t, alice).Key)
	snap := receive(t, alice).Data.(*table.Snapshot)
	a.Equal(table.PhasePreFlop, snap.Phase)
	a.Equal("p1", snap.CurrentTurn)
	a.Len(playerView(snap, "p1").HoleCards, 2)
	a.Nil(playerView(snap, "p2").HoleCards)

	a.Equal(KeyHandStarted, receive(t, bob).Key)
	a.Equal(KeyTableUpdated, receive(t, bob).Key)

	p.ReceivedMessage(bob, &PayloadIn{Event: EventPlayerAction, TableID: "friday", Action: "check", Context: "a"})
	assertRejected(t, bob, "a", "NotYourTurn")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventPlayerAction, TableID: "friday", Action: "shove", Context: "b"})
	assertRejected(t, alice, "b", "UnknownAction")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventPlayerAction, TableID: "friday", Action: "bet", Amount: 100, Context: "c"})
	assertOK(t, alice, "c")
	snap = receive(t, alice).Data.(*table.Snapshot)
	a.Equal(100, snap.Pot)
	a.Equal("p2", snap.CurrentTurn)

	snap = receiveKey(t, bob, KeyTableUpdated).Data.(*table.Snapshot)
	a.Equal([]table.Action{table.Call, table.Raise, table.Fold}, snap.Actions)

	p.ReceivedMessage(bob, &PayloadIn{Event: EventPlayerAction, TableID: "friday", Action: "call", Context: "d"})
	assertOK(t, bob, "d")
	snap = receive(t, bob).Data.(*table.Snapshot)
	a.Equal(table.PhaseFlop, snap.Phase)
	a.Len(snap.Community, 3)
	a.Equal(200, snap.Pot)
}

func TestPitBoss_LeaveAndReconnect(t *testing.T) {
	a := assert.New(t)
	p, _ := newTestPitBoss(t)

	alice := newTestClient(t)
	bob := newTestClient(t)
	join(t, p, alice, "friday", "alice")
	join(t, p, bob, "friday", "bob")

	p.ReceivedMessage(bob, &PayloadIn{Event: EventStartHand, Context: "x"})
	assertRejected(t, bob, "x", "NotHost")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventStartHand, Context: "start"})
	assertOK(t, alice, "start")
	receiveKey(t, bob, KeyTableUpdated)

	p.ReceivedMessage(bob, &PayloadIn{Event: EventLeaveTable, TableID: "friday", Context: "leave"})
	assertOK(t, bob, "leave")
	a.Nil(bob.Dealer())

	for {
		snap := receiveKey(t, alice, KeyTableUpdated).Data.(*table.Snapshot)
		if !playerView(snap, "p2").IsConnected {
			break
		}
	}

	p.ReceivedMessage(bob, &PayloadIn{Event: EventLeaveTable, Context: "leave"})
	assertRejected(t, bob, "leave", "NotSeated")

	p.ReceivedMessage(bob, &PayloadIn{Event: EventPlayerAction, Action: "check", Context: "check"})
	assertRejected(t, bob, "check", "NotSeated")

	other := newTestClient(t)
	p.ReceivedMessage(other, &PayloadIn{Event: EventReconnectTable, TableID: "monday", DisplayName: "bob", Context: "r"})
	assertRejected(t, other, "r", "PlayerNotFound")
	a.Equal(1, p.Registry().Len(), "reconnect does not create tables")

	p.ReceivedMessage(bob, &PayloadIn{Event: EventReconnectTable, TableID: "friday", DisplayName: "bob", Context: "r"})
	assertOK(t, bob, "r")
	snap := receive(t, bob).Data.(*table.Snapshot)
	a.Equal("p2", snap.PlayerID)
	a.Len(playerView(snap, "p2").HoleCards, 2)
}

func TestPitBoss_ClientDisconnected(t *testing.T) {
	a := assert.New(t)
	p, _ := newTestPitBoss(t)

	// a client that never joined
	p.ClientDisconnected(newTestClient(t))

	alice := newTestClient(t)
	bob := newTestClient(t)
	join(t, p, alice, "friday", "alice")
	join(t, p, bob, "friday", "bob")

	p.ClientDisconnected(alice)
	a.Eventually(func() bool {
		return alice.Dealer() == nil
	}, time.Second, 10*time.Millisecond)
	a.Equal(1, p.Registry().Len())

	p.ClientDisconnected(bob)
	a.Eventually(func() bool {
		return p.Registry().Len() == 0 && p.Len() == 0
	}, time.Second, 10*time.Millisecond)

	// the table id can be used again
	carol := newTestClient(t)
	snap := join(t, p, carol, "friday", "carol")
	a.Len(snap.Players, 1)
	a.Equal(snap.PlayerID, snap.HostID)
}

func TestPitBoss_IdleTablesAreClosed(t *testing.T) {
	a := assert.New(t)
	p, mock := newTestPitBoss(t)

	alice := newTestClient(t)
	join(t, p, alice, "friday", "alice")

	mock.Add(table.DefaultIdleTimeout)
	a.Equal(1, p.Registry().Sweep())

	res := receiveKey(t, alice, KeyTableClosed)
	a.Equal(&TableClosed{Reason: "idleTimeout"}, res.Data)

	a.Eventually(func() bool {
		return alice.Dealer() == nil && p.Len() == 0
	}, time.Second, 10*time.Millisecond)

	p.ReceivedMessage(alice, &PayloadIn{Event: EventPlayerAction, Action: "check", Context: "c"})
	assertRejected(t, alice, "c", "NotSeated")
}

func TestPitBoss_GraceExpiryIsBroadcast(t *testing.T) {
	a := assert.New(t)
	p, mock := newTestPitBoss(t)

	alice := newTestClient(t)
	bob := newTestClient(t)
	carol := newTestClient(t)
	join(t, p, alice, "friday", "alice")
	join(t, p, bob, "friday", "bob")
	join(t, p, carol, "friday", "carol")

	p.ReceivedMessage(alice, &PayloadIn{Event: EventStartHand, Context: "start"})
	assertOK(t, alice, "start")

	p.ReceivedMessage(carol, &PayloadIn{Event: EventLeaveTable, Context: "leave"})
	a.Equal("leave", receiveKey(t, carol, KeyStatus).Context)

	mock.Add(table.DefaultDisconnectGrace)

	for {
		snap := receiveKey(t, bob, KeyTableUpdated).Data.(*table.Snapshot)
		if c := playerView(snap, "p3"); c.SittingOut {
			a.False(c.IsActive)
			if a.NotNil(snap.LastAction) {
				a.Equal(table.Fold, snap.LastAction.Action)
			}
			break
		}
	}
}

func TestPitBoss_UnknownEvent(t *testing.T) {
	p, _ := newTestPitBoss(t)
	c := newTestClient(t)

	p.ReceivedMessage(c, &PayloadIn{Event: "dance", Context: "x"})
	assertRejected(t, c, "x", "UnknownEvent")
}

func TestPitBoss_EndShiftDisconnectsClients(t *testing.T) {
	a := assert.New(t)
	p, _ := newTestPitBoss(t)

	alice := newTestClient(t)
	p.ClientConnected(alice)
	a.Equal(1, p.Clients())

	p.EndShift()
	select {
	case reason := <-alice.Close:
		a.Equal("server is shutting down", reason)
	case <-time.After(time.Second):
		t.Fatal("expected the client to be asked to close")
	}

	p.ClientDisconnected(alice)
	a.Equal(0, p.Clients())
}

func TestPitBoss_ReceivedInvalidMessage(t *testing.T) {
	p, _ := newTestPitBoss(t)
	c := newTestClient(t)

	p.ReceivedInvalidMessage(c, errors.New("unexpected end of JSON input"))
	assertRejected(t, c, "", "InvalidMessage")
}
