package room

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"pokertable-server/pkg/table"
)

func newTestPitBoss(t *testing.T) (*PitBoss, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	logger, _ := test.NewNullLogger()

	var idLock sync.Mutex
	id := 0

	opts := table.DefaultRegistryOptions()
	opts.Table.Clock = mock
	opts.Table.Logger = logger
	opts.Table.RNG = &lockedRand{r: rand.New(rand.NewSource(1))}
	opts.Table.NewPlayerID = func() string {
		idLock.Lock()
		defer idLock.Unlock()

		id++
		return fmt.Sprintf("p%d", id)
	}

	p := NewPitBoss(table.NewRegistry(opts), logger)
	t.Cleanup(p.EndShift)

	return p, mock
}

type lockedRand struct {
	lock sync.Mutex
	r    *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.r.Intn(n)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(nil)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	return c
}

// receive returns the next message sent to the client
func receive(t *testing.T, c *Client) *Response {
	t.Helper()

	select {
	case msg := <-c.SendChan():
		res, ok := msg.(*Response)
		if !assert.True(t, ok, "unexpected message %T", msg) {
			t.FailNow()
		}

		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a message for %s", c.ID)
	}

	return nil
}

// receiveKey skips messages until one with the given key arrives
func receiveKey(t *testing.T, c *Client, key string) *Response {
	t.Helper()

	for {
		if res := receive(t, c); res.Key == key {
			return res
		}
	}
}

func assertOK(t *testing.T, c *Client, ctx string) {
	t.Helper()

	res := receive(t, c)
	assert.Equal(t, KeyStatus, res.Key, "%#v", res.Data)
	assert.Equal(t, "OK", res.Value)
	assert.Equal(t, ctx, res.Context)
}

func assertRejected(t *testing.T, c *Client, ctx string, code string) {
	t.Helper()

	res := receive(t, c)
	if assert.Equal(t, KeyActionRejected, res.Key) {
		assert.Equal(t, code, res.Value)
		assert.Equal(t, ctx, res.Context)
		assert.Equal(t, code, res.Data.(*Rejection).Code)
	}
}

// join seats the client and drains the acknowledgement and the table update
func join(t *testing.T, p *PitBoss, c *Client, tableID, name string) *table.Snapshot {
	t.Helper()

	p.ReceivedMessage(c, &PayloadIn{Event: EventJoinTable, TableID: tableID, DisplayName: name, Context: "join"})
	assertOK(t, c, "join")

	res := receive(t, c)
	if !assert.Equal(t, KeyTableUpdated, res.Key) {
		t.FailNow()
	}

	return res.Data.(*table.Snapshot)
}
