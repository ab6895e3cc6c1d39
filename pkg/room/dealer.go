package room

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"pokertable-server/internal/util"
	"pokertable-server/pkg/table"
)

// Dealer serialises the messages for a single table and broadcasts its state
type Dealer struct {
	pitBoss *PitBoss
	table   *table.Table
	log     logrus.FieldLogger
	clients map[*Client]bool
	lock    sync.RWMutex

	// lastHandNumber is the last hand a handStarted message was sent for
	// NOTE: only accessed from the run loop
	lastHandNumber int

	execInRunLoop chan func()
	stateChanged  chan bool
	tableClosed   chan error
	close         chan bool
	closeOnce     sync.Once
}

// NewDealer creates a new dealer object
// This is called from a blocking state, so it needs to return quickly
func NewDealer(pitBoss *PitBoss, t *table.Table) *Dealer {
	return &Dealer{
		pitBoss:       pitBoss,
		table:         t,
		log:           pitBoss.log.WithField("table", t.ID()),
		clients:       make(map[*Client]bool),
		execInRunLoop: make(chan func()),
		stateChanged:  make(chan bool, 1),
		tableClosed:   make(chan error, 1),
		close:         make(chan bool),
	}
}

// Table returns the table the dealer is responsible for
func (d *Dealer) Table() *table.Table {
	return d.table
}

// Clients will return a slice of connected (at the time) clients
func (d *Dealer) Clients() []*Client {
	d.lock.RLock()
	defer d.lock.RUnlock()

	clients := make([]*Client, 0, len(d.clients))
	for client := range d.clients {
		clients = append(clients, client)
	}

	return clients
}

// StartShift starts the run loop
func (d *Dealer) StartShift() {
	go d.runLoop()
}

// EndShift stops the run loop
func (d *Dealer) EndShift() {
	d.closeOnce.Do(func() {
		close(d.close)
	})
}

func (d *Dealer) runLoop() {
	d.log.Debug("creating dealer run loop")
	for {
		select {
		case <-d.stateChanged:
			d.sendTableState()
		case fn := <-d.execInRunLoop:
			fn()
		case reason := <-d.tableClosed:
			d.sendTableClosed(reason)
			d.EndShift()
			d.log.Debug("table closed, terminating dealer run loop")
			return
		case <-d.close:
			d.log.Debug("terminating dealer run loop")
			return
		}
	}
}

// exec runs fn in the run loop
// Returns false if the run loop has ended and fn will never run
func (d *Dealer) exec(fn func()) bool {
	select {
	case d.execInRunLoop <- fn:
		return true
	case <-d.close:
		return false
	}
}

// refresh schedules a broadcast of the table state
func (d *Dealer) refresh() {
	select {
	case d.stateChanged <- true:
	default:
		// a broadcast is already pending
	}
}

// closed tells the run loop the table was torn down
func (d *Dealer) closed(reason error) {
	select {
	case d.tableClosed <- reason:
	default:
	}
}

// AddClient adds a client
func (d *Dealer) AddClient(client *Client) {
	d.lock.Lock()
	d.clients[client] = true
	d.lock.Unlock()
}

// RemoveClient removes a client
// Returns true if that was the last client
func (d *Dealer) RemoveClient(client *Client) (lastClient bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	delete(d.clients, client)
	return len(d.clients) == 0
}

// seat joins or reconnects the client at the table
func (d *Dealer) seat(c *Client, msg *PayloadIn) bool {
	return d.exec(func() {
		var err error
		if msg.Event == EventReconnectTable {
			_, err = d.table.Reconnect(c.ID, msg.DisplayName)
		} else {
			name := msg.DisplayName
			if strings.TrimSpace(name) == "" {
				name = util.GetRandomName()
			}

			_, err = d.table.Join(c.ID, name)
		}

		if err != nil {
			c.unbind(d)
			d.reject(c, msg, err)
			return
		}

		d.AddClient(c)
		d.log.WithField("client", c.ID).Debug("client seated")

		c.Send(OK(msg.Context))
		d.sendTableState()
	})
}

// leave unbinds the client from the table. Its seat is kept for a reconnect.
// If msg is nil, the connection was closed and no reply is sent.
func (d *Dealer) leave(c *Client, msg *PayloadIn) bool {
	return d.exec(func() {
		d.RemoveClient(c)
		c.unbind(d)

		if err := d.table.Disconnect(c.ID); err != nil {
			if msg != nil {
				d.reject(c, msg, err)
			} else {
				d.log.WithError(err).WithField("client", c.ID).Debug("could not disconnect client")
			}
		} else if msg != nil {
			c.Send(OK(msg.Context))
		}

		d.sendTableState()
	})
}

// ReceivedMessage handles a game message from a seated client
func (d *Dealer) ReceivedMessage(c *Client, msg *PayloadIn) bool {
	return d.exec(func() {
		var err error
		switch msg.Event {
		case EventStartHand:
			err = d.table.StartHand(c.ID)
		case EventPlayerAction:
			var action table.Action
			if action, err = table.ActionFromString(msg.Action); err == nil {
				_, err = d.table.ApplyAction(c.ID, action, msg.Amount)
			}
		default:
			err = ErrUnknownEvent
		}

		if err != nil {
			d.reject(c, msg, err)
			return
		}

		c.Send(OK(msg.Context))
		d.sendTableState()
	})
}

func (d *Dealer) reject(c *Client, msg *PayloadIn, err error) {
	log := d.log.WithError(err).WithFields(logrus.Fields{
		"client": c.ID,
		"event":  msg.Event,
	})

	if _, ok := table.IsUserError(err); ok {
		log.Debug("rejected message")
	} else {
		log.Error("could not handle message")
	}

	c.Send(newRejection(msg.Context, err))
}

// sendTableState sends every client its own view of the table
// A handStarted message goes out first when a new hand was dealt since the last broadcast
// NOTE: must only be called from the run loop
func (d *Dealer) sendTableState() {
	clients := d.Clients()

	public := d.table.PublicSnapshot()
	if public.HandNumber > d.lastHandNumber && public.Phase.IsBettingRound() {
		d.lastHandNumber = public.HandNumber

		hs := &Response{
			Key: KeyHandStarted,
			Data: &HandStarted{
				DealerID:   public.DealerID,
				Phase:      public.Phase,
				HandNumber: public.HandNumber,
			},
		}

		for _, client := range clients {
			client.Send(hs)
		}
	}

	for _, client := range clients {
		if !client.Send(&Response{Key: KeyTableUpdated, Data: d.table.Snapshot(client.ID)}) {
			d.log.WithField("client", client.ID).Warn("client buffer full, dropped table update")
		}
	}
}

// NOTE: must only be called from the run loop
func (d *Dealer) sendTableClosed(reason error) {
	res := newTableClosed(reason)
	for _, client := range d.Clients() {
		client.Send(res)
		client.unbind(d)
		d.RemoveClient(client)
	}
}
