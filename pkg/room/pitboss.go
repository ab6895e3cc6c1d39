package room

import (
	"sync"

	"github.com/sirupsen/logrus"
	"pokertable-server/pkg/table"
)

// PitBoss is responsible for dispatching clients to tables
type PitBoss struct {
	registry *table.Registry
	log      logrus.FieldLogger

	lock    sync.Mutex
	dealers map[string]*Dealer
	clients map[*Client]bool
}

// NewPitBoss returns a new dispatch object and registers it as the registry's listener
func NewPitBoss(registry *table.Registry, log logrus.FieldLogger) *PitBoss {
	if log == nil {
		log = logrus.StandardLogger()
	}

	p := &PitBoss{
		registry: registry,
		log:      log,
		dealers:  make(map[string]*Dealer),
		clients:  make(map[*Client]bool),
	}

	registry.SetListener(p)
	return p
}

// Registry returns the table registry
func (p *PitBoss) Registry() *table.Registry {
	return p.registry
}

// ReceivedMessage is called when the server receives a message from a connected client
func (p *PitBoss) ReceivedMessage(c *Client, msg *PayloadIn) {
	switch msg.Event {
	case EventJoinTable, EventReconnectTable:
		p.seatClient(c, msg)
	case EventLeaveTable:
		d := c.Dealer()
		if d == nil {
			c.Send(newRejection(msg.Context, table.ErrNotSeated))
			return
		}

		if !d.leave(c, msg) {
			c.unbind(d)
			c.Send(OK(msg.Context))
		}
	case EventStartHand, EventPlayerAction:
		d := c.Dealer()
		if d == nil || (msg.TableID != "" && msg.TableID != d.table.ID()) {
			c.Send(newRejection(msg.Context, table.ErrNotSeated))
			return
		}

		if !d.ReceivedMessage(c, msg) {
			c.Send(newRejection(msg.Context, table.ErrTableClosed))
		}
	default:
		p.log.WithField("event", msg.Event).WithField("client", c.ID).Warn("unknown message")
		c.Send(newRejection(msg.Context, ErrUnknownEvent))
	}
}

// ReceivedInvalidMessage is called when a client's message could not be decoded
func (p *PitBoss) ReceivedInvalidMessage(c *Client, err error) {
	p.log.WithError(err).WithField("client", c.ID).Debug("could not decode message")
	c.Send(newRejection("", ErrInvalidMessage))
}

// ClientConnected is called when a new websocket connection is established
func (p *PitBoss) ClientConnected(c *Client) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.clients[c] = true
	p.log.WithField("client", c.ID).Debug("client connected")
}

// ClientDisconnected is called when a client's connection closes
func (p *PitBoss) ClientDisconnected(c *Client) {
	p.lock.Lock()
	delete(p.clients, c)
	p.lock.Unlock()

	d := c.Dealer()
	if d == nil {
		return
	}

	if !d.leave(c, nil) {
		c.unbind(d)
	}
}

func (p *PitBoss) seatClient(c *Client, msg *PayloadIn) {
	if c.Dealer() != nil {
		c.Send(newRejection(msg.Context, table.ErrAlreadySeated))
		return
	}

	var t *table.Table
	if msg.Event == EventReconnectTable {
		var ok bool
		if t, ok = p.registry.Get(msg.TableID); !ok {
			c.Send(newRejection(msg.Context, table.ErrPlayerNotFound))
			return
		}
	} else {
		var err error
		if t, err = p.registry.GetOrCreate(msg.TableID); err != nil {
			c.Send(newRejection(msg.Context, err))
			return
		}
	}

	d := p.dealerFor(t)
	if d == nil {
		c.Send(newRejection(msg.Context, table.ErrTableClosed))
		return
	}

	if !c.bind(d) {
		c.Send(newRejection(msg.Context, table.ErrAlreadySeated))
		return
	}

	if !d.seat(c, msg) {
		c.unbind(d)
		c.Send(newRejection(msg.Context, table.ErrTableClosed))
	}
}

// dealerFor returns the dealer for t, starting one if needed
// Returns nil if t is already closed
func (p *PitBoss) dealerFor(t *table.Table) *Dealer {
	p.lock.Lock()
	defer p.lock.Unlock()

	if d, ok := p.dealers[t.ID()]; ok && d.table == t {
		return d
	}

	if t.IsClosed() {
		return nil
	}

	d := NewDealer(p, t)
	d.StartShift()
	p.dealers[t.ID()] = d

	return d
}

func (p *PitBoss) dealer(t *table.Table) *Dealer {
	p.lock.Lock()
	defer p.lock.Unlock()

	if d, ok := p.dealers[t.ID()]; ok && d.table == t {
		return d
	}

	return nil
}

// TableChanged implements table.Listener
func (p *PitBoss) TableChanged(t *table.Table) {
	if d := p.dealer(t); d != nil {
		d.refresh()
	}
}

// TableClosed implements table.Listener
func (p *PitBoss) TableClosed(t *table.Table, reason error) {
	p.lock.Lock()
	d, ok := p.dealers[t.ID()]
	if ok && d.table == t {
		delete(p.dealers, t.ID())
	} else {
		d = nil
	}
	p.lock.Unlock()

	if d != nil {
		d.closed(reason)
	}
}

// Len returns the number of running dealers
func (p *PitBoss) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return len(p.dealers)
}

// Clients returns the number of connected clients
func (p *PitBoss) Clients() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return len(p.clients)
}

// EndShift stops every dealer and asks every connected client to disconnect
func (p *PitBoss) EndShift() {
	p.lock.Lock()
	defer p.lock.Unlock()

	for id, d := range p.dealers {
		d.EndShift()
		delete(p.dealers, id)
	}

	for c := range p.clients {
		c.Disconnect("server is shutting down")
	}
}
