package room

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"pokertable-server/pkg/token"
)

const clientIDLength = 16

// Client is a client connected to the server via websockets
// A client is seated at no more than one table at a time
type Client struct {
	// ID identifies the connection. It is never reused.
	ID string

	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// send is a channel for sending messages to the client
	send chan interface{}

	// Close receives the reason when the server wants the connection closed
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	lock   sync.Mutex
	dealer *Dealer
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn) (*Client, error) {
	id, err := token.Generate(clientIDLength)
	if err != nil {
		return nil, err
	}

	return &Client{
		ID:    id,
		send:  make(chan interface{}, 256),
		Close: make(chan string, 1),
		Conn:  conn,
	}, nil
}

// Send sends a message to the web client
// Returns false if the client's buffer is full and the message was dropped
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// Disconnect asks the connection's write loop to close with the given reason
func (c *Client) Disconnect(reason string) {
	select {
	case c.Close <- reason:
	default:
	}
}

// String returns a traceable identifier for the connection and table
func (c *Client) String() string {
	if d := c.Dealer(); d != nil {
		return fmt.Sprintf("%s:%s", c.ID, d.table.ID())
	}

	return c.ID
}

// Dealer returns the dealer of the table the client is seated at
func (c *Client) Dealer() *Dealer {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.dealer
}

// bind claims the client for d. Returns false if it is already bound.
func (c *Client) bind(d *Dealer) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.dealer != nil {
		return false
	}

	c.dealer = d
	return true
}

func (c *Client) unbind(d *Dealer) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.dealer == d {
		c.dealer = nil
	}
}
