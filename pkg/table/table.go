package table

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"pokertable-server/internal/rng"
	"pokertable-server/pkg/deck"
)

// table defaults
const (
	DefaultMaxPlayers      = 6
	DefaultStartingStack   = 1000
	DefaultDisconnectGrace = 120 * time.Second
)

// Options configures a table
type Options struct {
	MaxPlayers      int
	StartingStack   int
	DisconnectGrace time.Duration

	// ReassignHost passes host privileges to the next connected player when the host disconnects
	// If false, the host keeps the privilege and regains it on reconnect
	ReassignHost bool

	Clock  clock.Clock
	RNG    rng.Generator
	Logger logrus.FieldLogger

	// NewPlayerID generates stable player identifiers
	NewPlayerID func() string

	// Evaluator is optional, see HandEvaluator
	Evaluator HandEvaluator
}

// DefaultOptions returns the default table options
func DefaultOptions() Options {
	return Options{
		MaxPlayers:      DefaultMaxPlayers,
		StartingStack:   DefaultStartingStack,
		DisconnectGrace: DefaultDisconnectGrace,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}

	if o.StartingStack <= 0 {
		o.StartingStack = DefaultStartingStack
	}

	if o.DisconnectGrace <= 0 {
		o.DisconnectGrace = DefaultDisconnectGrace
	}

	if o.Clock == nil {
		o.Clock = clock.New()
	}

	if o.RNG == nil {
		o.RNG = rng.Crypto{}
	}

	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}

	if o.NewPlayerID == nil {
		o.NewPlayerID = func() string {
			return uuid.New().String()
		}
	}

	return o
}

// Listener is notified about changes a caller did not ask for directly
// Callbacks are never invoked with the table lock held
type Listener interface {
	// TableChanged is called when a timer changed the table state
	TableChanged(t *Table)

	// TableClosed is called once, after the table has been torn down
	TableClosed(t *Table, reason error)
}

type graceTimer struct {
	timer      *clock.Timer
	generation int
}

// Table is the authoritative state of a single poker table
// All exported methods are safe for concurrent use; each one is applied atomically
type Table struct {
	id       string
	opts     Options
	clock    clock.Clock
	listener Listener
	log      logrus.FieldLogger

	mu sync.Mutex

	// seats is in join order, which is also the seating order
	seats       []*Player
	players     map[string]*Player
	connections map[string]string

	deck       *deck.Deck
	undealt    deck.Hand
	community  deck.Hand
	pot        int
	currentBet int
	actedCount int
	turn       *Player
	dealer     *Player
	phase      Phase
	handNumber int

	hostPlayerID string

	lastAction     *LastAction
	logMessages    []*LogMessage
	lastActivityAt time.Time

	graceTimers     map[string]*graceTimer
	graceGeneration int

	closed        bool
	closeNotified bool
	closeReason   error
}

// New returns a new table in the lobby phase
func New(id string, opts Options, listener Listener) *Table {
	opts = opts.withDefaults()

	return &Table{
		id:             id,
		opts:           opts,
		clock:          opts.Clock,
		listener:       listener,
		log:            opts.Logger.WithField("table", id),
		seats:          make([]*Player, 0, opts.MaxPlayers),
		players:        make(map[string]*Player),
		connections:    make(map[string]string),
		community:      make(deck.Hand, 0, 5),
		phase:          PhaseLobby,
		lastActivityAt: opts.Clock.Now(),
		graceTimers:    make(map[string]*graceTimer),
	}
}

// ID returns the table identifier
func (t *Table) ID() string {
	return t.id
}

// Phase returns the current phase
func (t *Table) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.phase
}

// LastActivity returns when the table last changed because of a player
func (t *Table) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.lastActivityAt
}

// IsClosed returns true if the table has been torn down
func (t *Table) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

// Close tears the table down and cancels its timers
// Returns false if the table was already closed
func (t *Table) Close(reason error) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}

	t.closeLocked(reason)
	t.closeNotified = true
	t.mu.Unlock()

	if t.listener != nil {
		t.listener.TableClosed(t, reason)
	}

	return true
}

// mutate runs fn with the table lock held
// A non-UserError from fn is an invariant violation and tears the table down
func (t *Table) mutate(fn func() error) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTableClosed
	}

	err := fn()
	if err != nil {
		if _, ok := IsUserError(err); !ok {
			t.log.WithError(err).WithField("phase", t.phase.String()).Error("invariant violation, tearing down table")
			t.closeLocked(err)
		}
	}

	notifyClosed := t.closed && !t.closeNotified
	if notifyClosed {
		t.closeNotified = true
	}
	reason := t.closeReason
	t.mu.Unlock()

	if notifyClosed && t.listener != nil {
		t.listener.TableClosed(t, reason)
	}

	return err
}

// NOTE: must be called with the table lock held
func (t *Table) closeLocked(reason error) {
	if t.closed {
		return
	}

	t.closed = true
	t.closeReason = reason
	t.turn = nil
	for id, gt := range t.graceTimers {
		gt.timer.Stop()
		delete(t.graceTimers, id)
	}

	t.log.WithField("reason", reason).Info("table closed")
}

func (t *Table) touch() {
	t.lastActivityAt = t.clock.Now()
}

func (t *Table) playerByConnection(connectionID string) *Player {
	id, ok := t.connections[connectionID]
	if !ok {
		return nil
	}

	return t.players[id]
}

func (t *Table) seatIndex(p *Player) int {
	for i, seat := range t.seats {
		if seat == p {
			return i
		}
	}

	return -1
}

// nextActionableAfter returns the next seat after p, wrapping, that can take the turn
// p itself is considered last. A nil p starts from the first seat.
func (t *Table) nextActionableAfter(p *Player) *Player {
	n := len(t.seats)
	from := t.seatIndex(p)
	for i := 1; i <= n; i++ {
		if seat := t.seats[(from+i)%n]; seat.canAct() {
			return seat
		}
	}

	return nil
}

func (t *Table) actionable() []*Player {
	players := make([]*Player, 0, len(t.seats))
	for _, p := range t.seats {
		if p.canAct() {
			players = append(players, p)
		}
	}

	return players
}

func (t *Table) activeCount() int {
	count := 0
	for _, p := range t.seats {
		if p.isActive {
			count++
		}
	}

	return count
}

func (t *Table) connectedCount() int {
	count := 0
	for _, p := range t.seats {
		if p.isConnected {
			count++
		}
	}

	return count
}

func (t *Table) eligibleCount() int {
	count := 0
	for _, p := range t.seats {
		if p.eligible() {
			count++
		}
	}

	return count
}
