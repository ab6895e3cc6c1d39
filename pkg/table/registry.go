package table

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

const maxTableIDLength = 64

// registry defaults
const (
	DefaultIdleTimeout   = time.Hour
	DefaultSweepInterval = 15 * time.Minute
)

// RegistryOptions configures a Registry
type RegistryOptions struct {
	// Table is used for every table the registry creates
	// If Table.RNG is shared between tables it must be safe for concurrent use
	Table         Options
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// DefaultRegistryOptions returns the default registry options
func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		Table:         DefaultOptions(),
		IdleTimeout:   DefaultIdleTimeout,
		SweepInterval: DefaultSweepInterval,
	}
}

// Registry maps table IDs to live tables
// Tables are created on first use and removed once they close.
type Registry struct {
	opts  RegistryOptions
	clock clock.Clock
	log   logrus.FieldLogger

	lock     sync.RWMutex
	tables   map[string]*Table
	listener Listener
}

// NewRegistry returns a new registry
func NewRegistry(opts RegistryOptions) *Registry {
	opts.Table = opts.Table.withDefaults()
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}

	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	return &Registry{
		opts:   opts,
		clock:  opts.Table.Clock,
		log:    opts.Table.Logger.WithField("component", "registry"),
		tables: make(map[string]*Table),
	}
}

// SetListener sets where table events are forwarded to
func (r *Registry) SetListener(l Listener) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.listener = l
}

// GetOrCreate returns the live table with the given ID, creating it if necessary
func (r *Registry) GetOrCreate(id string) (*Table, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxTableIDLength {
		return nil, ErrInvalidTableID
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if t, ok := r.tables[id]; ok && !t.IsClosed() {
		return t, nil
	}

	t := New(id, r.opts.Table, r)
	r.tables[id] = t

	r.log.WithField("table", id).Info("table created")

	return t, nil
}

// Get returns the live table with the given ID
func (r *Registry) Get(id string) (*Table, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	t, ok := r.tables[id]
	if !ok || t.IsClosed() {
		return nil, false
	}

	return t, true
}

// Tables returns every table, sorted by ID
func (r *Registry) Tables() []*Table {
	r.lock.RLock()
	tables := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	r.lock.RUnlock()

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].ID() < tables[j].ID()
	})

	return tables
}

// Len returns the number of tables
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.tables)
}

// Sweep closes every table that has been idle for at least the idle timeout
// Returns the number of tables closed
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	closed := 0
	for _, t := range r.Tables() {
		if now.Sub(t.LastActivity()) < r.opts.IdleTimeout {
			continue
		}

		if t.Close(ErrIdleTimeout) {
			closed++
		}
	}

	return closed
}

// Run sweeps idle tables until the context is cancelled
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.WithField("closed", n).Info("swept idle tables")
			}
		}
	}
}

// TableChanged implements Listener
func (r *Registry) TableChanged(t *Table) {
	r.lock.RLock()
	l := r.listener
	r.lock.RUnlock()

	if l != nil {
		l.TableChanged(t)
	}
}

// TableClosed implements Listener
func (r *Registry) TableClosed(t *Table, reason error) {
	r.lock.Lock()
	if current, ok := r.tables[t.ID()]; ok && current == t {
		delete(r.tables, t.ID())
	}
	l := r.listener
	r.lock.Unlock()

	r.log.WithError(reason).WithField("table", t.ID()).Info("table removed")

	if l != nil {
		l.TableClosed(t, reason)
	}
}
