package player

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Bridge ties a bus connection to the update stream a consumer reads. It is
// the only type a consumer needs.
type Bridge struct {
	opts Options
	log  zerolog.Logger
	bus  *currentBus

	ctx    context.Context
	cancel context.CancelFunc

	sched      *Scheduler
	dispatcher *Dispatcher
	poller     *Poller

	startOnce sync.Once
}

// Connect opens a Session and wraps it in a Bridge.
func Connect(ctx context.Context, opts Options) (*Bridge, error) {
	s, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewBridge(ctx, s, opts), nil
}

// NewBridge builds a Bridge over any Bus. Nothing is polled until Start.
func NewBridge(ctx context.Context, bus Bus, opts Options) *Bridge {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	cb := &currentBus{bus: bus}
	sched := NewScheduler(ctx, opts.Workers)
	return &Bridge{
		opts:       opts,
		log:        *opts.Logger,
		bus:        cb,
		ctx:        ctx,
		cancel:     cancel,
		sched:      sched,
		dispatcher: NewDispatcher(cb, opts),
		poller:     NewPoller(sched, cb, opts),
	}
}

// Start launches the poller. Calling it again has no effect.
func (b *Bridge) Start() {
	b.startOnce.Do(func() {
		b.log.Info().Dur("interval", b.opts.PollInterval).Msg("polling player")
		go b.poller.Run(b.ctx)
	})
}

// Updates returns the notification stream.
func (b *Bridge) Updates() <-chan Update { return b.sched.Updates() }

// Issue dispatches cmd. A successful call is followed by a status refresh
// delivered on Updates; a failed call produces nothing.
func (b *Bridge) Issue(cmd Command) {
	sent := b.dispatcher.Send(b.ctx, cmd)
	go func() {
		if _, ok := <-sent; ok {
			b.sched.Submit(SourceCommand, StatusUpdated, statusFetch(b.bus))
		}
	}()
}

// Refresh fetches status and metadata once, outside the timer cadence.
func (b *Bridge) Refresh() {
	b.sched.Submit(SourceRefresh, StatusUpdated, statusFetch(b.bus))
	b.sched.Submit(SourceRefresh, MetadataUpdated, metadataFetch(b.bus))
	if b.opts.TrackPosition {
		b.sched.Submit(SourceRefresh, PositionUpdated, positionFetch(b.bus))
	}
}

// Reconnect replaces the bus connection with a freshly opened Session. The
// old one is closed if it was a Session. On failure the old bus is kept.
func (b *Bridge) Reconnect(ctx context.Context) error {
	s, err := Open(ctx, b.opts)
	if err != nil {
		b.log.Warn().Err(err).Msg("reconnect failed")
		return err
	}
	if old, ok := b.bus.swap(s).(*Session); ok {
		if err := old.Close(); err != nil {
			b.log.Debug().Err(err).Msg("closing previous session")
		}
	}
	b.log.Info().Str("service", s.Service()).Msg("reconnected")
	return nil
}

// Connected reports whether the current bus is a live Session. A Bus that is
// not a Session is always considered connected.
func (b *Bridge) Connected() bool {
	if s, ok := b.bus.get().(*Session); ok {
		return s.Connected()
	}
	return true
}

// Close stops polling and closes the session.
func (b *Bridge) Close() error {
	b.cancel()
	if s, ok := b.bus.get().(*Session); ok {
		return s.Close()
	}
	return nil
}

// currentBus lets Reconnect swap the Session under running fetches.
type currentBus struct {
	mu  sync.RWMutex
	bus Bus
}

func (c *currentBus) get() Bus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bus
}

func (c *currentBus) swap(bus Bus) Bus {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.bus
	c.bus = bus
	return old
}

func (c *currentBus) GetProperty(ctx context.Context, iface, name string) (Value, error) {
	return c.get().GetProperty(ctx, iface, name)
}

func (c *currentBus) CallMethod(ctx context.Context, iface, method string) *Call {
	return c.get().CallMethod(ctx, iface, method)
}
