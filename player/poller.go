package player

import (
	"context"
	"sync"
	"time"
)

// Poller refreshes status and metadata on two independent timers. Every tick
// submits a fresh fetch; nothing is de-duplicated against fetches still in
// flight.
type Poller struct {
	interval      time.Duration
	sched         *Scheduler
	bus           Bus
	trackPosition bool
}

func NewPoller(sched *Scheduler, bus Bus, opts Options) *Poller {
	opts = opts.withDefaults()
	return &Poller{
		interval:      opts.PollInterval,
		sched:         sched,
		bus:           bus,
		trackPosition: opts.TrackPosition,
	}
}

// Run starts both timers and blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.every(ctx, p.TickStatus)
	}()
	go func() {
		defer wg.Done()
		p.every(ctx, p.TickMetadata)
	}()
	wg.Wait()
}

func (p *Poller) every(ctx context.Context, tick func()) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick()
		}
	}
}

// TickStatus submits one status fetch, plus a position fetch when enabled.
func (p *Poller) TickStatus() {
	p.sched.Submit(SourceTick, StatusUpdated, statusFetch(p.bus))
	if p.trackPosition {
		p.sched.Submit(SourceTick, PositionUpdated, positionFetch(p.bus))
	}
}

// TickMetadata submits one metadata fetch.
func (p *Poller) TickMetadata() {
	p.sched.Submit(SourceTick, MetadataUpdated, metadataFetch(p.bus))
}

func statusFetch(bus Bus) Fetch {
	return func(ctx context.Context) (Update, bool) {
		return Update{Status: ReadStatus(ctx, bus)}, true
	}
}

func metadataFetch(bus Bus) Fetch {
	return func(ctx context.Context) (Update, bool) {
		return Update{Metadata: ReadMetadata(ctx, bus)}, true
	}
}

func positionFetch(bus Bus) Fetch {
	return func(ctx context.Context) (Update, bool) {
		pos, ok := ReadPosition(ctx, bus)
		return Update{Position: pos}, ok
	}
}
