package player

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxBacklog bounds the fetches waiting for delivery, in flight or queued.
const maxBacklog = 256

// UpdateKind says which part of the cached state an Update replaces.
type UpdateKind int

const (
	StatusUpdated UpdateKind = iota + 1
	MetadataUpdated
	PositionUpdated
)

func (k UpdateKind) String() string {
	switch k {
	case StatusUpdated:
		return "StatusUpdated"
	case MetadataUpdated:
		return "MetadataUpdated"
	case PositionUpdated:
		return "PositionUpdated"
	}
	return "Unknown"
}

// Source says what triggered a fetch.
type Source int

const (
	SourceTick Source = iota + 1
	SourceCommand
	SourceRefresh
)

func (s Source) String() string {
	switch s {
	case SourceTick:
		return "tick"
	case SourceCommand:
		return "command"
	case SourceRefresh:
		return "refresh"
	}
	return "unknown"
}

// Update is a state-refresh notification. Seq is the number the fetch got
// when it was submitted.
type Update struct {
	Seq      uint64
	Source   Source
	Kind     UpdateKind
	Status   PlaybackStatus
	Metadata Metadata
	Position time.Duration
}

// Fetch performs one blocking read. Returning false drops the result.
type Fetch func(ctx context.Context) (Update, bool)

type result struct {
	update Update
	ok     bool
}

// Scheduler runs fetches on a bounded pool of workers and delivers their
// results on one stream, in submission order.
type Scheduler struct {
	ctx     context.Context
	sem     *semaphore.Weighted
	updates chan Update

	mu    sync.Mutex
	seq   uint64
	order chan chan result

	wg sync.WaitGroup
}

// NewScheduler starts the delivery loop; it stops when ctx is done.
func NewScheduler(ctx context.Context, workers int) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	s := &Scheduler{
		ctx:     ctx,
		sem:     semaphore.NewWeighted(int64(workers)),
		updates: make(chan Update, 64),
		order:   make(chan chan result, maxBacklog),
	}
	go s.deliver()
	return s
}

// Updates is the single consumer-facing notification stream.
func (s *Scheduler) Updates() <-chan Update { return s.updates }

// Submit schedules fetch and returns its sequence number. It never waits:
// not for a worker, and not for the consumer. When maxBacklog fetches are
// already waiting to be delivered the new one is dropped, its number unused.
func (s *Scheduler) Submit(src Source, kind UpdateKind, fetch Fetch) uint64 {
	slot := make(chan result, 1)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return seq
	}
	select {
	case s.order <- slot:
	default:
		s.mu.Unlock()
		return seq
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			slot <- result{}
			return
		}
		u, ok := fetch(s.ctx)
		s.sem.Release(1)

		u.Seq, u.Source, u.Kind = seq, src, kind
		slot <- result{update: u, ok: ok}
	}()
	return seq
}

// Wait blocks until every submitted fetch has finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) deliver() {
	for {
		var slot chan result
		select {
		case <-s.ctx.Done():
			return
		case slot = <-s.order:
		}

		var r result
		select {
		case <-s.ctx.Done():
			return
		case r = <-slot:
		}
		if !r.ok {
			continue
		}
		if s.ctx.Err() != nil {
			return
		}

		select {
		case <-s.ctx.Done():
			return
		case s.updates <- r.update:
		}
	}
}
