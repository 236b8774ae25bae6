package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func playingBus() *fakeBus {
	bus := newFakeBus()
	bus.set("PlaybackStatus", Scalar("Playing"))
	bus.set("Position", Scalar("1000000"))
	bus.set("Metadata", Entries(
		Entry{Key: "xesam:artist", Value: Strings("Artist")},
		Entry{Key: "xesam:title", Value: Scalar("Title")},
	))
	return bus
}

func TestPollerTicksAreNotDeduplicated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := playingBus()
	sched := NewScheduler(ctx, 4)
	p := NewPoller(sched, bus, Options{})

	for i := 0; i < 2; i++ {
		p.TickStatus()
		p.TickMetadata()
	}

	var statuses, metadata []Update
	for i := 0; i < 4; i++ {
		u := receive(t, sched.Updates())
		switch u.Kind {
		case StatusUpdated:
			statuses = append(statuses, u)
		case MetadataUpdated:
			metadata = append(metadata, u)
		}
	}

	require.Len(t, statuses, 2)
	require.Len(t, metadata, 2)
	require.Equal(t, statuses[0].Status, statuses[1].Status)
	require.NotEqual(t, statuses[0].Seq, statuses[1].Seq)
	require.Equal(t, metadata[0].Metadata, metadata[1].Metadata)
	require.Equal(t, "Artist", metadata[1].Metadata.Artist)
	require.Equal(t, 2, bus.readCount("PlaybackStatus"))
	require.Equal(t, 2, bus.readCount("Metadata"))
}

func TestPollerStatusFailureYieldsSentinel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched := NewScheduler(ctx, 1)
	p := NewPoller(sched, newFakeBus(), Options{})

	p.TickStatus()
	p.TickMetadata()

	u := receive(t, sched.Updates())
	require.Equal(t, StatusUpdated, u.Kind)
	require.Equal(t, StatusError, u.Status)
	u = receive(t, sched.Updates())
	require.Equal(t, MetadataUpdated, u.Kind)
	require.Equal(t, Metadata{}, u.Metadata)
}

func TestPollerTracksPosition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched := NewScheduler(ctx, 1)
	p := NewPoller(sched, playingBus(), Options{TrackPosition: true})

	p.TickStatus()
	require.Equal(t, StatusUpdated, receive(t, sched.Updates()).Kind)
	u := receive(t, sched.Updates())
	require.Equal(t, PositionUpdated, u.Kind)
	require.Equal(t, time.Second, u.Position)
}

func TestPollerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched := NewScheduler(ctx, 2)
	p := NewPoller(sched, playingBus(), Options{PollInterval: 10 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	seen := map[UpdateKind]int{}
	for seen[StatusUpdated] < 2 || seen[MetadataUpdated] < 2 {
		seen[receive(t, sched.Updates()).Kind]++
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
