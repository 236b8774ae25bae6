package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandMethod(t *testing.T) {
	require.Equal(t, "Previous", Previous.Method())
	require.Equal(t, "PlayPause", PlayPause.Method())
	require.Equal(t, "Stop", Stop.Method())
	require.Equal(t, "Next", Next.Method())
	require.Equal(t, "", Command(0).Method())
	require.Equal(t, "Command(9)", Command(9).String())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"Previous", Previous, false},
		{"prev", Previous, false},
		{"play-pause", PlayPause, false},
		{"PlayPause", PlayPause, false},
		{"toggle", PlayPause, false},
		{"stop", Stop, false},
		{"NEXT", Next, false},
		{"seek", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDispatchRecordsOneCall(t *testing.T) {
	for _, cmd := range []Command{Previous, PlayPause, Stop, Next} {
		t.Run(cmd.String(), func(t *testing.T) {
			bus := newFakeBus()
			bus.set("PlaybackStatus", Scalar("Paused"))
			d := NewDispatcher(bus, Options{})

			status, ok := <-d.Dispatch(context.Background(), cmd)
			require.True(t, ok)
			require.Equal(t, StatusPaused, status)
			require.Equal(t, []string{PlayerInterface + "." + cmd.Method()}, bus.recordedCalls())
		})
	}
}

func TestDispatchFailureIsSilent(t *testing.T) {
	bus := newFakeBus()
	bus.set("PlaybackStatus", Scalar("Playing"))
	bus.callErr = errors.New("player refused")

	var mu sync.Mutex
	var failures []CallFailure
	d := NewDispatcher(bus, Options{OnCallError: func(f CallFailure) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, f)
	}})

	_, ok := <-d.Dispatch(context.Background(), Next)
	require.False(t, ok, "a failed command must not yield a status")
	require.Equal(t, 0, bus.readCount("PlaybackStatus"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	require.Equal(t, Next, failures[0].Command)
	var callErr *CallError
	require.ErrorAs(t, failures[0].Err, &callErr)
	require.Equal(t, "Next", callErr.Method)
}

func TestDispatchRejectsUnknownCommand(t *testing.T) {
	bus := newFakeBus()
	bus.set("PlaybackStatus", Scalar("Playing"))

	var failures []CallFailure
	d := NewDispatcher(bus, Options{OnCallError: func(f CallFailure) {
		failures = append(failures, f)
	}})

	_, ok := <-d.Dispatch(context.Background(), Command(9))
	require.False(t, ok)
	require.Empty(t, bus.recordedCalls())
	require.Equal(t, 0, bus.readCount("PlaybackStatus"))
	require.Len(t, failures, 1)
	require.Equal(t, Command(9), failures[0].Command)
	require.ErrorContains(t, failures[0].Err, "unknown command Command(9)")
}

func TestDispatchDefaultPolicyDoesNotPanic(t *testing.T) {
	bus := newFakeBus()
	bus.callErr = errors.New("boom")
	d := NewDispatcher(bus, Options{})

	_, ok := <-d.Send(context.Background(), Stop)
	require.False(t, ok)
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	bus := newFakeBus()
	bus.set("PlaybackStatus", Scalar("Playing"))
	bus.gate = make(chan struct{})
	d := NewDispatcher(bus, Options{})

	start := time.Now()
	out := d.Dispatch(context.Background(), PlayPause)
	require.Less(t, time.Since(start), 500*time.Millisecond)

	select {
	case <-out:
		t.Fatal("dispatch resolved before the call completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(bus.gate)
	status, ok := <-out
	require.True(t, ok)
	require.Equal(t, StatusPlaying, status)
}

func TestDispatchSurvivesCallerCancel(t *testing.T) {
	bus := newFakeBus()
	bus.set("PlaybackStatus", Scalar("Stopped"))
	bus.gate = make(chan struct{})
	d := NewDispatcher(bus, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	out := d.Dispatch(ctx, Stop)
	cancel()
	close(bus.gate)

	status, ok := <-out
	require.True(t, ok)
	require.Equal(t, StatusStopped, status)
}
