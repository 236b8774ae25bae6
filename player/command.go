package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Command is a playback control intent.
type Command int

const (
	Previous Command = iota + 1
	PlayPause
	Stop
	Next
)

// Method returns the player method the command maps to.
func (c Command) Method() string {
	switch c {
	case Previous:
		return "Previous"
	case PlayPause:
		return "PlayPause"
	case Stop:
		return "Stop"
	case Next:
		return "Next"
	}
	return ""
}

func (c Command) String() string {
	if m := c.Method(); m != "" {
		return m
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// ParseCommand accepts a method name or its playerctl-style spelling
// ("play-pause", "next", ...), case-insensitively.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "previous", "prev":
		return Previous, nil
	case "playpause", "toggle":
		return PlayPause, nil
	case "stop":
		return Stop, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// CallFailure describes a command whose call failed.
type CallFailure struct {
	ID      uuid.UUID
	Command Command
	Err     error
}

// ErrorPolicy receives every failed command. It is the one place that
// decides what a failure means; the dispatcher itself never reports one to
// the consumer.
type ErrorPolicy func(CallFailure)

// IgnoreErrors drops failed commands. The consumer gets neither an error nor
// a status update; only a debug line is logged.
func IgnoreErrors(log zerolog.Logger) ErrorPolicy {
	return func(f CallFailure) {
		log.Debug().
			Str("dispatch_id", f.ID.String()).
			Str("command", f.Command.String()).
			Err(f.Err).
			Msg("command failed, ignored")
	}
}

// Dispatcher issues playback commands without blocking the caller.
type Dispatcher struct {
	bus    Bus
	policy ErrorPolicy
	log    zerolog.Logger
}

func NewDispatcher(bus Bus, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{bus: bus, policy: opts.OnCallError, log: *opts.Logger}
}

// Send issues cmd. An unknown command is handed to the error policy without
// calling the player. The returned channel receives one value if the call
// succeeded and is closed afterwards; it is closed without a value if the
// call failed. The call is never cancelled by ctx once issued.
func (d *Dispatcher) Send(ctx context.Context, cmd Command) <-chan struct{} {
	out := make(chan struct{}, 1)
	id := uuid.New()
	if cmd.Method() == "" {
		d.policy(CallFailure{ID: id, Command: cmd, Err: fmt.Errorf("unknown command %s", cmd)})
		close(out)
		return out
	}
	d.log.Debug().Str("dispatch_id", id.String()).Str("command", cmd.String()).Msg("dispatching command")

	call := d.bus.CallMethod(context.WithoutCancel(ctx), PlayerInterface, cmd.Method())
	go func() {
		defer close(out)
		<-call.Done()
		if _, err := call.Result(); err != nil {
			d.policy(CallFailure{ID: id, Command: cmd, Err: err})
			return
		}
		out <- struct{}{}
	}()
	return out
}

// Dispatch issues cmd and, once it succeeds, reads the status again. The
// returned channel carries that status and is closed; after a failed call it
// is closed empty.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) <-chan PlaybackStatus {
	out := make(chan PlaybackStatus, 1)
	sent := d.Send(ctx, cmd)
	go func() {
		defer close(out)
		if _, ok := <-sent; ok {
			out <- ReadStatus(context.WithoutCancel(ctx), d.bus)
		}
	}()
	return out
}
