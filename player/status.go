package player

import (
	"context"
	"time"
)

// PlaybackStatus is the player's PlaybackStatus property. Text read
// successfully is kept verbatim; only failures are normalized to StatusError.
type PlaybackStatus string

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"

	// StatusError stands for any failed or unreadable status.
	StatusError PlaybackStatus = "Error"
)

func (s PlaybackStatus) String() string { return string(s) }

// IsPlaying matches the exact text "Playing".
func (s PlaybackStatus) IsPlaying() bool { return s == StatusPlaying }

// ReadStatus performs one synchronous read of PlaybackStatus.
func ReadStatus(ctx context.Context, bus Bus) PlaybackStatus {
	v, err := bus.GetProperty(ctx, PlayerInterface, "PlaybackStatus")
	if err != nil {
		return StatusError
	}
	text, ok := v.AsText()
	if !ok {
		return StatusError
	}
	return PlaybackStatus(text)
}

// ReadPosition reads the Position property (microseconds). The second result
// is false when the read failed or the player does not report a position.
func ReadPosition(ctx context.Context, bus Bus) (time.Duration, bool) {
	v, err := bus.GetProperty(ctx, PlayerInterface, "Position")
	if err != nil {
		return 0, false
	}
	if _, ok := v.AsText(); !ok {
		return 0, false
	}
	return microseconds(v), true
}
