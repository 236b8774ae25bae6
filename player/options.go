package player

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ServicePrefix is the well-known name prefix of every MPRIS player.
	ServicePrefix = "org.mpris.MediaPlayer2."

	DefaultService      = ServicePrefix + "mopidy"
	DefaultObjectPath   = "/org/mpris/MediaPlayer2"
	DefaultTimeout      = 5000 * time.Millisecond
	DefaultPollInterval = 350 * time.Millisecond
	DefaultWorkers      = 4
)

// Options configure a Session and a Bridge. Zero fields take the defaults.
type Options struct {
	Service      string
	ObjectPath   string
	Timeout      time.Duration
	PollInterval time.Duration
	Workers      int

	// TrackPosition adds a Position read to every status tick.
	TrackPosition bool

	// OnCallError is the error policy for failed commands. Nil means
	// IgnoreErrors.
	OnCallError ErrorPolicy

	Logger *zerolog.Logger
}

// ServiceName expands a bare player name like "spotify" into its MPRIS
// well-known name. Names that already contain a dot are returned unchanged.
func ServiceName(player string) string {
	if player == "" {
		return DefaultService
	}
	if strings.Contains(player, ".") {
		return player
	}
	return ServicePrefix + player
}

func (o Options) withDefaults() Options {
	o.Service = ServiceName(o.Service)
	if o.ObjectPath == "" {
		o.ObjectPath = DefaultObjectPath
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.OnCallError == nil {
		o.OnCallError = IgnoreErrors(*o.Logger)
	}
	return o
}
