// Command fakeplayer registers an in-memory MPRIS player on the session bus
// so mprisbar can be exercised without a real media player.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/rs/zerolog"
)

func main() {
	name := flag.String("name", "fakeplayer", "name registered as org.mpris.MediaPlayer2.<name>")
	artURL := flag.String("art-url", "", "mpris:artUrl reported for every track")
	play := flag.Bool("play", false, "start in the Playing state")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	tracks := append([]track(nil), defaultTracks...)
	for i := range tracks {
		tracks[i].artURL = *artURL
	}

	p := newFakePlayer(*name, tracks)
	s := server.NewServer(*name, p, p)
	evt := events.NewEventHandler(s)
	p.onChange = func() {
		status, _ := p.PlaybackStatus()
		md, _ := p.Metadata()
		log.Info().Str("status", string(status)).Str("title", md.Title).Msg("state changed")
		emitChanges(log,
			emitter{property: "PlaybackStatus", emit: evt.Player.OnPlayPause},
			emitter{property: "Metadata", emit: evt.Player.OnTitle},
		)
	}
	if *play {
		p.Play()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- s.Listen() }()
	log.Info().Str("service", "org.mpris.MediaPlayer2."+*name).Msg("listening")

	select {
	case err := <-errc:
		log.Fatal().Err(err).Msg("cannot serve on session bus")
	case <-ctx.Done():
	}
	s.Stop()
}

type emitter struct {
	property string
	emit     func() error
}

// emitChanges sends PropertiesChanged signals, logging any that fail.
func emitChanges(log zerolog.Logger, emitters ...emitter) {
	for _, e := range emitters {
		if err := e.emit(); err != nil {
			log.Warn().Err(err).Str("property", e.property).Msg("emitting property change")
		}
	}
}
