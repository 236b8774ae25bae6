package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mprisbar/player"
)

var (
	colorFlag     string
	noArtworkFlag bool
	playerFlag    string
	checkFlag     bool
	sendFlag      string
)

func init() {
	flag.StringVar(&colorFlag, "color", "2", "Set the desired color (name or hex)")
	flag.StringVar(&colorFlag, "c", "2", "Set the desired color (shorthand)")
	flag.BoolVar(&noArtworkFlag, "no-artwork", false, "Disable album artwork display")
	flag.StringVar(&playerFlag, "player", "", "MPRIS player to control (e.g. spotify or org.mpris.MediaPlayer2.vlc)")
	flag.BoolVar(&checkFlag, "check", false, "Print the player's current state and exit")
	flag.StringVar(&sendFlag, "send", "", "Send one command (prev, play-pause, stop, next), print the new status and exit")
}

func main() {
	flag.Parse()
	initConfig()
	cfg := config.Get()

	log, logFile, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logFile.Close()

	opts := cfg.PlayerOptions()
	opts.Logger = &log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if checkFlag {
		if err := runCheck(ctx, os.Stdout, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if sendFlag != "" {
		if err := runSend(ctx, os.Stdout, opts, sendFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	bridge, err := player.Connect(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("cannot open session bus")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer bridge.Close()
	bridge.Start()

	m := newModel(bridge, newArtworkLoader(log), log, supportsKittyGraphics())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("ui exited")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCheck opens a session, pings the player and prints what it reports
func runCheck(ctx context.Context, w io.Writer, opts player.Options) error {
	s, err := player.Open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("%s is not answering: %w", s.Service(), err)
	}
	return printState(ctx, w, s.Service(), s)
}

// runSend issues a single command and prints the status read after it.
// Unlike the UI, a failed call is reported.
func runSend(ctx context.Context, w io.Writer, opts player.Options, name string) error {
	cmd, err := player.ParseCommand(name)
	if err != nil {
		return err
	}
	s, err := player.Open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return sendCommand(ctx, w, s, opts, cmd)
}

func sendCommand(ctx context.Context, w io.Writer, bus player.Bus, opts player.Options, cmd player.Command) error {
	var failure error
	opts.OnCallError = func(f player.CallFailure) { failure = f.Err }

	status, ok := <-player.NewDispatcher(bus, opts).Dispatch(ctx, cmd)
	if !ok {
		return fmt.Errorf("%s: %w", cmd, failure)
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", cmd, status)
	return err
}

func printState(ctx context.Context, w io.Writer, service string, bus player.Bus) error {
	status := player.ReadStatus(ctx, bus)
	md := player.ReadMetadata(ctx, bus)

	_, err := fmt.Fprintf(w, "player: %s\nstatus: %s\nartist: %s\nalbum:  %s\ntitle:  %s\nlength: %s\n",
		service, status, md.Artist, md.Album, md.Title, formatDuration(md.Length))
	if err != nil {
		return err
	}
	if status == player.StatusError {
		return errors.New("could not read playback status")
	}
	return nil
}
