package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"mprisbar/player"
)

// model is the Bubble Tea model: the cached player state plus UI state
type model struct {
	status     player.PlaybackStatus
	metadata   player.Metadata
	controller Controller
	artwork    *artworkLoader
	log        zerolog.Logger

	color  string
	width  int
	height int

	// lastSeq guards against an older fetch overwriting a newer one
	lastSeq map[player.UpdateKind]uint64

	// Smooth position interpolation between position reads
	lastPosition     time.Duration
	lastPositionTime time.Time

	// Album artwork support
	artworkEncoded string // Kitty protocol-encoded artwork for display
	supportsKitty  bool   // Whether terminal supports Kitty graphics
	artURL         string // URL the current artwork was loaded from

	// Text scrolling state
	scrollOffset int
	scrollPause  int
	scrollTick   int

	lastError error
	showHelp  bool
}

func newModel(c Controller, loader *artworkLoader, log zerolog.Logger, supportsKitty bool) model {
	cfg := config.Get()
	return model{
		status:        player.StatusStopped,
		controller:    c,
		artwork:       loader,
		log:           log,
		color:         cfg.UI.Color,
		lastSeq:       map[player.UpdateKind]uint64{},
		supportsKitty: supportsKitty,
	}
}

// UI refresh tick, drives scrolling and the progress bar
type tickMsg time.Time

// updateMsg wraps one notification from the bridge
type updateMsg player.Update

// Result of loading artwork in the background
type artworkMsg struct {
	url     string
	encoded string
	color   string
	err     error
}

// Result of a reconnect attempt
type reconnectMsg struct{ err error }

// Schedule next UI refresh tick
func tickCmd() tea.Cmd {
	cfg := config.Get()
	return tea.Tick(time.Duration(cfg.Timing.UIRefreshMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForUpdate blocks on the bridge until the next notification
func waitForUpdate(updates <-chan player.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

func (m model) reconnectCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return reconnectMsg{err: m.controller.Reconnect(ctx)}
	}
}

// loadArtworkCmd fetches and encodes artwork off the UI goroutine
func (m model) loadArtworkCmd(artURL string) tea.Cmd {
	cfg := config.Get()
	loader := m.artwork
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		data, err := loader.Load(ctx, artURL)
		if err != nil {
			return artworkMsg{url: artURL, err: err}
		}

		msg := artworkMsg{url: artURL}
		// Artwork decoding of untrusted images must never take the UI down
		func() {
			defer func() {
				if r := recover(); r != nil {
					msg.encoded, msg.color = "", ""
				}
			}()
			color, encoded, err := processArtwork(data, cfg.UI.ColorMode == "auto", cfg)
			msg.color, msg.encoded, msg.err = color, encoded, err
		}()
		return msg
	}
}

// currentPosition interpolates from the last position read while playing
func (m model) currentPosition() time.Duration {
	if !m.status.IsPlaying() || m.lastPositionTime.IsZero() {
		return m.lastPosition
	}
	pos := m.lastPosition + time.Since(m.lastPositionTime)
	if m.metadata.Length > 0 && pos > m.metadata.Length {
		pos = m.metadata.Length
	}
	return pos
}

func (m model) artworkWanted() bool {
	return m.supportsKitty && m.artwork != nil && config.Get().Artwork.Enabled
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForUpdate(m.controller.Updates()),
		watchConfigCmd(),
		func() tea.Msg {
			m.controller.Refresh()
			return nil
		},
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "b":
			// The status refresh after the call arrives as an ordinary update
			m.controller.Issue(player.Previous)
			return m, nil
		case "p", " ":
			m.controller.Issue(player.PlayPause)
			return m, nil
		case "s":
			// Stop is only offered while playing
			if m.status.IsPlaying() {
				m.controller.Issue(player.Stop)
			}
			return m, nil
		case "n":
			m.controller.Issue(player.Next)
			return m, nil
		case "r":
			return m, m.reconnectCmd()
		case "a":
			cfg := config.Get()
			cfg.Artwork.Enabled = !cfg.Artwork.Enabled
			config.Set(cfg)
			if !cfg.Artwork.Enabled {
				m.artworkEncoded = ""
				m.artURL = ""
				return m, nil
			}
			if m.artworkWanted() && m.metadata.ArtURL != "" {
				m.artURL = m.metadata.ArtURL
				return m, m.loadArtworkCmd(m.metadata.ArtURL)
			}
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case configReloadMsg:
		cfg := config.Get()
		if cfg.UI.ColorMode == "manual" {
			m.color = cfg.UI.Color
		}
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
			m.artURL = ""
		} else if m.artworkWanted() && m.artworkEncoded == "" && m.metadata.ArtURL != "" {
			m.artURL = m.metadata.ArtURL
			return m, tea.Batch(watchConfigCmd(), m.loadArtworkCmd(m.metadata.ArtURL))
		}
		return m, watchConfigCmd()

	case tickMsg:
		m.advanceScroll()
		return m, tickCmd()

	case updateMsg:
		cmd := m.applyUpdate(player.Update(msg))
		return m, tea.Batch(waitForUpdate(m.controller.Updates()), cmd)

	case artworkMsg:
		// Ignore artwork for a track we already moved past
		if msg.url != m.artURL {
			return m, nil
		}
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Str("url", msg.url).Msg("artwork unavailable")
			m.artworkEncoded = ""
			return m, nil
		}
		m.artworkEncoded = msg.encoded
		if msg.color != "" && config.Get().UI.ColorMode == "auto" {
			m.color = msg.color
		}
		return m, nil

	case reconnectMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		return m, func() tea.Msg {
			m.controller.Refresh()
			return nil
		}
	}

	return m, nil
}

// applyUpdate replaces the cached copy the update refers to. Updates older
// than one already applied for the same kind are dropped.
func (m *model) applyUpdate(u player.Update) tea.Cmd {
	if u.Seq < m.lastSeq[u.Kind] {
		return nil
	}
	m.lastSeq[u.Kind] = u.Seq

	switch u.Kind {
	case player.StatusUpdated:
		// Carry the interpolated position over, under the old status, so a
		// status read without a position read neither rewinds nor skips
		if !m.lastPositionTime.IsZero() {
			m.lastPosition = m.currentPosition()
		}
		m.status = u.Status
		m.lastPositionTime = time.Now()

	case player.PositionUpdated:
		m.lastPosition = u.Position
		m.lastPositionTime = time.Now()

	case player.MetadataUpdated:
		if u.Metadata.TrackID() != m.metadata.TrackID() {
			m.scrollOffset = 0
			m.scrollPause = 30 // Pause at start for 3 seconds
			m.scrollTick = 0
		}
		m.metadata = u.Metadata

		if u.Metadata.ArtURL != m.artURL {
			m.artURL = u.Metadata.ArtURL
			m.artworkEncoded = ""
			if m.artworkWanted() && m.artURL != "" {
				return m.loadArtworkCmd(m.artURL)
			}
		}
	}
	return nil
}

// advanceScroll moves long text one step every third tick and pauses for
// three seconds whenever the text loops
func (m *model) advanceScroll() {
	m.scrollTick++
	if m.scrollPause > 0 {
		m.scrollPause--
		return
	}
	if m.scrollTick%3 != 0 {
		return
	}
	m.scrollOffset++

	longest := 0
	for _, s := range []string{m.metadata.Title, m.metadata.Artist, m.metadata.Album} {
		longest = max(longest, len([]rune(s)))
	}
	if longest > m.maxTextLen() && m.scrollOffset >= longest+len([]rune(scrollSeparator)) {
		m.scrollOffset = 0
		m.scrollPause = 30
	}
}

func (m model) maxTextLen() int {
	cfg := config.Get()
	if m.supportsKitty && cfg.Artwork.Enabled {
		return cfg.Text.MaxLengthWithArt
	}
	return cfg.Text.MaxLengthNoArt
}
