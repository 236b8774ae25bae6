package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

var (
	_ types.OrgMprisMediaPlayer2Adapter       = (*fakePlayer)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*fakePlayer)(nil)
)

var errNotSupported = errors.New("not supported")

type track struct {
	title   string
	album   string
	artists []string
	artURL  string
	length  time.Duration
}

var defaultTracks = []track{
	{title: "Get Lucky", album: "Random Access Memories", artists: []string{"Daft Punk", "Pharrell Williams"}, length: 248 * time.Second},
	{title: "Windowlicker", album: "Windowlicker", artists: []string{"Aphex Twin"}, length: 367 * time.Second},
	{title: "Teardrop", album: "Mezzanine", artists: []string{"Massive Attack"}, length: 330 * time.Second},
}

// fakePlayer is an in-memory MPRIS player cycling through a fixed playlist.
// The clock is injectable so tests can move time.
type fakePlayer struct {
	mu      sync.Mutex
	name    string
	tracks  []track
	current int
	status  types.PlaybackStatus

	// elapsed up to startedAt; the running part is added while playing
	elapsed   time.Duration
	startedAt time.Time
	now       func() time.Time

	// onChange fires after a state change, outside the lock
	onChange func()
}

func newFakePlayer(name string, tracks []track) *fakePlayer {
	return &fakePlayer{
		name:   name,
		tracks: tracks,
		status: types.PlaybackStatusStopped,
		now:    time.Now,
	}
}

func (p *fakePlayer) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *fakePlayer) positionLocked() time.Duration {
	pos := p.elapsed
	if p.status == types.PlaybackStatusPlaying {
		pos += p.now().Sub(p.startedAt)
	}
	if l := p.tracks[p.current].length; pos > l {
		pos = l
	}
	return pos
}

func (p *fakePlayer) setStatusLocked(s types.PlaybackStatus) {
	switch {
	case s == types.PlaybackStatusPlaying && p.status != types.PlaybackStatusPlaying:
		p.startedAt = p.now()
	case s != types.PlaybackStatusPlaying && p.status == types.PlaybackStatusPlaying:
		p.elapsed = p.positionLocked()
	}
	if s == types.PlaybackStatusStopped {
		p.elapsed = 0
	}
	p.status = s
}

func (p *fakePlayer) skip(delta int) error {
	p.mu.Lock()
	n := len(p.tracks)
	p.current = ((p.current+delta)%n + n) % n
	p.elapsed = 0
	p.startedAt = p.now()
	p.mu.Unlock()
	p.changed()
	return nil
}

func (p *fakePlayer) transition(to func(types.PlaybackStatus) types.PlaybackStatus) error {
	p.mu.Lock()
	p.setStatusLocked(to(p.status))
	p.mu.Unlock()
	p.changed()
	return nil
}

// org.mpris.MediaPlayer2

func (p *fakePlayer) Identity() (string, error)              { return p.name, nil }
func (p *fakePlayer) CanQuit() (bool, error)                 { return false, nil }
func (p *fakePlayer) Quit() error                            { return errNotSupported }
func (p *fakePlayer) CanRaise() (bool, error)                { return false, nil }
func (p *fakePlayer) Raise() error                           { return errNotSupported }
func (p *fakePlayer) HasTrackList() (bool, error)            { return false, nil }
func (p *fakePlayer) SupportedUriSchemes() ([]string, error) { return nil, nil }
func (p *fakePlayer) SupportedMimeTypes() ([]string, error)  { return nil, nil }

// org.mpris.MediaPlayer2.Player

func (p *fakePlayer) Next() error     { return p.skip(1) }
func (p *fakePlayer) Previous() error { return p.skip(-1) }

func (p *fakePlayer) Pause() error {
	return p.transition(func(s types.PlaybackStatus) types.PlaybackStatus {
		if s == types.PlaybackStatusPlaying {
			return types.PlaybackStatusPaused
		}
		return s
	})
}

func (p *fakePlayer) Play() error {
	return p.transition(func(types.PlaybackStatus) types.PlaybackStatus {
		return types.PlaybackStatusPlaying
	})
}

func (p *fakePlayer) PlayPause() error {
	return p.transition(func(s types.PlaybackStatus) types.PlaybackStatus {
		if s == types.PlaybackStatusPlaying {
			return types.PlaybackStatusPaused
		}
		return types.PlaybackStatusPlaying
	})
}

func (p *fakePlayer) Stop() error {
	return p.transition(func(types.PlaybackStatus) types.PlaybackStatus {
		return types.PlaybackStatusStopped
	})
}

func (p *fakePlayer) Seek(offset types.Microseconds) error {
	p.mu.Lock()
	pos := max(p.positionLocked()+time.Duration(offset)*time.Microsecond, 0)
	p.elapsed = pos
	p.startedAt = p.now()
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) SetPosition(trackID string, position types.Microseconds) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if trackID != string(p.trackPathLocked()) {
		return nil
	}
	p.elapsed = time.Duration(position) * time.Microsecond
	p.startedAt = p.now()
	return nil
}

func (p *fakePlayer) OpenUri(uri string) error { return errNotSupported }

func (p *fakePlayer) PlaybackStatus() (types.PlaybackStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *fakePlayer) Rate() (float64, error)        { return 1, nil }
func (p *fakePlayer) SetRate(float64) error         { return errNotSupported }
func (p *fakePlayer) Volume() (float64, error)      { return 1, nil }
func (p *fakePlayer) SetVolume(float64) error       { return errNotSupported }
func (p *fakePlayer) MinimumRate() (float64, error) { return 1, nil }
func (p *fakePlayer) MaximumRate() (float64, error) { return 1, nil }

func (p *fakePlayer) trackPathLocked() dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("/org/mprisbar/fakeplayer/track/%d", p.current))
}

func (p *fakePlayer) Metadata() (types.Metadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tr := p.tracks[p.current]
	return types.Metadata{
		TrackId: p.trackPathLocked(),
		Length:  types.Microseconds(tr.length / time.Microsecond),
		Title:   tr.title,
		Album:   tr.album,
		Artist:  tr.artists,
		ArtUrl:  tr.artURL,
	}, nil
}

func (p *fakePlayer) Position() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(p.positionLocked() / time.Microsecond), nil
}

func (p *fakePlayer) CanGoNext() (bool, error)     { return true, nil }
func (p *fakePlayer) CanGoPrevious() (bool, error) { return true, nil }
func (p *fakePlayer) CanPlay() (bool, error)       { return true, nil }
func (p *fakePlayer) CanPause() (bool, error)      { return true, nil }
func (p *fakePlayer) CanSeek() (bool, error)       { return true, nil }
func (p *fakePlayer) CanControl() (bool, error)    { return true, nil }
