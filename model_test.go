package main

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mprisbar/player"
)

func newTestModel(t *testing.T) (model, *fakeController) {
	t.Helper()
	config.Set(defaultConfig(t))
	fc := newFakeController()
	return newModel(fc, nil, zerolog.Nop(), false), fc
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m model, s string) model {
	next, _ := m.Update(key(s))
	return next.(model)
}

func TestKeysIssueCommands(t *testing.T) {
	m, fc := newTestModel(t)
	m.status = player.StatusPlaying

	for _, k := range []string{"b", "p", " ", "s", "n"} {
		m = press(m, k)
	}

	assert.Equal(t, []player.Command{
		player.Previous, player.PlayPause, player.PlayPause, player.Stop, player.Next,
	}, fc.issuedCommands())
}

func TestStopOnlyWhilePlaying(t *testing.T) {
	for _, status := range []player.PlaybackStatus{
		player.StatusPaused, player.StatusStopped, player.StatusError, "playing",
	} {
		t.Run(string(status), func(t *testing.T) {
			m, fc := newTestModel(t)
			m.status = status
			press(m, "s")
			assert.Empty(t, fc.issuedCommands())
		})
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApplyUpdate(t *testing.T) {
	m, _ := newTestModel(t)

	m.applyUpdate(player.Update{Seq: 1, Kind: player.StatusUpdated, Status: player.StatusPlaying})
	m.applyUpdate(player.Update{Seq: 2, Kind: player.MetadataUpdated, Metadata: player.Metadata{
		Title: "Get Lucky", Artist: "Daft Punk", Length: 4 * time.Minute,
	}})
	m.applyUpdate(player.Update{Seq: 3, Kind: player.PositionUpdated, Position: time.Minute})

	assert.Equal(t, player.StatusPlaying, m.status)
	assert.Equal(t, "Get Lucky", m.metadata.Title)
	assert.GreaterOrEqual(t, m.currentPosition(), time.Minute)
	assert.LessOrEqual(t, m.currentPosition(), 4*time.Minute)
}

func TestApplyUpdateDropsStale(t *testing.T) {
	m, _ := newTestModel(t)

	m.applyUpdate(player.Update{Seq: 5, Kind: player.StatusUpdated, Status: player.StatusPaused})
	m.applyUpdate(player.Update{Seq: 4, Kind: player.StatusUpdated, Status: player.StatusPlaying})
	assert.Equal(t, player.StatusPaused, m.status)

	// sequence numbers are tracked per kind
	m.applyUpdate(player.Update{Seq: 1, Kind: player.MetadataUpdated, Metadata: player.Metadata{Title: "A"}})
	assert.Equal(t, "A", m.metadata.Title)
}

func TestApplyUpdateResetsScrollOnTrackChange(t *testing.T) {
	m, _ := newTestModel(t)
	m.applyUpdate(player.Update{Seq: 1, Kind: player.MetadataUpdated, Metadata: player.Metadata{Title: "A"}})
	m.scrollOffset = 7

	m.applyUpdate(player.Update{Seq: 2, Kind: player.MetadataUpdated, Metadata: player.Metadata{Title: "A"}})
	assert.Equal(t, 7, m.scrollOffset)

	m.applyUpdate(player.Update{Seq: 3, Kind: player.MetadataUpdated, Metadata: player.Metadata{Title: "B"}})
	assert.Equal(t, 0, m.scrollOffset)
}

func TestPausedPositionFreezes(t *testing.T) {
	m, _ := newTestModel(t)
	m.applyUpdate(player.Update{Seq: 1, Kind: player.StatusUpdated, Status: player.StatusPaused})
	m.applyUpdate(player.Update{Seq: 2, Kind: player.PositionUpdated, Position: 30 * time.Second})
	assert.Equal(t, 30*time.Second, m.currentPosition())
}

func TestStatusUpdateKeepsInterpolatedPosition(t *testing.T) {
	m, _ := newTestModel(t)
	m.applyUpdate(player.Update{Seq: 1, Kind: player.StatusUpdated, Status: player.StatusPlaying})
	m.applyUpdate(player.Update{Seq: 2, Kind: player.PositionUpdated, Position: time.Minute})
	m.lastPositionTime = time.Now().Add(-300 * time.Millisecond)

	m.applyUpdate(player.Update{Seq: 3, Kind: player.StatusUpdated, Status: player.StatusPlaying})
	assert.GreaterOrEqual(t, m.currentPosition(), time.Minute+300*time.Millisecond)
}

func TestPauseFreezesInterpolatedPosition(t *testing.T) {
	m, _ := newTestModel(t)
	m.applyUpdate(player.Update{Seq: 1, Kind: player.StatusUpdated, Status: player.StatusPlaying})
	m.applyUpdate(player.Update{Seq: 2, Kind: player.PositionUpdated, Position: time.Minute})
	m.lastPositionTime = time.Now().Add(-2 * time.Second)

	m.applyUpdate(player.Update{Seq: 3, Kind: player.StatusUpdated, Status: player.StatusPaused})
	frozen := m.currentPosition()
	assert.GreaterOrEqual(t, frozen, time.Minute+2*time.Second)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, m.currentPosition())
}

func TestUpdateMsgWaitsForNext(t *testing.T) {
	m, fc := newTestModel(t)
	next, cmd := m.Update(updateMsg(player.Update{Seq: 1, Kind: player.StatusUpdated, Status: player.StatusPlaying}))
	assert.Equal(t, player.StatusPlaying, next.(model).status)
	require.NotNil(t, cmd)

	fc.updates <- player.Update{Seq: 2, Kind: player.StatusUpdated, Status: player.StatusPaused}
	got := cmd()
	if batch, ok := got.(tea.BatchMsg); ok {
		require.NotEmpty(t, batch)
		got = batch[0]()
	}
	assert.Equal(t, updateMsg(player.Update{Seq: 2, Kind: player.StatusUpdated, Status: player.StatusPaused}), got)
}

func TestReconnect(t *testing.T) {
	m, fc := newTestModel(t)
	fc.reconnectErr = errors.New("no bus")

	_, cmd := m.Update(key("r"))
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, reconnectMsg{err: fc.reconnectErr}, msg)

	next, _ := m.Update(msg)
	assert.EqualError(t, next.(model).lastError, "no bus")

	next, cmd = next.(model).Update(reconnectMsg{})
	assert.NoError(t, next.(model).lastError)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, fc.refreshes)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Pause", playLabel(player.StatusPlaying))
	assert.Equal(t, "Play", playLabel(player.StatusPaused))
	assert.Equal(t, "Play", playLabel(player.StatusError))
	assert.True(t, stopEnabled(player.StatusPlaying))
	assert.False(t, stopEnabled(player.StatusStopped))
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	m.width, m.height = 80, 30

	assert.Contains(t, m.View(), "Nothing playing")

	m.status = player.StatusError
	assert.Contains(t, m.View(), "Player not reachable")

	m.status = player.StatusPlaying
	m.metadata = player.Metadata{Title: "Get Lucky", Artist: "Daft Punk", Length: 4 * time.Minute}
	view := m.View()
	assert.Contains(t, view, "Get Lucky")
	assert.Contains(t, view, "Daft Punk")
	assert.Contains(t, view, "[p] Pause")
	assert.Contains(t, view, "[s] Stop")
	assert.Contains(t, view, "04:00")
}
