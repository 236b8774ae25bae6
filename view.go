package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mprisbar/player"
)

// playLabel mirrors the toggle: it offers Pause only while the player
// reports exactly "Playing"
func playLabel(status player.PlaybackStatus) string {
	if status.IsPlaying() {
		return "Pause"
	}
	return "Play"
}

// stopEnabled reports whether Stop is offered
func stopEnabled(status player.PlaybackStatus) bool {
	return status.IsPlaying()
}

func statusIcon(status player.PlaybackStatus) string {
	switch status {
	case player.StatusPaused:
		return "󰏤 "
	case player.StatusStopped:
		return "󰓛 "
	case player.StatusError:
		return "󰅚 "
	}
	return "󰐊 "
}

func (m model) View() string {
	cfg := config.Get()

	color := lipgloss.Color(m.color)
	highlight := lipgloss.NewStyle().Foreground(color)
	white := lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // ANSI white
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	labelStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	var textContent strings.Builder
	textContent.WriteString(highlight.Render("󰓃 Now Playing") + "\n\n")

	nothing := m.metadata == (player.Metadata{})
	switch {
	case m.lastError != nil:
		textContent.WriteString(errorStyle.Render("Error: "+m.lastError.Error()) + "\n")
	case m.status == player.StatusError && nothing:
		textContent.WriteString(mutedStyle.Render("Player not reachable") + "\n\n")
		textContent.WriteString(dimStyle.Render("Press r to reconnect") + "\n")
	case nothing:
		textContent.WriteString(mutedStyle.Render("Nothing playing") + "\n\n")
		textContent.WriteString(dimStyle.Render("Start playing music to begin") + "\n")
	}

	addLine := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&textContent, "%s %s\n", labelStyle.Render(label), value)
		}
	}

	maxLen := m.maxTextLen()
	addLine("󰎈 ", scrollText(m.metadata.Title, maxLen, m.scrollOffset))
	addLine("󰠃 ", scrollText(m.metadata.Artist, maxLen, m.scrollOffset))
	addLine("󰀥 ", scrollText(m.metadata.Album, maxLen, m.scrollOffset))
	addLine(statusIcon(m.status), m.status.String())

	var progressBarContent string
	if m.metadata.Length > 0 {
		pos := m.currentPosition()
		progress := float64(pos) / float64(m.metadata.Length)
		progress = min(max(progress, 0), 1)

		// Leave room for the timestamps
		barWidth := max(cfg.UI.MaxWidth-17, 1)
		filled := int(float64(barWidth) * progress)
		progressBar := highlight.Render(strings.Repeat("█", filled)) +
			white.Render(strings.Repeat("─", barWidth-filled))

		progressBarContent = fmt.Sprintf(
			"\n%s %s/%s",
			progressBar,
			highlight.Render(formatDuration(pos)),
			highlight.Render(formatDuration(m.metadata.Length)),
		)
	}

	var topSection string
	if m.artworkEncoded != "" && m.supportsKitty && cfg.Artwork.Enabled {
		paddedText := lipgloss.NewStyle().
			PaddingLeft(cfg.Artwork.Padding).
			Render(textContent.String())
		topSection = m.artworkEncoded + paddedText
	} else if m.supportsKitty {
		// Clear any image left from a previous track
		topSection = kittyDeleteAll + textContent.String()
	} else {
		topSection = textContent.String()
	}

	contentStr := borderStyle.
		Width(cfg.UI.MaxWidth).
		Render(topSection + progressBarContent)

	fullUI := lipgloss.JoinVertical(lipgloss.Center, contentStr, m.controls(highlight, mutedStyle), "\n"+m.helpText(highlight))

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		fullUI,
	)
}

// controls renders the Prev / Play-Pause / Stop / Next row
func (m model) controls(active, disabled lipgloss.Style) string {
	button := lipgloss.NewStyle().Padding(0, 1)

	stop := active.Inherit(button).Render("[s] Stop")
	if !stopEnabled(m.status) {
		stop = disabled.Inherit(button).Render("[s] Stop")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		active.Inherit(button).Render("[b] Prev"),
		active.Inherit(button).Render("[p] "+playLabel(m.status)),
		stop,
		active.Inherit(button).Render("[n] Next"),
	)
}

func (m model) helpText(highlight lipgloss.Style) string {
	cfg := config.Get()
	if !m.showHelp {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("Press ? for help")
	}
	return lipgloss.NewStyle().
		Width(cfg.UI.MaxWidth).
		Align(lipgloss.Center).
		Render(lipgloss.JoinHorizontal(
			lipgloss.Center,
			"Reconnect: "+highlight.Render("r"),
			"  Toggle Art: "+highlight.Render("a"),
			"  Quit: "+highlight.Render("q"),
			"  Hide: "+highlight.Render("?"),
		))
}
