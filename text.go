package main

import (
	"fmt"
	"time"
)

// scrollSeparator is appended to scrolling text so the loop reads cleanly
const scrollSeparator = "  •  "

// formatTime converts seconds to MM:SS format
func formatTime(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// formatDuration formats a track position or length as MM:SS
func formatDuration(d time.Duration) string {
	return formatTime(int64(d / time.Second))
}

// scrollText returns a scrolling window of text with smooth looping
func scrollText(text string, max int, offset int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	fullText := append(runes, []rune(scrollSeparator)...)
	textLen := len(fullText)

	// Wrap offset around
	offset = offset % textLen

	result := make([]rune, 0, max)
	for i := 0; i < max; i++ {
		result = append(result, fullText[(offset+i)%textLen])
	}
	return string(result)
}
