package main

import (
	"context"
	"image"
	"image/color"
	"sync"

	"mprisbar/player"
)

// generateTestImage creates a solid test image with the given dimensions
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// generateGradientImage creates a vertical gradient for color extraction tests
func generateGradientImage(width, height int, startColor, endColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-ratio) + float64(endColor.R)*ratio)
		g := uint8(float64(startColor.G)*(1-ratio) + float64(endColor.G)*ratio)
		b := uint8(float64(startColor.B)*(1-ratio) + float64(endColor.B)*ratio)

		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

// isValidHexColor checks for "#RRGGBB"
func isValidHexColor(c string) bool {
	return len(c) == 7 && hexColorPattern.MatchString(c)
}

// fakeController stands in for the bridge in model tests
type fakeController struct {
	mu           sync.Mutex
	updates      chan player.Update
	issued       []player.Command
	refreshes    int
	reconnects   int
	reconnectErr error
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan player.Update, 16)}
}

func (f *fakeController) Updates() <-chan player.Update { return f.updates }

func (f *fakeController) Issue(cmd player.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, cmd)
}

func (f *fakeController) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeController) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return f.reconnectErr
}

func (f *fakeController) issuedCommands() []player.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]player.Command(nil), f.issued...)
}
