package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
)

// maxArtworkBytes caps downloads; covers are rarely above a few hundred KB.
const maxArtworkBytes = 10 << 20

// artworkLoader fetches the image behind an mpris:artUrl.
type artworkLoader struct {
	client *retryablehttp.Client
}

func newArtworkLoader(log zerolog.Logger) *artworkLoader {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = leveledLogger{log: log.With().Str("component", "artwork").Logger()}
	return &artworkLoader{client: client}
}

// Load returns the raw image bytes for file://, http(s):// and base64 data:
// URLs.
func (l *artworkLoader) Load(ctx context.Context, artURL string) ([]byte, error) {
	if artURL == "" {
		return nil, fmt.Errorf("no artwork URL")
	}

	if strings.HasPrefix(artURL, "data:") {
		return decodeDataURL(artURL)
	}

	u, err := url.Parse(artURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artwork URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork file: %w", err)
		}
		return data, nil
	case "http", "https":
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, artURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download artwork: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("artwork download failed with status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork data: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported artwork URL scheme: %s", artURL)
}

// decodeDataURL handles data:[<mediatype>];base64,<data>
func decodeDataURL(artURL string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(artURL, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return data, nil
}

// leveledLogger routes retryablehttp's logging into zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Trace().Fields(kv).Msg(msg) }

// decodeArtworkData decodes raw image bytes (PNG, JPEG, GIF or WebP)
func decodeArtworkData(imgData []byte) (image.Image, error) {
	if len(imgData) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// extractDominantColor picks a vibrant, light colour suitable for a dark
// background and returns it as #rrggbb
func extractDominantColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	bounds := img.Bounds()

	// Sample every 5th pixel in both directions
	counts := make(map[uint32]int)
	const sampleRate = 5
	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleRate {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleRate {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 32768 {
				continue
			}
			rgb := (uint32(uint8(r>>8)) << 16) | (uint32(uint8(g>>8)) << 8) | uint32(uint8(b>>8))
			counts[rgb]++
		}
	}

	type candidate struct {
		rgb   uint32
		score float64
	}
	var candidates []candidate
	for rgb, count := range counts {
		lightness, saturation := hsl(rgb)

		// Skip colors that are too dark, near-white, or washed out
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}

		// Ideal lightness is around 0.5-0.7
		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}
		score := saturation*2.5 + lightnessScore*1.5 + float64(count)/1000.0
		candidates = append(candidates, candidate{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		// Fall back to K-means when sampling finds nothing usable
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0]
		return fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rgb < candidates[j].rgb
	})

	best := candidates[0].rgb
	return fmt.Sprintf("#%02x%02x%02x", uint8(best>>16), uint8(best>>8), uint8(best)), nil
}

// hsl returns lightness and saturation of a packed 0xRRGGBB colour
func hsl(rgb uint32) (lightness, saturation float64) {
	rf := float64(uint8(rgb>>16)) / 255.0
	gf := float64(uint8(rgb>>8)) / 255.0
	bf := float64(uint8(rgb)) / 255.0

	hi := max(rf, gf, bf)
	lo := min(rf, gf, bf)
	lightness = (hi + lo) / 2.0
	if hi == lo {
		return lightness, 0
	}
	if lightness > 0.5 {
		return lightness, (hi - lo) / (2.0 - hi - lo)
	}
	return lightness, (hi - lo) / (hi + lo)
}

// Check if terminal supports Kitty graphics protocol
func supportsKittyGraphics() bool {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	if strings.Contains(term, "kitty") || strings.Contains(term, "konsole") {
		return true
	}

	// Ghostty and WezTerm only identify themselves through TERM_PROGRAM
	return termProgram == "ghostty" || termProgram == "WezTerm"
}

const (
	kittyImageID   = 42
	kittyChunkSize = 4096
)

// kittyDeleteAll removes every image placement from the terminal
const kittyDeleteAll = "\033_Ga=d,d=A\033\\"

// encodeArtworkForKitty resizes img to widthPixels and wraps it in Kitty
// graphics escapes, displayed widthColumns cells wide
func encodeArtworkForKitty(img image.Image, widthPixels, widthColumns int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	resized := resize.Resize(uint(widthPixels), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var result strings.Builder

	// Delete the previous image with our ID first
	fmt.Fprintf(&result, "\033_Ga=d,d=I,i=%d\033\\", kittyImageID)

	if len(encoded) <= kittyChunkSize {
		fmt.Fprintf(&result, "\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1;%s\033\\", kittyImageID, widthColumns, encoded)
		return result.String(), nil
	}

	// Payloads above 4096 bytes must be chunked; m=1 means more follows
	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		chunk := encoded[i:end]

		switch {
		case i == 0:
			fmt.Fprintf(&result, "\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1,m=1;%s\033\\", kittyImageID, widthColumns, chunk)
		case end == len(encoded):
			fmt.Fprintf(&result, "\033_Gm=0;%s\033\\", chunk)
		default:
			fmt.Fprintf(&result, "\033_Gm=1;%s\033\\", chunk)
		}
	}

	return result.String(), nil
}

// processArtwork decodes once and returns the dominant colour (when asked)
// and the Kitty-encoded image
func processArtwork(artworkData []byte, extractColor bool, cfg Config) (color string, encoded string, err error) {
	img, err := decodeArtworkData(artworkData)
	if err != nil {
		return "", "", err
	}

	if extractColor {
		if c, err := extractDominantColor(img); err == nil {
			color = c
		}
	}

	encoded, err = encodeArtworkForKitty(img, cfg.Artwork.WidthPixels, cfg.Artwork.WidthColumns)
	if err != nil {
		return color, "", err
	}
	return color, encoded, nil
}
