package player

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	keyArtist = "xesam:artist"
	keyAlbum  = "xesam:album"
	keyTitle  = "xesam:title"
	keyArtURL = "mpris:artUrl"
	keyLength = "mpris:length"

	artistSeparator = " - "
)

// Metadata is the decoded track information of the player's Metadata property.
type Metadata struct {
	Artist string
	Album  string
	Title  string
	ArtURL string
	Length time.Duration
}

// TrackID identifies a track for caching purposes.
func (md Metadata) TrackID() string {
	return md.Title + "|" + md.Artist
}

// DecodeMetadata builds a Metadata record from a Metadata property value.
// It never fails: a field whose value has an unexpected shape keeps its zero
// value, and the other fields are decoded independently.
func DecodeMetadata(v Value) Metadata {
	if _, ok := v.AsEntries(); !ok {
		return Metadata{}
	}
	field := func(key string) Value {
		fv, _ := v.Lookup(key)
		return fv
	}
	return Metadata{
		Artist: decodeArtist(field(keyArtist)),
		Album:  textOrEmpty(field(keyAlbum)),
		Title:  textOrEmpty(field(keyTitle)),
		ArtURL: textOrEmpty(field(keyArtURL)),
		Length: microseconds(field(keyLength)),
	}
}

// ReadMetadata reads and decodes the Metadata property. A failed read yields
// the zero Metadata.
func ReadMetadata(ctx context.Context, bus Bus) Metadata {
	v, err := bus.GetProperty(ctx, PlayerInterface, "Metadata")
	if err != nil {
		return Metadata{}
	}
	return DecodeMetadata(v)
}

// decodeArtist walks a sequence of candidate entries, each a sequence of
// name groups, each a sequence of names. Names of one entry are joined, then
// the entries are joined, both with artistSeparator. Entries of any other
// shape are skipped. A flat sequence of names is read as a single entry.
func decodeArtist(v Value) string {
	entries, ok := v.AsItems()
	if !ok {
		return ""
	}
	if names, ok := allTexts(entries); ok {
		return strings.Join(names, artistSeparator)
	}

	var parts []string
	for _, entry := range entries {
		groups, ok := entry.AsItems()
		if !ok {
			continue
		}
		var names []string
		for _, group := range groups {
			items, ok := group.AsItems()
			if !ok {
				continue
			}
			for _, item := range items {
				if name, ok := item.AsText(); ok {
					names = append(names, name)
				}
			}
		}
		if len(names) > 0 {
			parts = append(parts, strings.Join(names, artistSeparator))
		}
	}
	return strings.Join(parts, artistSeparator)
}

// allTexts reports whether every item is a scalar, returning their texts.
// An empty slice is not considered all-text.
func allTexts(items []Value) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		t, ok := item.AsText()
		if !ok {
			return nil, false
		}
		texts = append(texts, t)
	}
	return texts, true
}

func textOrEmpty(v Value) string {
	t, _ := v.AsText()
	return t
}

func microseconds(v Value) time.Duration {
	t, ok := v.AsText()
	if !ok {
		return 0
	}
	us, err := strconv.ParseInt(t, 10, 64)
	if err != nil || us < 0 {
		return 0
	}
	return time.Duration(us) * time.Microsecond
}
