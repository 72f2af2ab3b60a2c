// Package music defines the provider-agnostic types used by the suggestion
// pipeline: raw text-model suggestions, catalog tracks, moods and the
// interfaces implemented by the text and catalog clients. By depending on this
// package the rest of the application can remain agnostic about whether a
// track came from iTunes, Spotify or a language model.
package music

import (
	"context"
	"strings"
)

// Suggestion is the unvalidated {title, artist} pair produced by a text model.
// Values may differ in casing or punctuation from the catalog spelling.
type Suggestion struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Track is canonical metadata returned by a catalog search. ArtworkURL and
// LinkURL are empty when the catalog did not provide them.
type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artwork_url,omitempty"`
	LinkURL    string `json:"link_url,omitempty"`
}

// SameSong reports whether t and s name the same title and artist ignoring
// case.
func (t Track) SameSong(s Suggestion) bool {
	return strings.EqualFold(t.Title, s.Title) && strings.EqualFold(t.Artist, s.Artist)
}

// Suggester produces song candidates for a mood.
type Suggester interface {
	// Suggest returns one candidate for the mood label.
	Suggest(ctx context.Context, moodLabel string) (Suggestion, error)

	// SuggestAlternative returns a candidate sharing the vibe of primary
	// without being the same song.
	SuggestAlternative(ctx context.Context, moodLabel string, primary Suggestion) (Suggestion, error)
}

// Resolver maps a free-text title/artist guess to a catalog track. Errors are
// *Failure values so callers can branch on the failure kind.
type Resolver interface {
	Resolve(ctx context.Context, title, artist string) (Track, error)
}

// Provider names the catalog whose artwork and link the user prefers.
type Provider string

const (
	ProviderAppleMusic Provider = "apple_music"
	ProviderSpotify    Provider = "spotify"
)

// ParseProvider accepts the canonical names plus the display names stored by
// older clients ("Apple Music", "Spotify").
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "apple_music", "apple music", "applemusic", "itunes":
		return ProviderAppleMusic, true
	case "spotify":
		return ProviderSpotify, true
	}
	return "", false
}
