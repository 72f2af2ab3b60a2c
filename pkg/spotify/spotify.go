// Package spotify implements the secondary catalog resolver. It authenticates
// with the client credentials flow and searches the Spotify catalog for a
// single track to obtain its artwork and share link.
//
// A fresh application token is requested for every lookup. Lookups are rare
// (a handful per day) so no token cache is kept.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"Mood-Music-Go/pkg/music"
)

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	SearchOpt(query string, t spotify.SearchType, opt *spotify.Options) (*spotify.SearchResult, error)
}

// Client resolves tracks against the Spotify catalog. ClientID and
// ClientSecret come from the Spotify developer dashboard; TokenURL defaults
// to spotify.TokenURL and Timeout to 10 seconds. Transport, when set, carries
// both the token exchange and the search requests.
type Client struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
	Transport    http.RoundTripper

	// newSearcher builds the search client from an authenticated
	// http.Client. Tests replace it with a fake.
	newSearcher func(*http.Client) searcher
}

var _ music.Resolver = (*Client)(nil)

// New returns a Client for the given application credentials.
func New(clientID, clientSecret string) *Client {
	return &Client{ClientID: clientID, ClientSecret: clientSecret}
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Resolve searches for "track:<title> artist:<artist>" and returns the first
// match's largest album image and Spotify link. Title and Artist of the
// returned track are Spotify's spelling.
func (c *Client) Resolve(ctx context.Context, title, artist string) (music.Track, error) {
	if !c.Configured() {
		return music.Track{}, music.Fail(music.CredentialMissing, "spotify resolve", errors.New("client id or secret not set"))
	}
	s, err := c.authenticate(ctx)
	if err != nil {
		return music.Track{}, err
	}
	if err := ctx.Err(); err != nil {
		return music.Track{}, music.Fail(music.NetworkError, "spotify search", err)
	}

	limit := 1
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	res, err := s.SearchOpt(query, spotify.SearchTypeTrack, &spotify.Options{Limit: &limit})
	if err != nil {
		return music.Track{}, music.Fail(music.NetworkError, "spotify search", err)
	}
	if res == nil || res.Tracks == nil || len(res.Tracks.Tracks) == 0 {
		return music.Track{}, music.Fail(music.NoResults, "spotify search", fmt.Errorf("no tracks for %q", query))
	}

	ft := res.Tracks.Tracks[0]
	t := music.Track{
		Title:   ft.Name,
		LinkURL: ft.ExternalURLs["spotify"],
	}
	if len(ft.Artists) > 0 {
		t.Artist = ft.Artists[0].Name
	}
	// Spotify lists album images widest first.
	if len(ft.Album.Images) > 0 {
		t.ArtworkURL = ft.Album.Images[0].URL
	}
	return t, nil
}

// authenticate exchanges the client credentials for a token and returns a
// search client bound to ctx.
func (c *Client) authenticate(ctx context.Context) (searcher, error) {
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = spotify.TokenURL
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := &http.Client{Timeout: timeout, Transport: c.Transport}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cfg.Token(tokenCtx)
	if err != nil {
		return nil, music.Fail(music.NetworkError, "spotify token", err)
	}

	hc := oauth2.NewClient(tokenCtx, oauth2.StaticTokenSource(tok))
	hc.Timeout = timeout
	// The library does not take a context, so bind it to every request here.
	hc.Transport = ctxTransport{ctx: ctx, base: hc.Transport}

	if c.newSearcher != nil {
		return c.newSearcher(hc), nil
	}
	sc := spotify.NewClient(hc)
	return &sc, nil
}

// ctxTransport attaches ctx to outgoing requests.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
