// Package applemusic implements the primary catalog resolver on top of the
// public iTunes Search API. No authentication is required. The zero value
// Client is ready for use and safe for concurrent lookups; a shared
// http.Client with a 10 second timeout is used when HTTP is nil.
//
// Resolution runs a title search first and an artist search second; the
// result carries the catalog's spelling of both names.
package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"Mood-Music-Go/pkg/music"
)

const (
	defaultBaseURL = "https://itunes.apple.com/search"
	defaultCountry = "US"
	defaultLimit   = 25

	// artworkSize replaces the 100x100 token of artworkUrl100. The API has
	// no dedicated high resolution field.
	artworkSize = "500x500"
)

// Search attributes understood by the iTunes API.
const (
	AttrSong   = "songTerm"
	AttrArtist = "artistTerm"
)

var log = logrus.WithField("component", "applemusic")

var defaultHTTP = &http.Client{Timeout: 10 * time.Second}

// Client talks to the iTunes Search API. Country defaults to "US" and Limit to
// 25 results per search.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Country string
	Limit   int
}

// Ensure interface compliance at compile time.
var _ music.Resolver = (*Client)(nil)

// Search issues one song search for term restricted to attribute (AttrSong or
// AttrArtist). An empty result set is not an error.
func (c *Client) Search(ctx context.Context, term, attribute string) ([]music.Track, error) {
	hc := c.HTTP
	if hc == nil {
		hc = defaultHTTP
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	country := c.Country
	if country == "" {
		country = defaultCountry
	}
	limit := c.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params := url.Values{
		"term":      {term},
		"media":     {"music"},
		"entity":    {"song"},
		"attribute": {attribute},
		"limit":     {strconv.Itoa(limit)},
		"country":   {country},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, music.Fail(music.NetworkError, "itunes search", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, music.Fail(music.NetworkError, "itunes search", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, music.Fail(music.NetworkError, "itunes search", fmt.Errorf("status %s", resp.Status))
	}
	// body mirrors the subset of the iTunes JSON response we care about.
	var body struct {
		Results []struct {
			TrackName     string `json:"trackName"`
			ArtistName    string `json:"artistName"`
			ArtworkURL100 string `json:"artworkUrl100"`
			TrackViewURL  string `json:"trackViewUrl"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, music.Fail(music.ParseError, "itunes search", err)
	}
	tracks := make([]music.Track, 0, len(body.Results))
	for _, item := range body.Results {
		tracks = append(tracks, music.Track{
			Title:      item.TrackName,
			Artist:     item.ArtistName,
			ArtworkURL: LargeArtwork(item.ArtworkURL100),
			LinkURL:    item.TrackViewURL,
		})
	}
	return tracks, nil
}

// LargeArtwork rewrites an artworkUrl100 thumbnail URL to request larger art.
func LargeArtwork(u string) string {
	return strings.Replace(u, "100x100", artworkSize, 1)
}

// Resolve finds the catalog entry for a title/artist guess. The order of
// preference is:
//
//  1. a title search hit whose artist matches exactly (ignoring case)
//  2. an artist search hit whose title matches exactly (ignoring case)
//  3. the first title search hit
//  4. the first artist search hit
//
// The artist search is only issued when step 1 fails. A failed search counts
// as an empty one; an error is returned only when nothing was found.
func (c *Client) Resolve(ctx context.Context, title, artist string) (music.Track, error) {
	var lastErr error

	byTitle, err := c.Search(ctx, title, AttrSong)
	if err != nil {
		log.WithError(err).Debugf("title search for %q failed", title)
		lastErr = err
	}
	for _, t := range byTitle {
		if strings.EqualFold(t.Artist, artist) {
			return t, nil
		}
	}

	byArtist, err := c.Search(ctx, artist, AttrArtist)
	if err != nil {
		log.WithError(err).Debugf("artist search for %q failed", artist)
		lastErr = err
	}
	for _, t := range byArtist {
		if strings.EqualFold(t.Title, title) {
			return t, nil
		}
	}

	if len(byTitle) > 0 {
		return byTitle[0], nil
	}
	if len(byArtist) > 0 {
		return byArtist[0], nil
	}
	if lastErr != nil {
		return music.Track{}, lastErr
	}
	return music.Track{}, music.Fail(music.NoResults, "itunes resolve", errors.New("no tracks found"))
}
