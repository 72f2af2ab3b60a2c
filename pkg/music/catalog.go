// This file implements the catalog pipeline which combines the primary
// resolver with the optional secondary one. The primary catalog corrects the
// text model's spelling; the secondary catalog only contributes artwork and a
// link for users who prefer it.
package music

import (
	"context"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "catalog")

// ResolutionObserver is notified after every resolver call. provider is
// "primary" or "secondary"; err is nil on success.
type ResolutionObserver interface {
	ObserveResolution(provider string, err error)
}

// Catalog resolves raw suggestions into tracks. Secondary may be nil in which
// case the Spotify preference degrades to primary-only metadata.
type Catalog struct {
	Primary   Resolver
	Secondary Resolver
	Observer  ResolutionObserver
}

// Resolution is the outcome of Catalog.Resolve. Canonical reports whether
// the primary catalog confirmed the title and artist; when false Track holds
// the raw text.
type Resolution struct {
	Track     Track
	Canonical bool
}

// Resolve runs the primary resolver and, when pref is ProviderSpotify, the
// secondary resolver with the primary-corrected text (or the raw text when
// the primary lookup failed). Failures never abort the pipeline: the result
// always carries at least the raw title and artist.
func (c Catalog) Resolve(ctx context.Context, raw Suggestion, pref Provider) Resolution {
	res := Resolution{Track: Track{Title: raw.Title, Artist: raw.Artist}}

	if c.Primary != nil {
		t, err := c.Primary.Resolve(ctx, raw.Title, raw.Artist)
		c.observe("primary", err)
		if err != nil {
			log.WithError(err).WithField("kind", KindOf(err)).
				Debugf("primary lookup failed for %q by %q", raw.Title, raw.Artist)
		} else {
			res.Track = t
			res.Canonical = true
		}
	}

	if pref != ProviderSpotify || c.Secondary == nil {
		return res
	}
	t, err := c.Secondary.Resolve(ctx, res.Track.Title, res.Track.Artist)
	c.observe("secondary", err)
	// The primary link is dropped even when the secondary lookup fails;
	// primary artwork stays as a fallback.
	res.Track.LinkURL = ""
	if err != nil {
		log.WithError(err).WithField("kind", KindOf(err)).
			Debugf("secondary lookup failed for %q by %q", res.Track.Title, res.Track.Artist)
		return res
	}
	res.Track.LinkURL = t.LinkURL
	if t.ArtworkURL != "" {
		res.Track.ArtworkURL = t.ArtworkURL
	}
	return res
}

func (c Catalog) observe(provider string, err error) {
	if c.Observer != nil {
		c.Observer.ObserveResolution(provider, err)
	}
}
