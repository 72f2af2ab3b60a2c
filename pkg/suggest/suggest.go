// Package suggest runs the daily suggestion pipeline: ask the text model for
// a song, resolve it against the catalogs, reject songs already in the
// journal and retry within an attempt budget.
//
// The Orchestrator holds no lock of its own. Two concurrent daily requests
// may both append; the journal's own mutex keeps each append consistent.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"Mood-Music-Go/pkg/history"
	"Mood-Music-Go/pkg/metrics"
	"Mood-Music-Go/pkg/music"
)

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
)

var (
	// ErrNoSuggestion is returned when every attempt produced a song that is
	// already in the journal or failed to generate.
	ErrNoSuggestion = errors.New("no new song found within the attempt budget")

	// ErrSameAsPrimary is returned when the bonus pick names the primary song.
	ErrSameAsPrimary = errors.New("alternative is the same song as the primary pick")

	// ErrUnknownMood is returned for a mood without a label.
	ErrUnknownMood = errors.New("unknown mood")
)

var log = logrus.WithField("component", "suggest")

// State is a step of a daily request. It only appears in logs.
type State string

const (
	StateGenerating        State = "generating"
	StateResolving         State = "resolving"
	StateCheckingDuplicate State = "checking_duplicate"
	StateRetrying          State = "retrying"
	StateAccepted          State = "accepted"
	StateExhausted         State = "exhausted"
)

// Options tune a single request. Zero fields fall back to the
// Orchestrator's Defaults and then to the package defaults.
type Options struct {
	MaxAttempts int
	Provider    music.Provider
	// Timeout bounds each network stage (generation, resolution) of an
	// attempt.
	Timeout time.Duration
}

// Daily is the accepted pick of a daily request.
type Daily struct {
	Track music.Track `json:"track"`
	Mood  string      `json:"mood"`
	// Attempts is the number of generate/resolve cycles used.
	Attempts int `json:"attempts"`
	// Canonical reports whether the primary catalog confirmed the names.
	Canonical bool `json:"canonical"`
	// Remembered is false when the pick could not be saved to the journal.
	// The pick is still valid but may be suggested again later.
	Remembered bool `json:"remembered"`
}

// Orchestrator wires the text model, the catalogs and the journal together.
type Orchestrator struct {
	Suggester music.Suggester
	Catalog   music.Catalog
	History   *history.Store
	Metrics   *metrics.Metrics
	Defaults  Options

	// Now returns the current time; time.Now when nil.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) options(opts Options) Options {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = o.Defaults.MaxAttempts
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Provider == "" {
		opts.Provider = o.Defaults.Provider
	}
	if opts.Provider == "" {
		opts.Provider = music.ProviderAppleMusic
	}
	if opts.Timeout <= 0 {
		opts.Timeout = o.Defaults.Timeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return opts
}

// RequestDailySuggestion produces today's pick for mood and appends it to the
// journal. Duplicates of journal entries (by catalog title and artist) are
// retried up to MaxAttempts times. A generation failure uses up an attempt;
// a missing credential aborts at once.
func (o *Orchestrator) RequestDailySuggestion(ctx context.Context, mood music.Mood, opts Options) (*Daily, error) {
	if mood.Label == "" {
		return nil, ErrUnknownMood
	}
	opts = o.options(opts)
	start := o.now()
	l := log.WithFields(logrus.Fields{"request_id": uuid.NewString(), "mood": mood.Label, "provider": opts.Provider})

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		al := l.WithField("attempt", attempt)
		al.WithField("state", StateGenerating).Debug("requesting suggestion")

		gctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		raw, err := o.Suggester.Suggest(gctx, mood.Label)
		cancel()
		if err != nil {
			o.Metrics.Attempt(metrics.AttemptFailed)
			al.WithError(err).WithField("kind", music.KindOf(err)).Warn("suggestion failed")
			if !music.Retryable(err) || ctx.Err() != nil {
				o.Metrics.Request("daily", "failed", o.now().Sub(start))
				return nil, err
			}
			lastErr = err
			continue
		}

		al.WithField("state", StateResolving).Debugf("resolving %q by %q", raw.Title, raw.Artist)
		rctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		res := o.Catalog.Resolve(rctx, raw, opts.Provider)
		cancel()

		entry := history.Entry{
			Title:  res.Track.Title,
			Artist: res.Track.Artist,
			Date:   o.now(),
			Mood:   mood.Label,
		}
		al.WithField("state", StateCheckingDuplicate).Debug("checking journal")
		if o.History.IsDuplicate(ctx, entry) {
			o.Metrics.Attempt(metrics.AttemptDuplicate)
			al.WithField("state", StateRetrying).Infof("%q by %q already suggested", entry.Title, entry.Artist)
			lastErr = nil
			continue
		}

		o.Metrics.Attempt(metrics.AttemptAccepted)
		d := &Daily{Track: res.Track, Mood: mood.Label, Attempts: attempt, Canonical: res.Canonical, Remembered: true}
		if err := o.History.Append(ctx, entry); err != nil {
			al.WithError(err).Error("could not save pick to journal")
			d.Remembered = false
		}
		al.WithField("state", StateAccepted).Infof("accepted %q by %q", entry.Title, entry.Artist)
		o.Metrics.Request("daily", "ok", o.now().Sub(start))
		return d, nil
	}

	l.WithField("state", StateExhausted).Warnf("no new song after %d attempts", opts.MaxAttempts)
	o.Metrics.Request("daily", "exhausted", o.now().Sub(start))
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSuggestion, lastErr)
	}
	return nil, ErrNoSuggestion
}

// RequestBonusSuggestion asks once for a second song in the same vibe as
// primary. An alternative naming the primary song (ignoring case) is rejected
// with ErrSameAsPrimary before any catalog lookup. The journal is never read
// or written.
func (o *Orchestrator) RequestBonusSuggestion(ctx context.Context, mood music.Mood, primary music.Track, opts Options) (music.Track, error) {
	if mood.Label == "" {
		return music.Track{}, ErrUnknownMood
	}
	opts = o.options(opts)
	start := o.now()
	l := log.WithFields(logrus.Fields{"request_id": uuid.NewString(), "mood": mood.Label, "bonus": true})

	gctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	alt, err := o.Suggester.SuggestAlternative(gctx, mood.Label, music.Suggestion{Title: primary.Title, Artist: primary.Artist})
	cancel()
	if err != nil {
		l.WithError(err).WithField("kind", music.KindOf(err)).Warn("bonus suggestion failed")
		o.Metrics.Request("bonus", "failed", o.now().Sub(start))
		return music.Track{}, err
	}
	if primary.SameSong(alt) {
		l.Infof("bonus repeated %q by %q", alt.Title, alt.Artist)
		o.Metrics.Request("bonus", "same_as_primary", o.now().Sub(start))
		return music.Track{}, ErrSameAsPrimary
	}

	rctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	res := o.Catalog.Resolve(rctx, alt, opts.Provider)
	o.Metrics.Request("bonus", "ok", o.now().Sub(start))
	return res.Track, nil
}

// Lookup re-resolves a journal entry for display, falling back to the given
// names when no catalog knows the song.
func (o *Orchestrator) Lookup(ctx context.Context, title, artist string, provider music.Provider) music.Track {
	opts := o.options(Options{Provider: provider})
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	return o.Catalog.Resolve(ctx, music.Suggestion{Title: title, Artist: artist}, opts.Provider).Track
}

// Today returns the journal entry logged today, if any.
func (o *Orchestrator) Today(ctx context.Context) (history.Entry, bool) {
	return o.History.EntryOn(ctx, o.now())
}
