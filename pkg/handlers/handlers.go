// Package handlers exposes the suggestion pipeline and the mood journal as a
// small JSON API. The presentation layer (the mobile or web client) renders
// whatever these endpoints return.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"Mood-Music-Go/pkg/history"
	"Mood-Music-Go/pkg/music"
	"Mood-Music-Go/pkg/suggest"
)

var log = logrus.WithField("component", "handlers")

// Pipeline is the subset of suggest.Orchestrator used by the handlers.
type Pipeline interface {
	RequestDailySuggestion(ctx context.Context, mood music.Mood, opts suggest.Options) (*suggest.Daily, error)
	RequestBonusSuggestion(ctx context.Context, mood music.Mood, primary music.Track, opts suggest.Options) (music.Track, error)
	Lookup(ctx context.Context, title, artist string, provider music.Provider) music.Track
}

// Application holds the dependencies shared by the handlers.
type Application struct {
	Suggestions Pipeline
	History     *history.Store

	// Now returns the current time; time.Now when nil.
	Now func() time.Time
}

func (app *Application) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

// Routes returns the API router. metrics, when non-nil, is mounted at
// /metrics.
func (app *Application) Routes(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/moods", app.Moods)
		r.Post("/suggestions", app.DailySuggestion)
		r.Post("/suggestions/bonus", app.BonusSuggestion)
		r.Get("/today", app.Today)
		r.Get("/history", app.HistoryJSON)
		r.Get("/calendar", app.CalendarJSON)
		r.Get("/stats", app.StatsJSON)
		r.Get("/lookup", app.Lookup)
	})
	return r
}

// Moods lists the selectable moods.
func (app *Application) Moods(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, music.Moods())
}

type dailyRequest struct {
	Mood     string `json:"mood"`
	Provider string `json:"provider,omitempty"`
}

// DailySuggestion handles POST /api/suggestions. Only one pick is allowed per
// calendar day; a second request gets 409 with the existing entry.
func (app *Application) DailySuggestion(w http.ResponseWriter, r *http.Request) {
	var req dailyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	mood, ok := music.LookupMood(req.Mood)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "unknown mood")
		return
	}
	provider, ok := providerOverride(req.Provider)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "unknown provider")
		return
	}
	if e, ok := app.History.EntryOn(r.Context(), app.now()); ok {
		respondJSON(w, http.StatusConflict, struct {
			Error string        `json:"error"`
			Entry history.Entry `json:"entry"`
		}{"already checked in today", e})
		return
	}

	d, err := app.Suggestions.RequestDailySuggestion(r.Context(), mood, suggest.Options{Provider: provider})
	if err != nil {
		respondSuggestError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

type bonusRequest struct {
	Mood     string `json:"mood"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Provider string `json:"provider,omitempty"`
}

// BonusSuggestion handles POST /api/suggestions/bonus. The body names the
// primary pick the bonus song must differ from.
func (app *Application) BonusSuggestion(w http.ResponseWriter, r *http.Request) {
	var req bonusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	mood, ok := music.LookupMood(req.Mood)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "unknown mood")
		return
	}
	if req.Title == "" || req.Artist == "" {
		respondJSONError(w, http.StatusBadRequest, "title and artist are required")
		return
	}
	provider, ok := providerOverride(req.Provider)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	primary := music.Track{Title: req.Title, Artist: req.Artist}
	t, err := app.Suggestions.RequestBonusSuggestion(r.Context(), mood, primary, suggest.Options{Provider: provider})
	if err != nil {
		respondSuggestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// providerOverride parses an optional provider. Empty means the configured
// default.
func providerOverride(s string) (music.Provider, bool) {
	if s == "" {
		return "", true
	}
	return music.ParseProvider(s)
}

// respondSuggestError maps pipeline errors to status codes.
func respondSuggestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, suggest.ErrNoSuggestion):
		respondJSONError(w, http.StatusNotFound, "no new song found, try again later")
	case errors.Is(err, suggest.ErrSameAsPrimary):
		respondJSONError(w, http.StatusConflict, "bonus pick repeated the primary song")
	case errors.Is(err, suggest.ErrUnknownMood):
		respondJSONError(w, http.StatusBadRequest, "unknown mood")
	case music.KindOf(err) == music.CredentialMissing:
		log.WithError(err).Error("text model credentials missing")
		respondJSONError(w, http.StatusServiceUnavailable, "suggestions are not configured")
	default:
		log.WithError(err).Warn("suggestion failed")
		respondJSONError(w, http.StatusBadGateway, "suggestion service unavailable")
	}
}

// Lookup handles GET /api/lookup?title=&artist=&provider=. It re-resolves a
// journal entry's artwork and link for the calendar view.
func (app *Application) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title, artist := q.Get("title"), q.Get("artist")
	if title == "" || artist == "" {
		respondJSONError(w, http.StatusBadRequest, "title and artist are required")
		return
	}
	provider, ok := providerOverride(q.Get("provider"))
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "unknown provider")
		return
	}
	respondJSON(w, http.StatusOK, app.Suggestions.Lookup(r.Context(), title, artist, provider))
}
