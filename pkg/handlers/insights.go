// This file contains the read-only journal endpoints: today's entry, the raw
// history, the mood calendar and mood statistics.
package handlers

import (
	"net/http"
	"strconv"

	"Mood-Music-Go/pkg/history"
)

const (
	defaultCalendarDays = 7
	defaultStatsDays    = 30
	maxWindowDays       = 366
)

// daysParam reads the 'days' query parameter, falling back to def when it is
// missing. ok is false for values outside 1..maxWindowDays.
func daysParam(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > maxWindowDays {
		return 0, false
	}
	return days, true
}

// Today returns the entry logged today or 404 when the user has not checked
// in yet.
func (app *Application) Today(w http.ResponseWriter, r *http.Request) {
	e, ok := app.History.EntryOn(r.Context(), app.now())
	if !ok {
		respondJSONError(w, http.StatusNotFound, "no entry today")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// HistoryJSON returns every journal entry, oldest first.
func (app *Application) HistoryJSON(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, app.History.Load(r.Context()))
}

// CalendarJSON returns one cell per day for the trailing window controlled by
// the 'days' query parameter (default 7). month=current returns the current
// calendar month instead.
func (app *Application) CalendarJSON(w http.ResponseWriter, r *http.Request) {
	entries := app.History.Load(r.Context())
	if r.URL.Query().Get("month") == "current" {
		respondJSON(w, http.StatusOK, history.BuildMonthLog(entries, app.now()))
		return
	}
	days, ok := daysParam(r, defaultCalendarDays)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "days must be between 1 and 366")
		return
	}
	respondJSON(w, http.StatusOK, history.BuildCalendarLog(entries, days, app.now()))
}

// StatsJSON returns mood frequency and streaks over the trailing window
// controlled by the 'days' query parameter (default 30).
func (app *Application) StatsJSON(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(r, defaultStatsDays)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "days must be between 1 and 366")
		return
	}
	respondJSON(w, http.StatusOK, history.ComputeStats(app.History.Load(r.Context()), days, app.now()))
}
