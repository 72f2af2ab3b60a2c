// Package history persists the rolling journal of accepted suggestions. The
// journal is small (at most a month of entries) so every operation reloads the
// whole log from its Persister and writes it back in one piece.
package history

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one accepted suggestion. Title and Artist are the catalog-resolved
// names; Mood is the label of the mood that produced the pick.
type Entry struct {
	Title  string    `json:"title"`
	Artist string    `json:"artist"`
	Date   time.Time `json:"date"`
	Mood   string    `json:"mood"`
}

// SameSong reports whether e and o name the same title and artist. The match
// is exact; date and mood are ignored.
func (e Entry) SameSong(o Entry) bool {
	return e.Title == o.Title && e.Artist == o.Artist
}

// referenceDate is the epoch used by files written by the iOS app, which
// encoded dates as seconds since 2001-01-01 UTC.
var referenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// UnmarshalJSON accepts the current layout plus the legacy one, where the mood
// was stored under "emoji" and the date as a reference-date number.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title  string          `json:"title"`
		Artist string          `json:"artist"`
		Date   json.RawMessage `json:"date"`
		Mood   string          `json:"mood"`
		Emoji  string          `json:"emoji"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return err
	}
	e.Title = raw.Title
	e.Artist = raw.Artist
	e.Date = date
	e.Mood = raw.Mood
	if e.Mood == "" {
		e.Mood = raw.Emoji
	}
	return nil
}

func parseDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(raw, &t); err != nil {
			return time.Time{}, fmt.Errorf("parse date: %w", err)
		}
		return t, nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return referenceDate.Add(time.Duration(secs * float64(time.Second))), nil
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
