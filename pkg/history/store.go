package history

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxEntries keeps a month of daily picks plus today.
const DefaultMaxEntries = 31

var log = logrus.WithField("component", "history")

// Store is the journal handle shared by the application. Reads always reload
// from the Persister; every load-modify-save sequence holds mu.
type Store struct {
	mu         sync.Mutex
	p          Persister
	maxEntries int
}

// NewStore returns a Store backed by p. maxEntries <= 0 selects
// DefaultMaxEntries.
func NewStore(p Persister, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{p: p, maxEntries: maxEntries}
}

// MaxEntries returns the eviction bound.
func (s *Store) MaxEntries() int { return s.maxEntries }

// Load returns all entries, oldest first. Missing or unreadable data yields
// an empty journal; the error is logged and never returned.
func (s *Store) Load(ctx context.Context) []Entry {
	snap, err := s.p.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("history unreadable, treating as empty")
		return []Entry{}
	}
	if snap.Entries == nil {
		return []Entry{}
	}
	return snap.Entries
}

// Save replaces the journal with entries. The stored schema version is kept.
func (s *Store) Save(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Save(ctx, Snapshot{Version: s.version(ctx), Entries: entries})
}

// IsDuplicate reports whether the journal already holds the same title and
// artist as e.
func (s *Store) IsDuplicate(ctx context.Context, e Entry) bool {
	for _, old := range s.Load(ctx) {
		if old.SameSong(e) {
			return true
		}
	}
	return false
}

// Append adds e to the end of the journal, evicting the oldest entries beyond
// the configured maximum, and saves.
func (s *Store) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.p.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("history unreadable, starting a new journal")
		snap = Snapshot{Version: CurrentVersion}
	}
	entries := append(snap.Entries, e)
	if n := len(entries) - s.maxEntries; n > 0 {
		entries = entries[n:]
	}
	return s.p.Save(ctx, Snapshot{Version: snap.Version, Entries: entries})
}

// EntryOn returns the first entry logged on day, comparing calendar days in
// day's location.
func (s *Store) EntryOn(ctx context.Context, day time.Time) (Entry, bool) {
	for _, e := range s.Load(ctx) {
		if SameDay(e.Date, day, day.Location()) {
			return e, true
		}
	}
	return Entry{}, false
}

// Version returns the persisted schema version.
func (s *Store) Version(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version(ctx)
}

func (s *Store) version(ctx context.Context) int {
	snap, err := s.p.Load(ctx)
	if err != nil || snap.Version == 0 {
		return CurrentVersion
	}
	return snap.Version
}
