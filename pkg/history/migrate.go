package history

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"Mood-Music-Go/pkg/music"
)

// DefaultMigrationWorkers bounds concurrent catalog lookups during a
// migration.
const DefaultMigrationWorkers = 4

// migration upgrades a journal to version. Migrations run in slice order and
// each runs only when the stored version is below its own.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, r music.Resolver, workers int, entries []Entry) ([]Entry, error)
}

var migrations = []migration{
	{version: 2, name: "catalog names", apply: canonicalNames},
}

// Migrate brings the journal up to CurrentVersion. It returns the number of
// migrations applied. The new version is saved only after every pending
// migration finished, so an interrupted pass is retried on the next start.
func (s *Store) Migrate(ctx context.Context, r music.Resolver, workers int) (int, error) {
	if workers <= 0 {
		workers = DefaultMigrationWorkers
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.p.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load history for migration: %w", err)
	}
	applied := 0
	for _, m := range migrations {
		if snap.Version >= m.version {
			continue
		}
		entries, err := m.apply(ctx, r, workers, snap.Entries)
		if err != nil {
			return 0, fmt.Errorf("migration %q: %w", m.name, err)
		}
		log.WithField("version", m.version).Infof("applied migration %q to %d entries", m.name, len(entries))
		snap = Snapshot{Version: m.version, Entries: entries}
		applied++
	}
	if applied == 0 {
		return 0, nil
	}
	if err := s.p.Save(ctx, snap); err != nil {
		return 0, fmt.Errorf("save migrated history: %w", err)
	}
	return applied, nil
}

// canonicalNames replaces each entry's title and artist with the catalog
// spelling. Entries whose lookup fails are kept unchanged. Date and mood are
// always preserved.
func canonicalNames(ctx context.Context, r music.Resolver, workers int, entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			out[i] = e
			t, err := r.Resolve(gctx, e.Title, e.Artist)
			if err != nil {
				log.WithError(err).Debugf("keeping %q by %q as logged", e.Title, e.Artist)
				return nil
			}
			out[i].Title = t.Title
			out[i].Artist = t.Artist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
