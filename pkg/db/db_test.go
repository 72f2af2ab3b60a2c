package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"Mood-Music-Go/pkg/history"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// TestEmptyDatabase verifies a fresh database loads as an empty journal at
// the current schema version.
func TestEmptyDatabase(t *testing.T) {
	snap, err := newDB(t).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != history.CurrentVersion || len(snap.Entries) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

// TestSaveReplacesJournal ensures Save overwrites previous rows and keeps
// insertion order.
func TestSaveReplacesJournal(t *testing.T) {
	ctx := context.Background()
	d := newDB(t)
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	first := history.Snapshot{Version: 1, Entries: []history.Entry{{Title: "old", Artist: "x", Date: at, Mood: "Sad"}}}
	if err := d.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := history.Snapshot{Version: 2, Entries: []history.Entry{
		{Title: "B", Artist: "y", Date: at.AddDate(0, 0, -1), Mood: "Meh"},
		{Title: "A", Artist: "z", Date: at, Mood: "Happy"},
	}}
	if err := d.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := d.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 || len(got.Entries) != 2 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Entries[0].Title != "B" || got.Entries[1].Mood != "Happy" || !got.Entries[1].Date.Equal(at) {
		t.Fatalf("unexpected entries %+v", got.Entries)
	}
}

// TestStoreOnSQLite runs the history store on top of the database file.
func TestStoreOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	d, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s := history.NewStore(d, 2)
	for _, title := range []string{"A", "B", "C"} {
		if err := s.Append(ctx, history.Entry{Title: title, Artist: "x", Date: time.Now(), Mood: "Happy"}); err != nil {
			t.Fatal(err)
		}
	}
	d.Close()

	d, err = New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	got := history.NewStore(d, 2).Load(ctx)
	if len(got) != 2 || got[0].Title != "B" {
		t.Fatalf("unexpected entries %+v", got)
	}
	if !history.NewStore(d, 2).IsDuplicate(ctx, history.Entry{Title: "C", Artist: "x"}) {
		t.Fatal("expected duplicate")
	}
}

// TestImportSnapshot imports only into an empty journal.
func TestImportSnapshot(t *testing.T) {
	ctx := context.Background()
	d := newDB(t)
	snap := history.Snapshot{Version: 1, Entries: []history.Entry{{Title: "A", Artist: "x", Date: time.Now(), Mood: "Meh"}}}

	ok, err := d.ImportSnapshot(ctx, snap)
	if err != nil || !ok {
		t.Fatalf("first import: %v %v", ok, err)
	}
	got, _ := d.Load(ctx)
	if got.Version != 1 {
		t.Fatalf("version not imported: %d", got.Version)
	}
	ok, err = d.ImportSnapshot(ctx, snap)
	if err != nil || ok {
		t.Fatalf("second import should be skipped: %v %v", ok, err)
	}
}
