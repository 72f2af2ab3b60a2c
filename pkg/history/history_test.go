package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mood-Music-Go/pkg/music"
)

var day0 = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

func entry(title, artist string, daysAgo int, mood string) Entry {
	return Entry{Title: title, Artist: artist, Date: day0.AddDate(0, 0, -daysAgo), Mood: mood}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "song_history.json")
	s := NewStore(FilePersister{Path: path}, 0)

	assert.Empty(t, s.Load(ctx))
	require.NoError(t, s.Append(ctx, entry("Holocene", "Bon Iver", 1, "Sad")))
	require.NoError(t, s.Append(ctx, entry("Kids", "MGMT", 0, "Happy")))

	reopened := NewStore(FilePersister{Path: path}, 0)
	got := reopened.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "Holocene", got[0].Title)
	assert.True(t, got[1].Date.Equal(day0))
	assert.Equal(t, CurrentVersion, reopened.Version(ctx))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.JSONEq(t, "2", string(raw["version"]))

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	assert.Empty(t, matches, "temp files left behind")
}

func TestIsDuplicateIsExact(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&MemoryPersister{}, 0)
	require.NoError(t, s.Append(ctx, entry("Let It Be", "The Beatles", 3, "Meh")))

	assert.True(t, s.IsDuplicate(ctx, entry("Let It Be", "The Beatles", 0, "Happy")))
	assert.False(t, s.IsDuplicate(ctx, entry("let it be", "The Beatles", 0, "Meh")))
	assert.False(t, s.IsDuplicate(ctx, entry("Let It Be (Remastered 2009)", "The Beatles", 0, "Meh")))
}

func TestAppendEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&MemoryPersister{}, 3)
	for i := 5; i > 0; i-- {
		require.NoError(t, s.Append(ctx, entry(string(rune('A'+5-i)), "x", i, "Happy")))
	}
	got := s.Load(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "D", "E"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestAppendSurfacesSaveError(t *testing.T) {
	p := &MemoryPersister{SaveErr: errors.New("disk full")}
	err := NewStore(p, 0).Append(context.Background(), entry("A", "B", 0, "Happy"))
	assert.ErrorIs(t, err, p.SaveErr)
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "song_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(FilePersister{Path: path}, 0)
	assert.Empty(t, s.Load(ctx))
	assert.False(t, s.IsDuplicate(ctx, entry("A", "B", 0, "Happy")))

	require.NoError(t, s.Append(ctx, entry("A", "B", 0, "Happy")))
	assert.Len(t, s.Load(ctx), 1)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewStore(FilePersister{Path: filepath.Join(t.TempDir(), "h.json")}, 50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, entry("song", "artist", i, "Meh")))
		}()
	}
	wg.Wait()
	assert.Len(t, s.Load(ctx), 20)
}

func TestEntryOn(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&MemoryPersister{}, 0)
	require.NoError(t, s.Append(ctx, entry("A", "B", 1, "Tired")))

	_, ok := s.EntryOn(ctx, day0)
	assert.False(t, ok)
	e, ok := s.EntryOn(ctx, day0.AddDate(0, 0, -1).Add(5*time.Hour))
	require.True(t, ok)
	assert.Equal(t, "Tired", e.Mood)
}

func TestLegacyEntryDecoding(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Hey Ya!","artist":"Outkast","date":782000000,"emoji":"Excited"}`), &e))
	assert.Equal(t, "Excited", e.Mood)
	assert.True(t, e.Date.Equal(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC).Add(782000000*time.Second)))

	require.NoError(t, json.Unmarshal([]byte(`{"title":"a","artist":"b","date":"2026-10-18T09:30:00Z","mood":"Meh","emoji":"ignored"}`), &e))
	assert.Equal(t, "Meh", e.Mood)
	assert.True(t, e.Date.Equal(day0))

	assert.Error(t, json.Unmarshal([]byte(`{"date":true}`), &e))
}

type fakeResolver struct {
	mu       sync.Mutex
	calls    int
	inflight int32
	peak     int32
	fail     map[string]bool
}

func (f *fakeResolver) Resolve(ctx context.Context, title, artist string) (music.Track, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	f.mu.Lock()
	f.calls++
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	if err := ctx.Err(); err != nil {
		return music.Track{}, music.Fail(music.NetworkError, "fake", err)
	}
	if f.fail[title] {
		return music.Track{}, music.Fail(music.NoResults, "fake", nil)
	}
	return music.Track{Title: title + " (Canonical)", Artist: "The " + artist}, nil
}

func writeLegacy(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song_history.json")
	legacy := `[
		{"title":"yesterday","artist":"beatles","date":782000000,"emoji":"Sad"},
		{"title":"lost","artist":"nobody","date":782086400,"emoji":"Meh"},
		{"title":"hey ya","artist":"outkast","date":782172800,"emoji":"Happy"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))
	return path
}

func TestMigrateLegacyRunsOnce(t *testing.T) {
	ctx := context.Background()
	path := writeLegacy(t)
	s := NewStore(FilePersister{Path: path}, 0)
	assert.Equal(t, legacyVersion, s.Version(ctx))
	before := s.Load(ctx)

	r := &fakeResolver{fail: map[string]bool{"lost": true}}
	n, err := s.Migrate(ctx, r, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, r.calls)
	assert.LessOrEqual(t, r.peak, int32(2))

	got := s.Load(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, "yesterday (Canonical)", got[0].Title)
	assert.Equal(t, "The beatles", got[0].Artist)
	assert.Equal(t, "lost", got[1].Title, "failed lookups keep the entry")
	for i := range got {
		assert.True(t, got[i].Date.Equal(before[i].Date))
		assert.Equal(t, before[i].Mood, got[i].Mood)
	}
	assert.Equal(t, CurrentVersion, s.Version(ctx))

	n, err = s.Migrate(ctx, r, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, r.calls, "second pass must not hit the catalog")
}

func TestMigrateCancelledKeepsVersion(t *testing.T) {
	path := writeLegacy(t)
	s := NewStore(FilePersister{Path: path}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Migrate(ctx, &fakeResolver{}, 1)
	require.Error(t, err)
	assert.Equal(t, legacyVersion, s.Version(context.Background()))
}

func TestMigrateCurrentIsNoop(t *testing.T) {
	s := NewStore(&MemoryPersister{}, 0)
	r := &fakeResolver{}
	n, err := s.Migrate(context.Background(), r, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, r.calls)
}

func TestBuildCalendarLog(t *testing.T) {
	entries := []Entry{
		entry("A", "x", 6, "Happy"),
		entry("B", "x", 2, "Sad"),
		entry("C", "x", 2, "Meh"),
		entry("D", "x", 9, "Tired"),
	}
	cal := BuildCalendarLog(entries, 7, day0)
	require.Len(t, cal, 7)

	var labels []string
	for _, dl := range cal {
		labels = append(labels, dl.Day)
	}
	// 2026-10-18 is a Sunday.
	assert.Equal(t, []string{"M", "T", "W", "Th", "F", "Sa", "S"}, labels)
	assert.Equal(t, "Happy", cal[0].Mood)
	assert.Equal(t, "Sad", cal[4].Mood, "first entry of the day wins")
	require.NotNil(t, cal[4].Entry)
	assert.Equal(t, "B", cal[4].Entry.Title)
	assert.Nil(t, cal[6].Entry)

	assert.Empty(t, BuildCalendarLog(entries, 0, day0))
	assert.Len(t, BuildCalendarLog(entries, 30, day0), 30)
}

func TestBuildMonthLog(t *testing.T) {
	cal := BuildMonthLog([]Entry{entry("A", "x", 17, "Happy")}, day0)
	require.Len(t, cal, 31)
	assert.Equal(t, 1, cal[0].Date.Day())
	assert.Equal(t, "Happy", cal[0].Mood)
}

func TestComputeStats(t *testing.T) {
	entries := []Entry{
		entry("A", "x", 8, "Sad"),
		entry("B", "x", 7, "Sad"),
		entry("C", "x", 6, "Happy"),
		entry("D", "x", 5, "Sad"),
		entry("E", "x", 2, "Happy"),
		entry("F", "x", 1, "Meh"),
		entry("G", "x", 0, "Happy"),
	}
	st := ComputeStats(entries, 30, day0)
	assert.Equal(t, 7, st.LoggedDays)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 4, st.LongestStreak)
	assert.Equal(t, []MoodCount{{"Happy", 3}, {"Sad", 3}, {"Meh", 1}}, st.Moods)

	// Today not logged yet: the streak ending yesterday still counts.
	st = ComputeStats(entries[:6], 30, day0)
	assert.Equal(t, 2, st.CurrentStreak)

	st = ComputeStats(entries[:4], 30, day0)
	assert.Zero(t, st.CurrentStreak)
	assert.Equal(t, 4, st.LongestStreak)
}
