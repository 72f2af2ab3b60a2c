package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// legacyVersion marks data written before entries were catalog-resolved.
	legacyVersion = 1

	// CurrentVersion is the schema version written by this package.
	CurrentVersion = 2
)

// Snapshot is the persisted state of a Store.
type Snapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Persister loads and saves whole snapshots. Save must replace the previous
// snapshot atomically. Load on an empty backend returns an empty snapshot at
// CurrentVersion.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// FilePersister stores the journal as a JSON document at Path.
type FilePersister struct {
	Path string
}

// Load reads the snapshot. A bare JSON array is the legacy layout and is
// reported as legacyVersion.
func (f FilePersister) Load(ctx context.Context) (Snapshot, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{Version: CurrentVersion}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read history: %w", err)
	}
	return decodeSnapshot(b)
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	if trimmed := bytes.TrimLeft(b, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(b, &entries); err != nil {
			return Snapshot{}, fmt.Errorf("decode legacy history: %w", err)
		}
		return Snapshot{Version: legacyVersion, Entries: entries}, nil
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode history: %w", err)
	}
	if s.Version == 0 {
		s.Version = legacyVersion
	}
	return s, nil
}

// Save writes s to a temporary file next to Path and renames it into place.
func (f FilePersister) Save(ctx context.Context, s Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// MemoryPersister keeps the snapshot in memory. It is used by tests and
// when no history path is configured.
type MemoryPersister struct {
	mu   sync.Mutex
	snap Snapshot
	set  bool

	// SaveErr, when non-nil, is returned by every Save.
	SaveErr error
}

// NewMemoryPersister returns a persister preloaded with s.
func NewMemoryPersister(s Snapshot) *MemoryPersister {
	return &MemoryPersister{snap: s, set: true}
}

func (m *MemoryPersister) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Snapshot{Version: CurrentVersion}, nil
	}
	return Snapshot{Version: m.snap.Version, Entries: append([]Entry(nil), m.snap.Entries...)}, nil
}

func (m *MemoryPersister) Save(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.snap = Snapshot{Version: s.Version, Entries: append([]Entry(nil), s.Entries...)}
	m.set = true
	return nil
}
