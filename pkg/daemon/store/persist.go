package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Schema versions:
// 1 - initial format (entries only)
// 2 - added burst pick flags
// 3 - added builtAt timestamp and optional location fields
const CurrentSchemaVersion = 3

// ErrVersionMismatch is returned when the persisted file carries a
// schema version other than CurrentSchemaVersion. The file is useless
// at that point; the caller must run a full build.
var ErrVersionMismatch = errors.New("index schema version mismatch")

// indexFile is the on-disk document. It lives in an OS-reclaimable
// cache location, so absence is always tolerated as a cold start.
type indexFile struct {
	Version int              `json:"version"`
	BuiltAt time.Time        `json:"builtAt"`
	Entries map[string]Entry `json:"entries"`
}

// Persister serializes the index to a single versioned JSON file.
type Persister struct {
	path string

	// mu serializes writers so rapid successive saves cannot interleave
	// their temp-file renames.
	mu sync.Mutex
}

// NewPersister creates a persister writing to path.
func NewPersister(path string) *Persister {
	return &Persister{path: path}
}

// Path returns the index file location.
func (p *Persister) Path() string {
	return p.path
}

// Load reads the persisted index. It returns the entries keyed by
// asset id and the timestamp of the full build that produced them.
// A missing, unreadable, or version-mismatched file fails the load;
// there is no partial recovery.
func (p *Persister) Load() (map[string]Entry, time.Time, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, time.Time{}, err
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding index file: %w", err)
	}

	if f.Version != CurrentSchemaVersion {
		return nil, time.Time{}, fmt.Errorf("%w: file has %d, want %d",
			ErrVersionMismatch, f.Version, CurrentSchemaVersion)
	}

	if f.Entries == nil {
		f.Entries = make(map[string]Entry)
	}
	for id, e := range f.Entries {
		e.AssetID = id
		f.Entries[id] = e
	}

	return f.Entries, f.BuiltAt, nil
}

// Save writes the snapshot as the current schema version. The write
// goes to a temp file first and is renamed into place so readers never
// observe a torn document.
func (p *Persister) Save(snap Snapshot, builtAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	f := indexFile{
		Version: CurrentSchemaVersion,
		BuiltAt: builtAt,
		Entries: snap.Entries,
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	return nil
}

// Remove deletes the persisted file. Missing files are not an error.
func (p *Persister) Remove() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
