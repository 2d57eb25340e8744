// Package state persists the per-chat watermark: the highest message ID
// confirmed written to the database for each monitored chat.
//
// The watermark file is the pipeline's only local state. It is loaded once
// at the start of a run, owned exclusively by the collector for the run's
// duration, and written back atomically at the end. Losing it is safe (the
// next run refetches within the gateway's fetch limit); corrupting it is
// not, which is why writes go through a temp file and rename.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Watermarks maps chat ID to the largest message ID confirmed persisted.
// Values only ever grow; the collector enforces monotonicity per chat.
type Watermarks map[int64]int64

// Store reads and writes the watermark file.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the watermark file location.
func (s *Store) Path() string { return s.path }

// Load reads the watermark file. A missing file means a first run and yields
// an empty map. Malformed content also yields an empty map with a logged
// warning rather than an error: the pipeline then refetches from zero, which
// is wasteful but safe because all writes are idempotent upserts.
func (s *Store) Load() Watermarks {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[WatermarkStore] State file %s not found. It will be created on the first successful run.", s.path)
		} else {
			log.Printf("[WatermarkStore] Error reading state file %s: %v. Starting with empty state.", s.path, err)
		}
		return Watermarks{}
	}
	if len(data) == 0 {
		return Watermarks{}
	}

	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[WatermarkStore] Error decoding state file %s: %v. Starting with empty state.", s.path, err)
		return Watermarks{}
	}

	wm := make(Watermarks, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			log.Printf("[WatermarkStore] State file %s has a non-numeric chat key %q. Starting with empty state.", s.path, k)
			return Watermarks{}
		}
		wm[id] = v
	}
	return wm
}

// Save atomically replaces the watermark file with the full mapping.
// Keys are serialized as strings. The write goes to a temp file in the same
// directory followed by a rename, so a crash mid-write never leaves a
// partially written state file behind.
func (s *Store) Save(wm Watermarks) error {
	raw := make(map[string]int64, len(wm))
	for id, mark := range wm {
		raw[strconv.FormatInt(id, 10)] = mark
	}

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding watermarks: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}
	return nil
}
