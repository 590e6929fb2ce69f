// Package watermark persists the timestamp of the most recently emitted
// record between fetch cycles.
package watermark

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store loads and saves the single emission watermark. Load reports ok ==
// false on first ever use; any other failure must surface, since running
// with an unknown watermark re-emits every record.
type Store interface {
	Load(ctx context.Context) (ts time.Time, ok bool, err error)
	Save(ctx context.Context, ts time.Time) error
}

// FileStore keeps the watermark as unix seconds in a small text file.
type FileStore struct {
	path string
}

// NewFileStore builds a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored watermark. A missing file means no watermark yet.
func (s *FileStore) Load(_ context.Context) (time.Time, bool, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark %s: %w", s.path, err)
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse watermark %s: %w", s.path, err)
	}
	return time.Unix(seconds, 0).UTC(), true, nil
}

// Save overwrites the stored watermark.
func (s *FileStore) Save(_ context.Context, ts time.Time) error {
	data := strconv.FormatInt(ts.Unix(), 10) + "\n"
	if err := os.WriteFile(s.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write watermark %s: %w", s.path, err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	ts time.Time
	ok bool
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns the last saved value.
func (s *MemStore) Load(_ context.Context) (time.Time, bool, error) {
	return s.ts, s.ok, nil
}

// Save records the value in memory.
func (s *MemStore) Save(_ context.Context, ts time.Time) error {
	s.ts = ts
	s.ok = true
	return nil
}
