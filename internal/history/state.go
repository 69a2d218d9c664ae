package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileState keeps per-position progress in a local JSON file.
type FileState struct {
	Path string

	mu sync.Mutex
}

type stateFile struct {
	Positions map[string]int64 `json:"positions"`
	UpdatedAt string           `json:"updated_at"`
}

func (s *FileState) read() (stateFile, error) {
	rec := stateFile{Positions: map[string]int64{}}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return rec, nil
		}
		return rec, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse state: %w", err)
	}
	if rec.Positions == nil {
		rec.Positions = map[string]int64{}
	}
	return rec, nil
}

// LoadState returns the marker saved under name. A missing file or a nil
// receiver reads as no marker.
func (s *FileState) LoadState(_ context.Context, name string) (time.Time, bool, error) {
	if s == nil || s.Path == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return time.Time{}, false, err
	}
	ts, ok := rec.Positions[name]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(ts, 0).UTC(), true, nil
}

// SaveState records at under name, rewriting the whole file.
func (s *FileState) SaveState(_ context.Context, name string, at time.Time) error {
	if s == nil || s.Path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return err
	}
	rec.Positions[name] = at.Unix()
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
