// Package store manages timestamped JSON snapshots of upstream API
// responses. Each resource lives in its own directory under the root and
// accumulates files named response_body_<timestamp>.json; readers work from
// the latest snapshot, writers can prune older ones.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSnapshots is returned when a resource directory holds no snapshots.
var ErrNoSnapshots = errors.New("no snapshots")

const (
	filePrefix = "response_body_"
	timeLayout = "2006-01-02T15-04-05"
)

// SnapshotStore reads and writes snapshots under one root directory.
type SnapshotStore struct {
	Root        string // e.g. "data/2025-2026"
	PrettyWrite bool
}

// NewSnapshotStore returns a store rooted at root with pretty-printed writes.
func NewSnapshotStore(root string) *SnapshotStore {
	return &SnapshotStore{Root: root, PrettyWrite: true}
}

// Dir returns the absolute directory for one resource.
func (s *SnapshotStore) Dir(rel string) string {
	return filepath.Join(s.Root, rel)
}

func (s *SnapshotStore) fileFor(rel string, ts time.Time) string {
	return filepath.Join(s.Dir(rel), filePrefix+ts.UTC().Format(timeLayout)+".json")
}

// States lists the snapshot timestamps recorded for a resource, oldest first.
// A missing directory yields an empty list.
func (s *SnapshotStore) States(rel string) ([]time.Time, error) {
	entries, err := os.ReadDir(s.Dir(rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var states []time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json")
		ts, err := time.Parse(timeLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("store: bad snapshot filename %q: %w", name, err)
		}
		states = append(states, ts)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Before(states[j]) })
	return states, nil
}

// Latest returns the most recent snapshot timestamp, or ErrNoSnapshots.
func (s *SnapshotStore) Latest(rel string) (time.Time, error) {
	states, err := s.States(rel)
	if err != nil {
		return time.Time{}, err
	}
	if len(states) == 0 {
		return time.Time{}, fmt.Errorf("store: %s: %w", rel, ErrNoSnapshots)
	}
	return states[len(states)-1], nil
}

// Read returns the snapshot body recorded at ts.
func (s *SnapshotStore) Read(rel string, ts time.Time) ([]byte, error) {
	return os.ReadFile(s.fileFor(rel, ts))
}

// ReadLatest returns the most recent snapshot body, or ErrNoSnapshots.
func (s *SnapshotStore) ReadLatest(rel string) ([]byte, error) {
	ts, err := s.Latest(rel)
	if err != nil {
		return nil, err
	}
	return s.Read(rel, ts)
}

// Write records a snapshot at ts, creating the resource directory as needed.
// When prune is set, older snapshots of the same resource are removed.
func (s *SnapshotStore) Write(rel string, ts time.Time, body []byte, prune bool) error {
	path := s.fileFor(rel, ts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if s.PrettyWrite {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			buf := &bytes.Buffer{}
			enc := json.NewEncoder(buf)
			enc.SetIndent("", "  ")
			_ = enc.Encode(v)
			body = buf.Bytes()
		}
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}

	if prune {
		states, err := s.States(rel)
		if err != nil {
			return err
		}
		for _, old := range states {
			oldPath := s.fileFor(rel, old)
			if oldPath == path {
				continue
			}
			if err := os.Remove(oldPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// Fresh reports whether a snapshot taken at ts is still within maxAge of now.
func Fresh(ts time.Time, maxAge time.Duration, now time.Time) bool {
	return now.Sub(ts) < maxAge
}
