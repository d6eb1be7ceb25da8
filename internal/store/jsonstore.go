package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

// JSONStore keeps the route as a JSON document on disk, the legacy flat
// shape under a top-level "route" key. Reads re-normalize whatever dialect
// the file holds, so hand-edited or imported documents heal on first load.
// Writes go through a temp file and rename so a crash never leaves a
// half-written document.
type JSONStore struct {
	mu        sync.RWMutex
	routePath string
	trialPath string
}

func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{
		routePath: filepath.Join(dir, "route.json"),
		trialPath: filepath.Join(dir, "trial_route.json"),
	}, nil
}

func (s *JSONStore) Close() {}

func (s *JSONStore) LoadStops(ctx context.Context) ([]route.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadDocument(s.routePath)
}

func (s *JSONStore) SaveStops(ctx context.Context, stops []route.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDocument(s.routePath, stops)
}

func (s *JSONStore) LastModified(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, err := os.Stat(s.routePath)
	if os.IsNotExist(err) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stat route document: %w", err)
	}
	return info.ModTime().UTC(), nil
}

func (s *JSONStore) LoadTrial(ctx context.Context) ([]route.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadDocument(s.trialPath)
}

func (s *JSONStore) SaveTrial(ctx context.Context, stops []route.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDocument(s.trialPath, stops)
}

func (s *JSONStore) DeleteTrial(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.trialPath)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (s *JSONStore) HasTrial(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.trialPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func loadDocument(path string) ([]route.Stop, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read route document: %w", err)
	}

	records, err := route.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	stops, _ := route.NormalizeForPersistence(records)
	return stops, nil
}

func writeDocument(path string, stops []route.Stop) error {
	if stops == nil {
		stops = []route.Stop{}
	}
	data, err := json.MarshalIndent(map[string]any{"route": stops}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode route document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".route-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace route document: %w", err)
	}
	return nil
}
