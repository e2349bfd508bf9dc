package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lexdesk/internal/types"
)

const recordFileVersion = 1

type FileEntityStore[T types.Entity] struct {
	path   string
	schema Schema[T]
	mu     sync.Mutex
}

type recordFile[T types.Entity] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// NewFileEntityStore keeps the collection in dir/<name>.json.
func NewFileEntityStore[T types.Entity](dir string, schema Schema[T]) *FileEntityStore[T] {
	return &FileEntityStore[T]{
		path:   filepath.Join(dir, schema.Name+".json"),
		schema: schema,
	}
}

func (s *FileEntityStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(file.Items))
	for _, item := range file.Items {
		out = append(out, s.schema.Clone(item))
	}
	s.schema.sort(out)
	return out, nil
}

func (s *FileEntityStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	file, err := s.load()
	if err != nil {
		return zero, false, err
	}
	for _, item := range file.Items {
		if item.EntityID() == id {
			return s.schema.Clone(item), true, nil
		}
	}
	return zero, false, nil
}

func (s *FileEntityStore[T]) Upsert(ctx context.Context, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	id, err := s.schema.key(item)
	if err != nil {
		return zero, err
	}
	file, err := s.load()
	if err != nil {
		return zero, err
	}
	stored := s.schema.Clone(item)
	replaced := false
	for i, existing := range file.Items {
		if existing.EntityID() == id {
			file.Items[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		file.Items = append(file.Items, stored)
	}
	if err := s.save(file); err != nil {
		return zero, err
	}
	return s.schema.Clone(stored), nil
}

func (s *FileEntityStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}
	kept := file.Items[:0]
	found := false
	for _, item := range file.Items {
		if item.EntityID() == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return ErrNotFound
	}
	file.Items = kept
	return s.save(file)
}

func (s *FileEntityStore[T]) load() (*recordFile[T], error) {
	file := &recordFile[T]{Version: recordFileVersion}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return file, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(s.path), err)
	}
	kept := file.Items[:0]
	for _, item := range file.Items {
		if item.EntityID() != "" {
			kept = append(kept, item)
		}
	}
	file.Items = kept
	if file.Version == 0 {
		file.Version = recordFileVersion
	}
	return file, nil
}

// save replaces the collection file through a synced temp file.
func (s *FileEntityStore[T]) save(file *recordFile[T]) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+s.schema.Name+"-*.json")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(file); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
