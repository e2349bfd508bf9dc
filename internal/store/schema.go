package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"lexdesk/internal/types"
)

var ErrNotFound = errors.New("record not found")

// EntityStore persists one entity collection. Returned records are clones.
type EntityStore[T types.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, bool, error)
	Upsert(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Schema describes how a collection is named, keyed and copied.
type Schema[T types.Entity] struct {
	Name     string
	IDPrefix string
	New      func() T
	Clone    func(T) T
	Created  func(T) time.Time
}

var (
	CaseSchema = Schema[*types.Case]{
		Name:     "cases",
		IDPrefix: "case",
		New:      func() *types.Case { return &types.Case{} },
		Clone:    (*types.Case).Clone,
		Created:  func(c *types.Case) time.Time { return c.CreatedAt },
	}
	ClientSchema = Schema[*types.Client]{
		Name:     "clients",
		IDPrefix: "client",
		New:      func() *types.Client { return &types.Client{} },
		Clone:    (*types.Client).Clone,
		Created:  func(c *types.Client) time.Time { return c.CreatedAt },
	}
	DocumentSchema = Schema[*types.Document]{
		Name:     "documents",
		IDPrefix: "doc",
		New:      func() *types.Document { return &types.Document{} },
		Clone:    (*types.Document).Clone,
		Created:  func(d *types.Document) time.Time { return d.CreatedAt },
	}
	TaskSchema = Schema[*types.Task]{
		Name:     "tasks",
		IDPrefix: "task",
		New:      func() *types.Task { return &types.Task{} },
		Clone:    (*types.Task).Clone,
		Created:  func(t *types.Task) time.Time { return t.CreatedAt },
	}
)

func (s Schema[T]) NewID() (string, error) {
	return NewID(s.IDPrefix)
}

func (s Schema[T]) sort(items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := s.Created(items[i]), s.Created(items[j])
		if ci.Equal(cj) {
			return items[i].EntityID() < items[j].EntityID()
		}
		return ci.Before(cj)
	})
}

func (s Schema[T]) key(item T) (string, error) {
	id := strings.TrimSpace(item.EntityID())
	if id == "" {
		return "", errors.New(strings.TrimSuffix(s.Name, "s") + " id is required")
	}
	return id, nil
}

func NewID(prefix string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return hex.EncodeToString(buf), nil
	}
	return prefix + "_" + hex.EncodeToString(buf), nil
}
