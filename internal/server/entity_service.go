package server

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"lexdesk/internal/logging"
	"lexdesk/internal/store"
	"lexdesk/internal/types"
)

// entityRules carries what differs between collections. Hooks run while the
// shared write lock is held and must use stores, never services.
type entityRules[T types.Entity] struct {
	schema   store.Schema[T]
	singular string

	stamp     func(item T, id string, created, updated time.Time)
	created   func(item T) time.Time
	normalize func(item T)
	// untrusted clears fields only the server may set. It runs on every
	// create except the server's own.
	untrusted func(item T)
	merge     func(existing, patch T) T

	resolve     func(ctx context.Context, item T) error
	guardDelete func(ctx context.Context, id string) error
	afterUpdate func(ctx context.Context, prev, next T) error
	afterDelete func(ctx context.Context, item T)
}

// EntityService validates and persists one collection.
type EntityService[T types.Entity] struct {
	rules   entityRules[T]
	store   store.EntityStore[T]
	writeMu *sync.Mutex
	events  *changeHub
	metrics *Metrics
	logger  logging.Logger
	now     func() time.Time
}

func (s *EntityService[T]) Collection() string {
	return s.rules.schema.Name
}

// List returns the records passing every constraining filter.
func (s *EntityService[T]) List(ctx context.Context, filters map[string]string) ([]T, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	filters = types.CloneFilters(filters)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if types.Matches(item, "", filters) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Search matches query case-insensitively against the search fields.
func (s *EntityService[T]) Search(ctx context.Context, query string) ([]T, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if types.MatchesTerm(item, query) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *EntityService[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, invalidError(s.rules.singular+" id is required", nil)
	}
	item, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, storeError(err)
	}
	if !ok {
		return zero, notFoundError(s.rules.singular+" not found", store.ErrNotFound)
	}
	return item, nil
}

// Create assigns an id unless the draft carries an unused one.
func (s *EntityService[T]) Create(ctx context.Context, draft T) (T, error) {
	return s.create(ctx, draft, false)
}

// create with trusted set keeps server-owned fields, as the document upload
// path needs for its blob key.
func (s *EntityService[T]) create(ctx context.Context, draft T, trusted bool) (T, error) {
	var zero T
	if isNil(draft) {
		return zero, invalidError(s.rules.singular+" payload is required", nil)
	}
	item := s.rules.schema.Clone(draft)
	if !trusted && s.rules.untrusted != nil {
		s.rules.untrusted(item)
	}
	s.rules.normalize(item)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := strings.TrimSpace(item.EntityID())
	if id != "" {
		if _, exists, err := s.store.Get(ctx, id); err != nil {
			return zero, storeError(err)
		} else if exists {
			return zero, conflictError(s.rules.singular+" already exists", nil)
		}
	} else {
		var err error
		if id, err = s.rules.schema.NewID(); err != nil {
			return zero, unavailableError("id generation failed", err)
		}
	}
	now := s.now().UTC()
	s.rules.stamp(item, id, now, now)
	if err := s.check(ctx, item); err != nil {
		return zero, err
	}
	saved, err := s.store.Upsert(ctx, item)
	if err != nil {
		return zero, storeError(err)
	}
	s.committed(ctx, "create", id)
	return saved, nil
}

// Update merges patch over the stored record, then validates the result.
func (s *EntityService[T]) Update(ctx context.Context, id string, patch T) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, invalidError(s.rules.singular+" id is required", nil)
	}
	if isNil(patch) {
		return zero, invalidError(s.rules.singular+" payload is required", nil)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, storeError(err)
	}
	if !ok {
		return zero, notFoundError(s.rules.singular+" not found", store.ErrNotFound)
	}
	merged := s.rules.merge(s.rules.schema.Clone(existing), patch)
	s.rules.normalize(merged)
	s.rules.stamp(merged, id, s.rules.created(existing), s.now().UTC())
	if err := s.check(ctx, merged); err != nil {
		return zero, err
	}
	saved, err := s.store.Upsert(ctx, merged)
	if err != nil {
		return zero, storeError(err)
	}
	if s.rules.afterUpdate != nil {
		if err := s.rules.afterUpdate(ctx, existing, saved); err != nil {
			s.log(ctx).Warn("propagate_update_failed",
				logging.F("id", id),
				logging.Err(err),
			)
		}
	}
	s.committed(ctx, "update", id)
	return saved, nil
}

func (s *EntityService[T]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalidError(s.rules.singular+" id is required", nil)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return notFoundError(s.rules.singular+" not found", store.ErrNotFound)
	}
	if s.rules.guardDelete != nil {
		if err := s.rules.guardDelete(ctx, id); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError(s.rules.singular+" not found", err)
		}
		return storeError(err)
	}
	if s.rules.afterDelete != nil {
		s.rules.afterDelete(ctx, existing)
	}
	s.committed(ctx, "delete", id)
	return nil
}

func (s *EntityService[T]) check(ctx context.Context, item T) error {
	if s.rules.resolve != nil {
		if err := s.rules.resolve(ctx, item); err != nil {
			return err
		}
	}
	if err := types.Validate(item); err != nil {
		return invalidError(err.Error(), err)
	}
	return nil
}

func (s *EntityService[T]) committed(ctx context.Context, op, id string) {
	s.metrics.recordWrite(s.Collection(), op)
	s.events.Publish(s.Collection(), op, id)
	s.log(ctx).Debug("entity_"+op, logging.F("id", id))
}

// log is the request logger when one travels in ctx, tagged with the
// collection.
func (s *EntityService[T]) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.logger).With(logging.F("collection", s.Collection()))
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func trimmed(patch, current string) string {
	if value := strings.TrimSpace(patch); value != "" {
		return value
	}
	return current
}
