package state

import (
	"sync"
	"sync/atomic"

	"lexdesk/internal/types"
)

const (
	// collectionKey sequences the operations that replace the whole collection.
	collectionKey = "\x00collection"
	// draftKeyPrefix keys creates whose draft carries no id; each is unique.
	draftKeyPrefix = "\x00draft:"
	// readKeyPrefix keys fetchById apart from writes on the same id, so a
	// read never makes a pending update or delete stale.
	readKeyPrefix = "\x00read:"
)

// Repository caches one entity collection for a session. Only settlements of
// dispatched operations write items and status; the remaining setters touch
// local view state.
type Repository[T types.Entity] struct {
	name    string
	gateway Gateway[T]

	mu         sync.Mutex
	items      []T
	selectedID string
	detail     T
	hasDetail  bool
	searchTerm string
	filters    map[string]string
	status     Status
	lastError  string
	totalCount int
	inflight   int
	nextSeq    uint64
	latest     map[string]uint64
	drafts     atomic.Uint64

	listenersMu sync.Mutex
	listeners   map[int]func(Event)
	nextListen  int
}

func NewRepository[T types.Entity](name string, gateway Gateway[T]) *Repository[T] {
	return &Repository[T]{
		name:      name,
		gateway:   gateway,
		items:     make([]T, 0),
		filters:   map[string]string{},
		status:    StatusIdle,
		latest:    map[string]uint64{},
		listeners: map[int]func(Event){},
	}
}

func (r *Repository[T]) Name() string {
	return r.name
}

// Subscribe registers fn for change events and returns its cancel func.
func (r *Repository[T]) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	r.listenersMu.Lock()
	id := r.nextListen
	r.nextListen++
	r.listeners[id] = fn
	r.listenersMu.Unlock()
	return func() {
		r.listenersMu.Lock()
		delete(r.listeners, id)
		r.listenersMu.Unlock()
	}
}

func (r *Repository[T]) notify(ev Event) {
	ev.Collection = r.name
	r.listenersMu.Lock()
	fns := make([]func(Event), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.listenersMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Select points the selection at id without a network call. An empty id
// clears it. The id is not checked against items.
func (r *Repository[T]) Select(id string) {
	r.mu.Lock()
	r.selectedID = id
	if r.hasDetail && r.detail.EntityID() != id {
		var zero T
		r.detail = zero
		r.hasDetail = false
	}
	r.mu.Unlock()
	r.notify(Event{Op: "select"})
}

// SelectItem selects a record the caller already holds, keeping it as the
// detail record when it is not in items.
func (r *Repository[T]) SelectItem(item T) {
	if isNull(item) {
		r.ClearSelection()
		return
	}
	r.mu.Lock()
	r.selectedID = item.EntityID()
	r.detail = item
	r.hasDetail = true
	r.mu.Unlock()
	r.notify(Event{Op: "select"})
}

func (r *Repository[T]) ClearSelection() {
	r.mu.Lock()
	r.clearSelectionLocked()
	r.mu.Unlock()
	r.notify(Event{Op: "select"})
}

func (r *Repository[T]) clearSelectionLocked() {
	var zero T
	r.selectedID = ""
	r.detail = zero
	r.hasDetail = false
}

func (r *Repository[T]) SetSearchTerm(term string) {
	r.mu.Lock()
	r.searchTerm = term
	r.mu.Unlock()
	r.notify(Event{Op: "search_term"})
}

// SetFilters merges partial into the current filters; existing keys not in
// partial are kept.
func (r *Repository[T]) SetFilters(partial map[string]string) {
	r.mu.Lock()
	for key, value := range types.CloneFilters(partial) {
		r.filters[key] = value
	}
	r.mu.Unlock()
	r.notify(Event{Op: "filters"})
}

func (r *Repository[T]) ResetFilters() {
	r.mu.Lock()
	r.filters = map[string]string{}
	r.searchTerm = ""
	r.mu.Unlock()
	r.notify(Event{Op: "filters"})
}

// ClearError acknowledges lastError and leaves the error status.
func (r *Repository[T]) ClearError() {
	r.mu.Lock()
	r.lastError = ""
	if r.status == StatusError {
		r.status = StatusIdle
	}
	r.mu.Unlock()
	r.notify(Event{Op: "clear_error"})
}

func isNull[T types.Entity](item T) bool {
	return any(item) == nil || item.EntityID() == ""
}
