package state

import "lexdesk/internal/types"

func (r *Repository[T]) copyItemsLocked() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// selectedLocked resolves the selection, preferring the detail record when it
// carries the selected id.
func (r *Repository[T]) selectedLocked() (T, bool) {
	var zero T
	if r.selectedID == "" {
		return zero, false
	}
	if r.hasDetail && r.detail.EntityID() == r.selectedID {
		return r.detail, true
	}
	if i := r.indexLocked(r.selectedID); i >= 0 {
		return r.items[i], true
	}
	return zero, false
}

func (r *Repository[T]) filteredLocked() []T {
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		if types.Matches(item, r.searchTerm, r.filters) {
			out = append(out, item)
		}
	}
	return out
}

// Snapshot reads every field under one lock. Slices and maps are copies; the
// records themselves are shared and must not be mutated.
func (r *Repository[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	selected, ok := r.selectedLocked()
	return Snapshot[T]{
		Items:        r.copyItemsLocked(),
		SelectedID:   r.selectedID,
		Selected:     selected,
		HasSelection: ok,
		SearchTerm:   r.searchTerm,
		Filters:      types.CloneFilters(r.filters),
		Status:       r.status,
		LastError:    r.lastError,
		TotalCount:   r.totalCount,
		InFlight:     r.inflight,
	}
}

func (r *Repository[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyItemsLocked()
}

// Selected returns the selected record. The bool is false when nothing is
// selected or the selected id is neither cached nor held as detail.
func (r *Repository[T]) Selected() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedLocked()
}

func (r *Repository[T]) SelectedID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedID
}

// Filtered applies the search term and filters to items. It is recomputed on
// every call.
func (r *Repository[T]) Filtered() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filteredLocked()
}

func (r *Repository[T]) SearchTerm() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searchTerm
}

func (r *Repository[T]) Filters() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return types.CloneFilters(r.filters)
}

func (r *Repository[T]) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Repository[T]) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

func (r *Repository[T]) TotalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalCount
}

func (r *Repository[T]) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}
