package state

import (
	"context"
	"strconv"
	"strings"

	"lexdesk/internal/client"
	"lexdesk/internal/types"
)

type ticket struct {
	op  Op
	key string
	seq uint64
}

// begin records the pending phase. fetchAll also clears lastError.
func (r *Repository[T]) begin(op Op, key string) ticket {
	r.mu.Lock()
	r.nextSeq++
	t := ticket{op: op, key: key, seq: r.nextSeq}
	r.latest[key] = t.seq
	r.inflight++
	r.status = StatusLoading
	if op == OpFetchAll {
		r.lastError = ""
	}
	r.mu.Unlock()
	r.notify(Event{Op: op, Phase: PhasePending, Seq: t.seq})
	return t
}

// dispatch runs one operation through pending and settlement. The lock is
// never held across the gateway call. commit runs under the lock and only for
// fulfilled, current settlements.
func dispatch[T types.Entity, D any](
	ctx context.Context,
	r *Repository[T],
	op Op,
	key string,
	call func(context.Context) client.Envelope[D],
	commit func(D, *Outcome[T]),
) Outcome[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	t := r.begin(op, key)
	env := call(ctx)

	out := Outcome[T]{Op: op, Seq: t.seq, ID: keyID(key)}

	r.mu.Lock()
	r.inflight--
	current := r.latest[key] == t.seq
	if current {
		delete(r.latest, key)
	}
	switch {
	case ctx.Err() != nil:
		out.Phase = PhaseDiscarded
		out.Canceled = true
		out.Err = ctx.Err().Error()
		r.settleDiscardedLocked()
	case !current:
		if r.latest[key] == 0 {
			delete(r.latest, key)
		}
		out.Phase = PhaseDiscarded
		out.Stale = true
		r.settleDiscardedLocked()
	case !env.Success:
		out.Phase = PhaseRejected
		out.Err = errorMessage(env.Message, op)
		r.status = StatusError
		r.lastError = out.Err
	default:
		out.Phase = PhaseFulfilled
		commit(env.Data, &out)
		if op == OpUpdate || op == OpDelete {
			r.invalidateReadsLocked(key, t.seq)
		}
		r.totalCount = len(r.items)
		if r.inflight == 0 {
			r.status = StatusIdle
		}
	}
	r.mu.Unlock()

	r.notify(Event{Op: op, Phase: out.Phase, Seq: t.seq})
	return out
}

// invalidateReadsLocked makes fetchById calls on id that began before the
// write at seq settle as stale; they may carry the pre-write record.
func (r *Repository[T]) invalidateReadsLocked(id string, seq uint64) {
	key := readKeyPrefix + id
	if pending, ok := r.latest[key]; ok && pending < seq {
		r.latest[key] = 0
	}
}

// keyID is the entity id a sequence key refers to, or "" for collection and
// draft keys.
func keyID(key string) string {
	if id, ok := strings.CutPrefix(key, readKeyPrefix); ok {
		return id
	}
	if strings.HasPrefix(key, "\x00") {
		return ""
	}
	return key
}

func (r *Repository[T]) settleDiscardedLocked() {
	if r.inflight == 0 && r.status == StatusLoading {
		r.status = StatusIdle
	}
}

func errorMessage(message string, op Op) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return string(op) + " failed"
	}
	return message
}

// FetchAll replaces items with the server list. A missing or malformed list
// yields an empty collection.
func (r *Repository[T]) FetchAll(ctx context.Context, filters map[string]string) Outcome[T] {
	return dispatch(ctx, r, OpFetchAll, collectionKey,
		func(ctx context.Context) client.Envelope[[]T] {
			return r.gateway.List(ctx, filters)
		},
		func(items []T, out *Outcome[T]) {
			r.replaceAllLocked(items)
			out.Items = r.copyItemsLocked()
		})
}

// Search replaces items with the server's matches, like FetchAll.
func (r *Repository[T]) Search(ctx context.Context, query string) Outcome[T] {
	return dispatch(ctx, r, OpSearch, collectionKey,
		func(ctx context.Context) client.Envelope[[]T] {
			return r.gateway.Search(ctx, query)
		},
		func(items []T, out *Outcome[T]) {
			r.replaceAllLocked(items)
			out.Items = r.copyItemsLocked()
		})
}

// FetchByID loads one record and makes it the selection.
func (r *Repository[T]) FetchByID(ctx context.Context, id string) Outcome[T] {
	return dispatch(ctx, r, OpFetchByID, readKeyPrefix+id,
		func(ctx context.Context) client.Envelope[T] {
			return r.gateway.Get(ctx, id)
		},
		func(item T, out *Outcome[T]) {
			if isNull(item) {
				return
			}
			r.selectedID = item.EntityID()
			r.detail = item
			r.hasDetail = true
			out.Item = item
		})
}

// Create appends the server's record. A record whose id is already cached
// replaces the cached entry.
func (r *Repository[T]) Create(ctx context.Context, draft T) Outcome[T] {
	key := ""
	if !isNull(draft) {
		key = draft.EntityID()
	}
	if key == "" {
		key = draftKeyPrefix + strconv.FormatUint(r.drafts.Add(1), 10)
	}
	return dispatch(ctx, r, OpCreate, key,
		func(ctx context.Context) client.Envelope[T] {
			return r.gateway.Create(ctx, draft)
		},
		func(item T, out *Outcome[T]) {
			if isNull(item) {
				return
			}
			if i := r.indexLocked(item.EntityID()); i >= 0 {
				r.items[i] = item
			} else {
				r.items = append(r.items, item)
			}
			out.ID = item.EntityID()
			out.Item = item
		})
}

// Update replaces the cached entry for id and refreshes the selection. It
// never appends.
func (r *Repository[T]) Update(ctx context.Context, id string, patch T) Outcome[T] {
	return dispatch(ctx, r, OpUpdate, id,
		func(ctx context.Context) client.Envelope[T] {
			return r.gateway.Update(ctx, id, patch)
		},
		func(item T, out *Outcome[T]) {
			if isNull(item) {
				return
			}
			if i := r.indexLocked(id); i >= 0 {
				r.items[i] = item
			}
			if r.selectedID == id {
				r.selectedID = item.EntityID()
				if r.hasDetail {
					r.detail = item
				}
			}
			out.Item = item
		})
}

// Delete removes id from items and clears a matching selection.
func (r *Repository[T]) Delete(ctx context.Context, id string) Outcome[T] {
	return dispatch(ctx, r, OpDelete, id,
		func(ctx context.Context) client.Envelope[string] {
			return r.gateway.Delete(ctx, id)
		},
		func(_ string, out *Outcome[T]) {
			if i := r.indexLocked(id); i >= 0 {
				r.items = append(r.items[:i:i], r.items[i+1:]...)
			}
			if r.selectedID == id {
				r.clearSelectionLocked()
			}
		})
}

func (r *Repository[T]) replaceAllLocked(items []T) {
	next := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		id := item.EntityID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, item)
	}
	r.items = next
	if r.hasDetail {
		if _, cached := seen[r.detail.EntityID()]; cached {
			var zero T
			r.detail = zero
			r.hasDetail = false
		}
	}
}

func (r *Repository[T]) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range r.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}
