package server

import (
	"sync"
	"time"

	"lexdesk/internal/types"
)

// changeHub fans committed writes out to change-feed subscribers. Slow
// subscribers miss events rather than block writers.
type changeHub struct {
	mu   sync.Mutex
	subs map[int]chan types.ChangeEvent
	next int
	now  func() time.Time
}

func newChangeHub() *changeHub {
	return &changeHub{
		subs: map[int]chan types.ChangeEvent{},
		now:  time.Now,
	}
}

func (h *changeHub) Subscribe() (<-chan types.ChangeEvent, func()) {
	ch := make(chan types.ChangeEvent, 32)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *changeHub) Publish(collection, op, id string) {
	if h == nil {
		return
	}
	ev := types.ChangeEvent{Collection: collection, Op: op, ID: id, At: h.now().UTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *changeHub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
