// Package state holds the client-side entity collections and the lifecycle
// that keeps them in sync with the remote API.
package state

import (
	"context"

	"lexdesk/internal/client"
	"lexdesk/internal/types"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

type Op string

const (
	OpFetchAll  Op = "fetchAll"
	OpFetchByID Op = "fetchById"
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpSearch    Op = "search"
)

type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
	// PhaseDiscarded marks a settlement that arrived after a newer dispatch
	// for the same key or after its context ended. It changes no data.
	PhaseDiscarded Phase = "discarded"
)

// Gateway is the remote side of one collection. Implementations report every
// failure through the envelope instead of returning errors.
type Gateway[T types.Entity] interface {
	List(ctx context.Context, filters map[string]string) client.Envelope[[]T]
	Get(ctx context.Context, id string) client.Envelope[T]
	Create(ctx context.Context, draft T) client.Envelope[T]
	Update(ctx context.Context, id string, patch T) client.Envelope[T]
	Delete(ctx context.Context, id string) client.Envelope[string]
	Search(ctx context.Context, query string) client.Envelope[[]T]
}

// Outcome describes how one dispatched operation settled.
type Outcome[T types.Entity] struct {
	Op       Op
	Phase    Phase
	Seq      uint64
	ID       string
	Item     T
	Items    []T
	Err      string
	Stale    bool
	Canceled bool
}

func (o Outcome[T]) Fulfilled() bool { return o.Phase == PhaseFulfilled }
func (o Outcome[T]) Rejected() bool  { return o.Phase == PhaseRejected }

// Event is delivered to subscribers after every state change.
type Event struct {
	Collection string
	Op         Op
	Phase      Phase
	Seq        uint64
}

// Snapshot is a consistent read of a repository.
type Snapshot[T types.Entity] struct {
	Items        []T
	SelectedID   string
	Selected     T
	HasSelection bool
	SearchTerm   string
	Filters      map[string]string
	Status       Status
	LastError    string
	TotalCount   int
	InFlight     int
}
