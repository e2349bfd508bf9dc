package state

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"lexdesk/internal/client"
	"lexdesk/internal/types"
)

// Gateways binds each collection to its remote side.
type Gateways struct {
	Cases     Gateway[*types.Case]
	Clients   Gateway[*types.Client]
	Documents Gateway[*types.Document]
	Tasks     Gateway[*types.Task]
}

func GatewaysFromClient(c *client.Client) Gateways {
	return Gateways{
		Cases:     c.Cases(),
		Clients:   c.Clients(),
		Documents: c.Documents(),
		Tasks:     c.Tasks(),
	}
}

// Store is the session container for every entity collection. Construct one
// per session and pass it to the views that need it.
type Store struct {
	Cases     *Repository[*types.Case]
	Clients   *Repository[*types.Client]
	Documents *Repository[*types.Document]
	Tasks     *Repository[*types.Task]
}

func NewStore(g Gateways) *Store {
	return &Store{
		Cases:     NewRepository[*types.Case]("cases", g.Cases),
		Clients:   NewRepository[*types.Client]("clients", g.Clients),
		Documents: NewRepository[*types.Document]("documents", g.Documents),
		Tasks:     NewRepository[*types.Task]("tasks", g.Tasks),
	}
}

// Subscribe registers fn on every collection.
func (s *Store) Subscribe(fn func(Event)) func() {
	cancels := []func(){
		s.Cases.Subscribe(fn),
		s.Clients.Subscribe(fn),
		s.Documents.Subscribe(fn),
		s.Tasks.Subscribe(fn),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// ErrRefreshFailed is returned by Refresh when any collection rejected.
var ErrRefreshFailed = errors.New("refresh failed")

// Refresh runs fetchAll on the named collections concurrently. An empty list
// refreshes all of them. Each collection keeps its own filters argument.
func (s *Store) Refresh(ctx context.Context, collections []string, filters map[string]map[string]string) error {
	if len(collections) == 0 {
		collections = []string{"cases", "clients", "documents", "tasks"}
	}
	type result struct {
		name string
		err  string
	}
	results := make(chan result, len(collections))
	pending := 0
	for _, name := range collections {
		var run func() (Phase, string)
		switch name {
		case "cases":
			run = func() (Phase, string) { o := s.Cases.FetchAll(ctx, filters[name]); return o.Phase, o.Err }
		case "clients":
			run = func() (Phase, string) { o := s.Clients.FetchAll(ctx, filters[name]); return o.Phase, o.Err }
		case "documents":
			run = func() (Phase, string) { o := s.Documents.FetchAll(ctx, filters[name]); return o.Phase, o.Err }
		case "tasks":
			run = func() (Phase, string) { o := s.Tasks.FetchAll(ctx, filters[name]); return o.Phase, o.Err }
		default:
			continue
		}
		pending++
		go func(name string, run func() (Phase, string)) {
			phase, msg := run()
			if phase == PhaseRejected {
				results <- result{name: name, err: msg}
				return
			}
			results <- result{name: name}
		}(name, run)
	}
	var failures []error
	for i := 0; i < pending; i++ {
		res := <-results
		if res.err != "" {
			failures = append(failures, errors.New(res.name+": "+res.err))
		}
	}
	if len(failures) > 0 {
		return multierr.Combine(append([]error{ErrRefreshFailed}, failures...)...)
	}
	return nil
}
