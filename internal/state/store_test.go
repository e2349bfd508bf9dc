package state

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lexdesk/internal/client"
	"lexdesk/internal/types"
)

func TestStoreRefresh(t *testing.T) {
	cases := &fakeGateway[*types.Case]{
		list: func(_ context.Context, filters map[string]string) client.Envelope[[]*types.Case] {
			if filters["status"] != "Active" {
				return failure[[]*types.Case]("missing filter")
			}
			return success([]*types.Case{{ID: "case_1"}})
		},
	}
	clients := &fakeGateway[*types.Client]{list: listOf(&types.Client{ID: "c1"})}
	documents := &fakeGateway[*types.Document]{
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Document] {
			return failure[[]*types.Document]("storage offline")
		},
	}
	tasks := &fakeGateway[*types.Task]{
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Task] {
			return success([]*types.Task{})
		},
	}
	store := NewStore(Gateways{Cases: cases, Clients: clients, Documents: documents, Tasks: tasks})

	err := store.Refresh(context.Background(), nil, map[string]map[string]string{"cases": {"status": "Active"}})
	if !errors.Is(err, ErrRefreshFailed) || !strings.Contains(err.Error(), "storage offline") {
		t.Fatalf("expected documents failure, got %v", err)
	}
	if store.Cases.TotalCount() != 1 || store.Clients.TotalCount() != 1 {
		t.Fatalf("expected cases and clients populated")
	}
	if store.Documents.Status() != StatusError {
		t.Fatalf("expected documents in error")
	}

	if err := store.Refresh(context.Background(), []string{"clients", "tasks"}, nil); err != nil {
		t.Fatalf("partial refresh: %v", err)
	}
}

func TestStoreSubscribe(t *testing.T) {
	clients := &fakeGateway[*types.Client]{list: listOf()}
	tasks := &fakeGateway[*types.Task]{
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Task] {
			return success([]*types.Task{})
		},
	}
	store := NewStore(Gateways{Clients: clients, Tasks: tasks})
	seen := map[string]int{}
	cancel := store.Subscribe(func(ev Event) { seen[ev.Collection]++ })
	store.Clients.FetchAll(context.Background(), nil)
	store.Tasks.FetchAll(context.Background(), nil)
	cancel()
	store.Clients.FetchAll(context.Background(), nil)
	if seen["clients"] != 2 || seen["tasks"] != 2 {
		t.Fatalf("unexpected events %#v", seen)
	}
}
