package state

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"lexdesk/internal/client"
	"lexdesk/internal/types"
)

type fakeGateway[T types.Entity] struct {
	list   func(ctx context.Context, filters map[string]string) client.Envelope[[]T]
	get    func(ctx context.Context, id string) client.Envelope[T]
	create func(ctx context.Context, draft T) client.Envelope[T]
	update func(ctx context.Context, id string, patch T) client.Envelope[T]
	delete func(ctx context.Context, id string) client.Envelope[string]
	search func(ctx context.Context, query string) client.Envelope[[]T]
}

func (f *fakeGateway[T]) List(ctx context.Context, filters map[string]string) client.Envelope[[]T] {
	return f.list(ctx, filters)
}

func (f *fakeGateway[T]) Get(ctx context.Context, id string) client.Envelope[T] {
	return f.get(ctx, id)
}

func (f *fakeGateway[T]) Create(ctx context.Context, draft T) client.Envelope[T] {
	return f.create(ctx, draft)
}

func (f *fakeGateway[T]) Update(ctx context.Context, id string, patch T) client.Envelope[T] {
	return f.update(ctx, id, patch)
}

func (f *fakeGateway[T]) Delete(ctx context.Context, id string) client.Envelope[string] {
	return f.delete(ctx, id)
}

func (f *fakeGateway[T]) Search(ctx context.Context, query string) client.Envelope[[]T] {
	return f.search(ctx, query)
}

func success[T any](data T) client.Envelope[T] {
	return client.Envelope[T]{Success: true, Data: data, StatusCode: 200}
}

func failure[T any](msg string) client.Envelope[T] {
	return client.Envelope[T]{Message: msg, StatusCode: 400}
}

func listOf(items ...*types.Client) func(context.Context, map[string]string) client.Envelope[[]*types.Client] {
	return func(context.Context, map[string]string) client.Envelope[[]*types.Client] {
		return success(items)
	}
}

func seeded(t *testing.T, gw *fakeGateway[*types.Client], items ...*types.Client) *Repository[*types.Client] {
	t.Helper()
	gw.list = listOf(items...)
	repo := NewRepository[*types.Client]("clients", gw)
	if out := repo.FetchAll(context.Background(), nil); !out.Fulfilled() {
		t.Fatalf("seed fetch: %#v", out)
	}
	return repo
}

func ids(items []*types.Client) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func checkCount(t *testing.T, repo *Repository[*types.Client]) {
	t.Helper()
	snap := repo.Snapshot()
	if snap.TotalCount != len(snap.Items) {
		t.Fatalf("totalCount %d != len(items) %d", snap.TotalCount, len(snap.Items))
	}
}

func TestFetchAllPopulates(t *testing.T) {
	gw := &fakeGateway[*types.Client]{list: listOf(&types.Client{ID: "c1", Name: "Acme"})}
	repo := NewRepository[*types.Client]("clients", gw)

	out := repo.FetchAll(context.Background(), nil)
	if !out.Fulfilled() {
		t.Fatalf("expected fulfilled, got %#v", out)
	}
	snap := repo.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "c1" || snap.Items[0].Name != "Acme" {
		t.Fatalf("unexpected items %#v", snap.Items)
	}
	if snap.TotalCount != 1 || snap.Status != StatusIdle || snap.LastError != "" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}

func TestDeleteRemovesItem(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		delete: func(_ context.Context, id string) client.Envelope[string] { return success(id) },
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"}, &types.Client{ID: "c2"})

	repo.Delete(context.Background(), "c1")
	if got := ids(repo.Items()); !reflect.DeepEqual(got, []string{"c2"}) {
		t.Fatalf("unexpected items %v", got)
	}
	if repo.TotalCount() != 1 {
		t.Fatalf("expected totalCount 1, got %d", repo.TotalCount())
	}
}

func TestCreateRejectionSetsError(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		create: func(context.Context, *types.Client) client.Envelope[*types.Client] {
			return failure[*types.Client]("duplicate email")
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"})
	before := repo.Items()

	out := repo.Create(context.Background(), &types.Client{Name: "Acme", Email: "a@acme.test"})
	if !out.Rejected() || out.Err != "duplicate email" {
		t.Fatalf("unexpected outcome %#v", out)
	}
	if repo.Status() != StatusError || repo.LastError() != "duplicate email" {
		t.Fatalf("unexpected status %s %q", repo.Status(), repo.LastError())
	}
	if !reflect.DeepEqual(ids(repo.Items()), ids(before)) {
		t.Fatalf("items changed on rejection")
	}
}

func TestFilteredByStatus(t *testing.T) {
	repo := seeded(t, &fakeGateway[*types.Client]{},
		&types.Client{ID: "c1", Status: types.ClientStatusActive},
		&types.Client{ID: "c2", Status: "Closed"},
	)
	repo.SetFilters(map[string]string{"status": "Active"})
	if got := repo.Filtered(); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("unexpected filtered view %v", ids(got))
	}
	repo.SetFilters(map[string]string{"status": "all"})
	if got := repo.Filtered(); len(got) != 2 {
		t.Fatalf("expected all items, got %v", ids(got))
	}
}

func TestMalformedListYieldsEmpty(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Client] {
			// A resource decodes a non-array payload to a nil or empty list.
			return success[[]*types.Client](nil)
		},
		search: func(context.Context, string) client.Envelope[[]*types.Client] {
			return success[[]*types.Client](nil)
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	repo.FetchAll(context.Background(), nil)
	items := repo.Items()
	if items == nil || len(items) != 0 || repo.TotalCount() != 0 {
		t.Fatalf("expected empty items, got %#v", items)
	}

	gw.list = listOf(&types.Client{ID: "c1"})
	repo.FetchAll(context.Background(), nil)
	repo.Search(context.Background(), "x")
	if len(repo.Items()) != 0 || repo.TotalCount() != 0 {
		t.Fatalf("expected search to empty items")
	}
}

func TestCountInvariantAcrossMutations(t *testing.T) {
	next := 0
	gw := &fakeGateway[*types.Client]{
		create: func(_ context.Context, draft *types.Client) client.Envelope[*types.Client] {
			next++
			out := *draft
			out.ID = fmt.Sprintf("c%d", next)
			return success(&out)
		},
		update: func(_ context.Context, id string, patch *types.Client) client.Envelope[*types.Client] {
			out := *patch
			out.ID = id
			return success(&out)
		},
		delete: func(_ context.Context, id string) client.Envelope[string] {
			if id == "missing" {
				return failure[string]("client not found")
			}
			return success(id)
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	ctx := context.Background()
	steps := []func(){
		func() { repo.Create(ctx, &types.Client{Name: "A"}) },
		func() { repo.Create(ctx, &types.Client{Name: "B"}) },
		func() { repo.Update(ctx, "c1", &types.Client{Name: "A2"}) },
		func() { repo.Delete(ctx, "missing") },
		func() { repo.Create(ctx, &types.Client{Name: "C"}) },
		func() { repo.Delete(ctx, "c2") },
		func() { repo.Update(ctx, "c9", &types.Client{Name: "ghost"}) },
	}
	for _, step := range steps {
		step()
		checkCount(t, repo)
	}
	if got := ids(repo.Items()); !reflect.DeepEqual(got, []string{"c1", "c3"}) {
		t.Fatalf("unexpected items %v", got)
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		delete: func(_ context.Context, id string) client.Envelope[string] { return success(id) },
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"}, &types.Client{ID: "c2"})

	repo.Select("c2")
	repo.Delete(context.Background(), "c1")
	if repo.SelectedID() != "c2" {
		t.Fatalf("unrelated delete cleared selection")
	}
	repo.Delete(context.Background(), "c2")
	if _, ok := repo.Selected(); ok || repo.SelectedID() != "" {
		t.Fatalf("expected selection cleared")
	}
	for _, item := range repo.Items() {
		if item.ID == "c2" {
			t.Fatalf("c2 still present")
		}
	}
}

func TestCreateAppendsExactlyOnce(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		create: func(context.Context, *types.Client) client.Envelope[*types.Client] {
			return success(&types.Client{ID: "c3", Name: "New"})
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"}, &types.Client{ID: "c2"})

	out := repo.Create(context.Background(), &types.Client{Name: "New"})
	if out.ID != "c3" || out.Item == nil {
		t.Fatalf("unexpected outcome %#v", out)
	}
	items := repo.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	count := 0
	for _, item := range items {
		if item.ID == "c3" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one c3, got %d", count)
	}

	repo.Create(context.Background(), &types.Client{Name: "New"})
	if len(repo.Items()) != 3 {
		t.Fatalf("server echo of an existing id must not duplicate")
	}
}

func TestCreateNullResultIsIgnored(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		create: func(context.Context, *types.Client) client.Envelope[*types.Client] {
			return success[*types.Client](nil)
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"})
	out := repo.Create(context.Background(), &types.Client{Name: "x"})
	if !out.Fulfilled() || len(repo.Items()) != 1 || repo.Status() != StatusIdle {
		t.Fatalf("unexpected state after null create %#v", out)
	}
}

func TestUpdateReplacesEntry(t *testing.T) {
	server := &types.Client{ID: "c1", Name: "Server merged", Email: "new@acme.test"}
	gw := &fakeGateway[*types.Client]{
		update: func(context.Context, string, *types.Client) client.Envelope[*types.Client] {
			return success(server)
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1", Name: "Old", Phone: "555"}, &types.Client{ID: "c2"})
	repo.Select("c1")

	repo.Update(context.Background(), "c1", &types.Client{Name: "Patch"})
	items := repo.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0] != server {
		t.Fatalf("expected entry to be the server result, got %#v", items[0])
	}
	selected, ok := repo.Selected()
	if !ok || selected != server {
		t.Fatalf("selection not refreshed: %#v", selected)
	}
}

func TestUpdateRefreshesDetailSelection(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		get: func(_ context.Context, id string) client.Envelope[*types.Client] {
			return success(&types.Client{ID: id, Name: "Detail"})
		},
		update: func(_ context.Context, id string, _ *types.Client) client.Envelope[*types.Client] {
			return success(&types.Client{ID: id, Name: "Updated"})
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"})

	repo.FetchByID(context.Background(), "c9")
	selected, ok := repo.Selected()
	if !ok || selected.Name != "Detail" {
		t.Fatalf("expected detail selection, got %#v", selected)
	}
	repo.Update(context.Background(), "c9", &types.Client{Name: "Updated"})
	if len(repo.Items()) != 1 {
		t.Fatalf("update of uncached id must not append")
	}
	selected, _ = repo.Selected()
	if selected.Name != "Updated" {
		t.Fatalf("detail not refreshed: %#v", selected)
	}
}

func TestFilterPurity(t *testing.T) {
	repo := seeded(t, &fakeGateway[*types.Client]{},
		&types.Client{ID: "c1", Name: "Acme Corp", Status: types.ClientStatusActive},
		&types.Client{ID: "c2", Name: "Beta LLC", Status: types.ClientStatusActive},
		&types.Client{ID: "c3", Name: "acme east", Status: types.ClientStatusInactive},
	)
	repo.SetSearchTerm("ACME")
	first := repo.Filtered()
	second := repo.Filtered()
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Fatalf("filtered view changed: %v vs %v", ids(first), ids(second))
	}
	if !reflect.DeepEqual(ids(first), []string{"c1", "c3"}) {
		t.Fatalf("unexpected filtered view %v", ids(first))
	}
	if len(repo.Items()) != 3 {
		t.Fatalf("filtering mutated items")
	}

	repo.SetFilters(map[string]string{"status": "Active"})
	repo.SetFilters(map[string]string{"nickname": "all"})
	if got := ids(repo.Filtered()); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Fatalf("expected merged filters, got %v", got)
	}
	repo.SetFilters(map[string]string{"nickname": "ace"})
	if got := repo.Filtered(); len(got) != 0 {
		t.Fatalf("unknown filter field should exclude, got %v", ids(got))
	}
	repo.ResetFilters()
	if len(repo.Filtered()) != 3 || repo.SearchTerm() != "" {
		t.Fatalf("reset did not clear filters")
	}
}

func TestFetchAllDedupesAndSkipsNulls(t *testing.T) {
	repo := seeded(t, &fakeGateway[*types.Client]{},
		&types.Client{ID: "c1", Name: "first"},
		nil,
		&types.Client{ID: ""},
		&types.Client{ID: "c1", Name: "second"},
		&types.Client{ID: "c2"},
	)
	items := repo.Items()
	if got := ids(items); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Fatalf("unexpected items %v", got)
	}
	if items[0].Name != "first" {
		t.Fatalf("expected first occurrence kept")
	}
	checkCount(t, repo)
}

func TestFetchAllClearsErrorOnPending(t *testing.T) {
	release := make(chan struct{})
	pending := make(chan struct{})
	gw := &fakeGateway[*types.Client]{
		create: func(context.Context, *types.Client) client.Envelope[*types.Client] {
			return failure[*types.Client]("boom")
		},
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Client] {
			close(pending)
			<-release
			return failure[[]*types.Client]("server down")
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	repo.Create(context.Background(), &types.Client{Name: "x"})
	if repo.LastError() != "boom" {
		t.Fatalf("expected create error")
	}

	done := make(chan Outcome[*types.Client])
	go func() { done <- repo.FetchAll(context.Background(), nil) }()
	<-pending
	if repo.LastError() != "" || repo.Status() != StatusLoading {
		t.Fatalf("expected pending fetchAll to clear error, got %q %s", repo.LastError(), repo.Status())
	}
	close(release)
	out := <-done
	if !out.Rejected() || repo.LastError() != "server down" || repo.Status() != StatusError {
		t.Fatalf("unexpected settlement %#v", out)
	}
	repo.ClearError()
	if repo.LastError() != "" || repo.Status() != StatusIdle {
		t.Fatalf("ClearError did not reset")
	}
}

func TestRejectionWithoutMessage(t *testing.T) {
	gw := &fakeGateway[*types.Client]{
		delete: func(context.Context, string) client.Envelope[string] {
			return client.Envelope[string]{}
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	out := repo.Delete(context.Background(), "c1")
	if out.Err != "delete failed" || repo.LastError() != "delete failed" {
		t.Fatalf("unexpected error %q", out.Err)
	}
}

func TestStaleFetchAllIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	started := make(chan struct{}, 2)
	calls := 0
	var mu sync.Mutex
	gw := &fakeGateway[*types.Client]{
		list: func(context.Context, map[string]string) client.Envelope[[]*types.Client] {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			started <- struct{}{}
			if n == 1 {
				<-slow
				return success([]*types.Client{{ID: "old"}})
			}
			return success([]*types.Client{{ID: "new"}})
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)

	first := make(chan Outcome[*types.Client])
	go func() { first <- repo.FetchAll(context.Background(), nil) }()
	<-started
	second := repo.FetchAll(context.Background(), nil)
	if !second.Fulfilled() {
		t.Fatalf("expected newest fetch to fulfill, got %#v", second)
	}
	if repo.Status() != StatusLoading {
		t.Fatalf("expected loading while older fetch is in flight, got %s", repo.Status())
	}
	close(slow)
	out := <-first
	if out.Phase != PhaseDiscarded || !out.Stale {
		t.Fatalf("expected stale discard, got %#v", out)
	}
	if got := ids(repo.Items()); !reflect.DeepEqual(got, []string{"new"}) {
		t.Fatalf("stale result overwrote items: %v", got)
	}
	if repo.Status() != StatusIdle {
		t.Fatalf("expected idle after last settlement, got %s", repo.Status())
	}
}

func TestFetchByIDDoesNotSupersedePendingDelete(t *testing.T) {
	release := make(chan struct{})
	inDelete := make(chan struct{})
	gw := &fakeGateway[*types.Client]{
		delete: func(_ context.Context, id string) client.Envelope[string] {
			close(inDelete)
			<-release
			return success(id)
		},
		get: func(_ context.Context, id string) client.Envelope[*types.Client] {
			return success(&types.Client{ID: id, Name: "Acme"})
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1"}, &types.Client{ID: "c2"})

	deleted := make(chan Outcome[*types.Client])
	go func() { deleted <- repo.Delete(context.Background(), "c1") }()
	<-inDelete
	if out := repo.FetchByID(context.Background(), "c1"); !out.Fulfilled() || out.ID != "c1" {
		t.Fatalf("expected read to fulfill, got %#v", out)
	}
	close(release)

	out := <-deleted
	if !out.Fulfilled() {
		t.Fatalf("confirmed delete was discarded: %#v", out)
	}
	if got := ids(repo.Items()); !reflect.DeepEqual(got, []string{"c2"}) {
		t.Fatalf("deleted record still cached: %v", got)
	}
	if _, ok := repo.Selected(); ok {
		t.Fatalf("selection should be cleared by the delete")
	}
	checkCount(t, repo)
}

func TestUpdateDiscardsOlderPendingRead(t *testing.T) {
	release := make(chan struct{})
	inGet := make(chan struct{})
	gw := &fakeGateway[*types.Client]{
		get: func(_ context.Context, id string) client.Envelope[*types.Client] {
			close(inGet)
			<-release
			return success(&types.Client{ID: id, Name: "Before"})
		},
		update: func(_ context.Context, id string, patch *types.Client) client.Envelope[*types.Client] {
			return success(&types.Client{ID: id, Name: patch.Name})
		},
	}
	repo := seeded(t, gw, &types.Client{ID: "c1", Name: "Before"})

	read := make(chan Outcome[*types.Client])
	go func() { read <- repo.FetchByID(context.Background(), "c1") }()
	<-inGet
	if out := repo.Update(context.Background(), "c1", &types.Client{Name: "After"}); !out.Fulfilled() {
		t.Fatalf("update: %#v", out)
	}
	close(release)

	if out := <-read; out.Phase != PhaseDiscarded || !out.Stale {
		t.Fatalf("read begun before the update should be stale, got %#v", out)
	}
	if items := repo.Items(); len(items) != 1 || items[0].Name != "After" {
		t.Fatalf("cache fell back to the pre-update record: %#v", items)
	}
}

func TestStaleRejectionDoesNotSetError(t *testing.T) {
	slow := make(chan struct{})
	started := make(chan struct{}, 1)
	calls := 0
	gw := &fakeGateway[*types.Client]{
		get: func(_ context.Context, id string) client.Envelope[*types.Client] {
			calls++
			if calls == 1 {
				started <- struct{}{}
				<-slow
				return failure[*types.Client]("timeout")
			}
			return success(&types.Client{ID: id})
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	first := make(chan Outcome[*types.Client])
	go func() { first <- repo.FetchByID(context.Background(), "c1") }()
	<-started
	repo.FetchByID(context.Background(), "c1")
	close(slow)
	out := <-first
	if !out.Stale || repo.LastError() != "" || repo.Status() != StatusIdle {
		t.Fatalf("stale rejection leaked: %#v %q %s", out, repo.LastError(), repo.Status())
	}
}

func TestCanceledSettlementIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	gw := &fakeGateway[*types.Client]{
		list: func(ctx context.Context, _ map[string]string) client.Envelope[[]*types.Client] {
			close(started)
			<-ctx.Done()
			return failure[[]*types.Client]("request canceled")
		},
	}
	repo := seeded(t, &fakeGateway[*types.Client]{}, &types.Client{ID: "c1"})
	repo.gateway = gw

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome[*types.Client])
	go func() { done <- repo.FetchAll(ctx, nil) }()
	<-started
	cancel()
	out := <-done
	if out.Phase != PhaseDiscarded || !out.Canceled {
		t.Fatalf("expected canceled discard, got %#v", out)
	}
	if repo.LastError() != "" || repo.Status() != StatusIdle {
		t.Fatalf("canceled settlement changed status: %q %s", repo.LastError(), repo.Status())
	}
	if len(repo.Items()) != 1 {
		t.Fatalf("canceled settlement changed items")
	}
}

func TestConcurrentCreates(t *testing.T) {
	var mu sync.Mutex
	next := 0
	gw := &fakeGateway[*types.Client]{
		create: func(context.Context, *types.Client) client.Envelope[*types.Client] {
			mu.Lock()
			next++
			id := fmt.Sprintf("c%d", next)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			return success(&types.Client{ID: id})
		},
	}
	repo := NewRepository[*types.Client]("clients", gw)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out := repo.Create(context.Background(), &types.Client{Name: "x"}); !out.Fulfilled() {
				t.Errorf("create not fulfilled: %#v", out)
			}
		}()
	}
	wg.Wait()
	snap := repo.Snapshot()
	if len(snap.Items) != 20 || snap.TotalCount != 20 || snap.Status != StatusIdle || snap.InFlight != 0 {
		t.Fatalf("unexpected snapshot after concurrent creates: %d items, %#v", len(snap.Items), snap.Status)
	}
}

func TestSelectionResolution(t *testing.T) {
	repo := seeded(t, &fakeGateway[*types.Client]{}, &types.Client{ID: "c1", Name: "cached"})
	repo.Select("c1")
	if got, ok := repo.Selected(); !ok || got.Name != "cached" {
		t.Fatalf("expected cached selection")
	}
	repo.Select("nope")
	if _, ok := repo.Selected(); ok {
		t.Fatalf("unknown id should not resolve")
	}
	if repo.SelectedID() != "nope" {
		t.Fatalf("select should not validate the id")
	}
	repo.SelectItem(&types.Client{ID: "c7", Name: "outside"})
	if got, ok := repo.Selected(); !ok || got.Name != "outside" {
		t.Fatalf("expected held detail selection")
	}
	repo.ClearSelection()
	if _, ok := repo.Selected(); ok {
		t.Fatalf("expected no selection")
	}
}

func TestSubscribeReceivesPhases(t *testing.T) {
	gw := &fakeGateway[*types.Client]{list: listOf(&types.Client{ID: "c1"})}
	repo := NewRepository[*types.Client]("clients", gw)
	var mu sync.Mutex
	var phases []Phase
	cancel := repo.Subscribe(func(ev Event) {
		if ev.Collection != "clients" {
			t.Errorf("unexpected collection %q", ev.Collection)
		}
		mu.Lock()
		phases = append(phases, ev.Phase)
		mu.Unlock()
	})
	repo.FetchAll(context.Background(), nil)
	cancel()
	repo.FetchAll(context.Background(), nil)
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(phases, []Phase{PhasePending, PhaseFulfilled}) {
		t.Fatalf("unexpected phases %v", phases)
	}
}
