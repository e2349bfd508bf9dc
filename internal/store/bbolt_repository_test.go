package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lexdesk/internal/types"
)

func TestBboltRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lexdesk.db")
	repo, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	client := &types.Client{ID: "client_1", Name: "Dana Ruiz", Email: "dana@example.com", CreatedAt: time.Now().UTC()}
	if _, err := repo.Clients().Upsert(ctx, client); err != nil {
		t.Fatalf("upsert client: %v", err)
	}
	kase := &types.Case{ID: "case_1", Title: "Estate of Ruiz", ClientID: "client_1", Status: types.CaseStatusPending}
	if _, err := repo.Cases().Upsert(ctx, kase); err != nil {
		t.Fatalf("upsert case: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Cases().Get(ctx, "case_1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got.ClientID != "client_1" || got.Status != types.CaseStatusPending {
		t.Fatalf("unexpected case %#v", got)
	}
	clients, err := reopened.Clients().List(ctx)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 1 || clients[0].Email != "dana@example.com" {
		t.Fatalf("unexpected clients %#v", clients)
	}
}

func TestBboltDeleteMissingRecord(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "lexdesk.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	if err := repo.Tasks().Delete(context.Background(), "task_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedBboltFromFiles(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	src := NewFileRepository(filepath.Join(base, "records"))
	defer src.Close()
	if _, err := src.Clients().Upsert(ctx, &types.Client{ID: "client_1", Name: "Dana", Email: "dana@example.com"}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if _, err := src.Documents().Upsert(ctx, &types.Document{ID: "doc_1", CaseID: "case_1", Title: "Complaint"}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	dst, err := OpenRepository(RepositoryBackendBbolt, filepath.Join(base, "lexdesk.db"))
	if err != nil {
		t.Fatalf("open bbolt repo: %v", err)
	}
	defer dst.Close()
	report, err := SeedRepository(ctx, dst, src)
	if err != nil {
		t.Fatalf("seed repository: %v", err)
	}
	if report["clients"] != 1 || report["documents"] != 1 || report["cases"] != 0 {
		t.Fatalf("unexpected report %#v", report)
	}
	doc, ok, err := dst.Documents().Get(ctx, "doc_1")
	if err != nil || !ok || doc.CaseID != "case_1" {
		t.Fatalf("expected seeded document, got %#v ok=%v err=%v", doc, ok, err)
	}
}
