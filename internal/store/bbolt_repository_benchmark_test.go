package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"lexdesk/internal/types"
)

func seedBenchmarkCases(b *testing.B, repo Repository, n int) {
	b.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		_, err := repo.Cases().Upsert(ctx, &types.Case{
			ID:        fmt.Sprintf("case_%06d", i),
			Title:     fmt.Sprintf("Matter %d", i),
			ClientID:  fmt.Sprintf("client_%03d", i%100),
			Status:    types.CaseStatusActive,
			CreatedAt: now.Add(-time.Duration(i) * time.Second),
		})
		if err != nil {
			b.Fatalf("seed case %d: %v", i, err)
		}
	}
}

func benchmarkCaseList(b *testing.B, repo Repository, n int) {
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cases, err := repo.Cases().List(ctx)
		if err != nil {
			b.Fatalf("List cases: %v", err)
		}
		if len(cases) != n {
			b.Fatalf("unexpected cases length: %d", len(cases))
		}
	}
}

func BenchmarkBboltCaseListLarge(b *testing.B) {
	repo, err := NewBboltRepository(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	seedBenchmarkCases(b, repo, 5000)
	benchmarkCaseList(b, repo, 5000)
}

func BenchmarkSQLiteCaseListLarge(b *testing.B) {
	repo, err := NewSQLiteRepository(filepath.Join(b.TempDir(), "bench.sqlite"))
	if err != nil {
		b.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()
	seedBenchmarkCases(b, repo, 5000)
	benchmarkCaseList(b, repo, 5000)
}
