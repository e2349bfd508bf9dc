package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lexdesk/internal/types"
)

const (
	RepositoryBackendFile   = "file"
	RepositoryBackendBbolt  = "bbolt"
	RepositoryBackendSQLite = "sqlite"
)

type Repository interface {
	Cases() EntityStore[*types.Case]
	Clients() EntityStore[*types.Client]
	Documents() EntityStore[*types.Document]
	Tasks() EntityStore[*types.Task]
	Backend() string
	Close() error
}

type collections struct {
	cases     EntityStore[*types.Case]
	clients   EntityStore[*types.Client]
	documents EntityStore[*types.Document]
	tasks     EntityStore[*types.Task]
}

func (c collections) Cases() EntityStore[*types.Case] {
	return c.cases
}

func (c collections) Clients() EntityStore[*types.Client] {
	return c.clients
}

func (c collections) Documents() EntityStore[*types.Document] {
	return c.documents
}

func (c collections) Tasks() EntityStore[*types.Task] {
	return c.tasks
}

func collectionNames() []string {
	return []string{CaseSchema.Name, ClientSchema.Name, DocumentSchema.Name, TaskSchema.Name}
}

type fileRepository struct {
	collections
}

func NewFileRepository(dir string) Repository {
	return &fileRepository{
		collections: collections{
			cases:     NewFileEntityStore(dir, CaseSchema),
			clients:   NewFileEntityStore(dir, ClientSchema),
			documents: NewFileEntityStore(dir, DocumentSchema),
			tasks:     NewFileEntityStore(dir, TaskSchema),
		},
	}
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

// OpenRepository opens the backend at path. For the file backend path is a
// directory; otherwise it is a database file.
func OpenRepository(backend, path string) (Repository, error) {
	path = strings.TrimSpace(path)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		return NewBboltRepository(path)
	case RepositoryBackendSQLite:
		return NewSQLiteRepository(path)
	case RepositoryBackendFile:
		if path == "" {
			return nil, errors.New("records dir is required for file repository")
		}
		return NewFileRepository(path), nil
	default:
		return nil, errors.New("unsupported repository backend: " + backend)
	}
}

// SeedReport counts the records copied per collection.
type SeedReport map[string]int

// SeedRepository copies every collection of src into dst, skipping collections
// that already hold records in dst.
func SeedRepository(ctx context.Context, dst, src Repository) (SeedReport, error) {
	if dst == nil || src == nil {
		return nil, errors.New("source and destination repositories are required")
	}
	report := SeedReport{}
	var err error
	if report[CaseSchema.Name], err = seedCollection(ctx, dst.Cases(), src.Cases()); err != nil {
		return report, fmt.Errorf("seed cases: %w", err)
	}
	if report[ClientSchema.Name], err = seedCollection(ctx, dst.Clients(), src.Clients()); err != nil {
		return report, fmt.Errorf("seed clients: %w", err)
	}
	if report[DocumentSchema.Name], err = seedCollection(ctx, dst.Documents(), src.Documents()); err != nil {
		return report, fmt.Errorf("seed documents: %w", err)
	}
	if report[TaskSchema.Name], err = seedCollection(ctx, dst.Tasks(), src.Tasks()); err != nil {
		return report, fmt.Errorf("seed tasks: %w", err)
	}
	return report, nil
}

func seedCollection[T types.Entity](ctx context.Context, dst, src EntityStore[T]) (int, error) {
	existing, err := dst.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	items, err := src.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if _, err := dst.Upsert(ctx, item); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}
