package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"lexdesk/internal/types"
)

type bboltRepository struct {
	collections
	db *bolt.DB
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db: db,
		collections: collections{
			cases:     &BboltEntityStore[*types.Case]{db: db, schema: CaseSchema},
			clients:   &BboltEntityStore[*types.Client]{db: db, schema: ClientSchema},
			documents: &BboltEntityStore[*types.Document]{db: db, schema: DocumentSchema},
			tasks:     &BboltEntityStore[*types.Task]{db: db, schema: TaskSchema},
		},
	}, nil
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range collectionNames() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// BboltEntityStore keeps one JSON value per record in a bucket named after
// the collection.
type BboltEntityStore[T types.Entity] struct {
	db     *bolt.DB
	schema Schema[T]
}

func (s *BboltEntityStore[T]) bucket() []byte {
	return []byte(s.schema.Name)
}

func (s *BboltEntityStore[T]) List(ctx context.Context) ([]T, error) {
	out := make([]T, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket())
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			item := s.schema.New()
			if err := json.Unmarshal(v, item); err != nil {
				return err
			}
			out = append(out, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.schema.sort(out)
	return out, nil
}

func (s *BboltEntityStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var (
		out T
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket())
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return nil
		}
		item := s.schema.New()
		if err := json.Unmarshal(raw, item); err != nil {
			return err
		}
		out = item
		ok = true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, ok, nil
}

func (s *BboltEntityStore[T]) Upsert(ctx context.Context, item T) (T, error) {
	var zero T
	id, err := s.schema.key(item)
	if err != nil {
		return zero, err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return zero, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket())
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return zero, err
	}
	return s.schema.Clone(item), nil
}

func (s *BboltEntityStore[T]) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket())
		if b == nil || b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}
