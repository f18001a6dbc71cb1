package vault

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/pixil98/go-itemtree/internal/storage"
)

// Store persists snapshot trees by record id.
type Store interface {
	Save(ctx context.Context, id string, t *snapshot.Tree) error
	Load(ctx context.Context, id string) (*snapshot.Tree, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// FileStore keeps one JSON asset file per record. Returned trees are shared
// with the cache and must not be modified.
type FileStore struct {
	files storage.Storer[*snapshot.Tree]
}

func NewFileStore(path string) (*FileStore, error) {
	files, err := storage.NewFileStore[*snapshot.Tree](path)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	return &FileStore{files: files}, nil
}

func (s *FileStore) Save(ctx context.Context, id string, t *snapshot.Tree) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.files.Save(id, t)
}

func (s *FileStore) Load(ctx context.Context, id string) (*snapshot.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := s.files.Get(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(s.files.GetAll())), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.files.Delete(id)
}
