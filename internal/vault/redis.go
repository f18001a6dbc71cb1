package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "itemtree"

// RedisStore keeps each record as a JSON string under "<prefix>:snapshot:<id>"
// and tracks ids in the set "<prefix>:snapshots".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

type RedisStoreOpt func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOpt {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOpt) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:snapshot:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":snapshots"
}

func (s *RedisStore) Save(ctx context.Context, id string, t *snapshot.Tree) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", id, err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(id), data, 0)
		pipe.SAdd(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*snapshot.Tree, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, err)
	}

	var t snapshot.Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", id, err)
	}
	return &t, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}
