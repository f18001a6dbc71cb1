package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-itemtree/internal/catalog"
	"github.com/pixil98/go-itemtree/internal/storage"
	"github.com/pixil98/go-itemtree/internal/vault"
	"github.com/redis/go-redis/v9"
)

const mysqlConnectTimeout = 10 * time.Second

type StorageConfig struct {
	Templates AssetConfig[*catalog.Template] `json:"templates"`
	Snapshots SnapshotConfig                 `json:"snapshots"`
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()
	el.Add(c.Templates.Validate("templates"))
	el.Add(c.Snapshots.Validate())
	return el.Err()
}

func (c *StorageConfig) BuildCatalog() (*catalog.Catalog, error) {
	templates, err := c.Templates.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating template store: %w", err)
	}
	return catalog.New(templates)
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}

type SnapshotBackend int

const (
	SnapshotBackendFile SnapshotBackend = iota
	SnapshotBackendRedis
	SnapshotBackendMySQL
)

func (b *SnapshotBackend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file", "":
		*b = SnapshotBackendFile
	case "redis":
		*b = SnapshotBackendRedis
	case "mysql":
		*b = SnapshotBackendMySQL
	default:
		return fmt.Errorf("unknown snapshot backend: %s", text)
	}
	return nil
}

type SnapshotConfig struct {
	Backend SnapshotBackend `json:"backend"`
	Path    string          `json:"path,omitempty"`
	Redis   RedisConfig     `json:"redis"`
	MySQL   MySQLConfig     `json:"mysql"`
}

func (c *SnapshotConfig) Validate() error {
	switch c.Backend {
	case SnapshotBackendFile:
		if c.Path == "" {
			return fmt.Errorf("snapshots: path is required")
		}
		if _, err := os.Stat(c.Path); err != nil {
			return fmt.Errorf("snapshots: invalid path %q: %w", c.Path, err)
		}
	case SnapshotBackendRedis:
		return c.Redis.Validate()
	case SnapshotBackendMySQL:
		return c.MySQL.Validate()
	}
	return nil
}

func (c *SnapshotConfig) BuildStore() (vault.Store, error) {
	switch c.Backend {
	case SnapshotBackendRedis:
		return c.Redis.buildStore()
	case SnapshotBackendMySQL:
		return c.MySQL.buildStore()
	default:
		return vault.NewFileStore(c.Path)
	}
}

type RedisConfig struct {
	URL    string `json:"url"`
	Prefix string `json:"prefix,omitempty"`
}

func (c *RedisConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("snapshots.redis: url is required")
	}
	if _, err := redis.ParseURL(c.URL); err != nil {
		return fmt.Errorf("snapshots.redis: parsing url: %w", err)
	}
	return nil
}

func (c *RedisConfig) buildStore() (*vault.RedisStore, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	var storeOpts []vault.RedisStoreOpt
	if c.Prefix != "" {
		storeOpts = append(storeOpts, vault.WithRedisPrefix(c.Prefix))
	}
	return vault.NewRedisStore(redis.NewClient(opts), storeOpts...), nil
}

type MySQLConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table,omitempty"`
}

func (c *MySQLConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("snapshots.mysql: dsn is required")
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return fmt.Errorf("snapshots.mysql: parsing dsn: %w", err)
	}
	return nil
}

func (c *MySQLConfig) buildStore() (*vault.MySQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mysqlConnectTimeout)
	defer cancel()
	return vault.OpenMySQL(ctx, c.DSN, c.Table)
}
