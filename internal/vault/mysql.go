package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/pixil98/go-itemtree/internal/snapshot"
)

const DefaultMySQLTable = "item_snapshots"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// MySQLStore keeps each record as a JSON document in one row.
type MySQLStore struct {
	db    *sql.DB
	table string
}

// OpenMySQL parses dsn, connects, and makes sure the snapshot table exists.
func OpenMySQL(ctx context.Context, dsn, table string) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connector: %w", err)
	}
	db := sql.OpenDB(connector)

	s, err := NewMySQLStore(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLStore wraps an open database handle and creates the table when it
// is missing. An empty table name selects DefaultMySQLTable.
func NewMySQLStore(ctx context.Context, db *sql.DB, table string) (*MySQLStore, error) {
	if table == "" {
		table = DefaultMySQLTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	body JSON NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`, table))
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	return &MySQLStore{db: db, table: table}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) Save(ctx context.Context, id string, t *snapshot.Tree) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", id, err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, body) VALUES (?, ?) ON DUPLICATE KEY UPDATE body = VALUES(body)", s.table),
		id, data)
	if err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	return nil
}

func (s *MySQLStore) Load(ctx context.Context, id string) (*snapshot.Tree, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT body FROM %s WHERE id = ?", s.table), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *MySQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *MySQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}
