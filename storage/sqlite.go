package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DefaultNamespace groups values written through a SQLite store that was
// opened without an explicit namespace.
const DefaultNamespace = "default"

type entry struct {
	bun.BaseModel `bun:"table:session_values,alias:sv"`

	Namespace string    `bun:"namespace,pk" json:"namespace"`
	Name      string    `bun:"name,pk" json:"name"`
	Value     string    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// SQLite persists session values in a single table. The CLI uses it so a
// login survives between invocations.
type SQLite struct {
	db        *bun.DB
	namespace string
	owned     bool
}

// OpenSQLite opens dsn through sqliteshim and makes sure the table exists.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "open sqlite session store")
	}
	// sqlite serializes writers, and ":memory:" is per connection
	sqldb.SetMaxOpenConns(1)

	s := NewSQLite(bun.NewDB(sqldb, sqlitedialect.New()), DefaultNamespace)
	s.owned = true

	if err := s.Migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite uses an existing bun DB. Call Migrate before the first write.
func NewSQLite(db *bun.DB, namespace string) *SQLite {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &SQLite{db: db, namespace: namespace}
}

// WithNamespace returns a store that shares the same DB but reads and writes
// another namespace.
func (s *SQLite) WithNamespace(namespace string) *SQLite {
	return NewSQLite(s.db, namespace)
}

func (s *SQLite) Namespace() string {
	return s.namespace
}

func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*entry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "create session_values table")
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var e entry
	err := s.db.NewSelect().
		Model(&e).
		Where("namespace = ?", s.namespace).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, errors.CategoryInternal, "read session value").
			WithMetadata(map[string]any{"key": key})
	}
	return e.Value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	e := &entry{
		Namespace: s.namespace,
		Name:      key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(e).
		On("CONFLICT (namespace, name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "write session value").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.db.NewDelete().
		Model((*entry)(nil)).
		Where("namespace = ?", s.namespace).
		Where("name IN (?)", bun.In(keys)).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "delete session values")
	}
	return nil
}

// Close releases the DB when the store opened it itself.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
