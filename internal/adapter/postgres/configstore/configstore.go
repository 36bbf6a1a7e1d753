package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	portconfig "github.com/alanyang/role-master/internal/port/configstore"
)

// Store implements port/configstore.Store on the role_master_kv table.
// [LSP] Any conforming Store (SQLite, Redis, in-memory) can substitute.
type Store struct {
	pool *pgxpool.Pool
	key  string
}

func New(pool *pgxpool.Pool) *Store {
	return NewWithKey(pool, domainrole.StorageKey)
}

// NewWithKey stores the document under a custom key; tests use it for isolation.
func NewWithKey(pool *pgxpool.Pool, key string) *Store {
	return &Store{pool: pool, key: key}
}

func (s *Store) Load(ctx context.Context) (domainrole.UserConfig, bool, error) {
	var (
		value    []byte
		revision int64
	)
	err := s.pool.QueryRow(ctx, `SELECT value, revision FROM role_master_kv WHERE key = $1`, s.key).Scan(&value, &revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainrole.UserConfig{}, false, nil
		}
		return domainrole.UserConfig{}, false, fmt.Errorf("querying config: %w", err)
	}

	var doc domainrole.UserConfig
	if err := json.Unmarshal(value, &doc); err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("decoding config: %w", err)
	}
	doc.Revision = uint64(revision)
	return doc, true, nil
}

// Save inserts the first revision or updates the row only while its revision
// still matches doc.Revision.
func (s *Store) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	expected := doc.Revision
	doc.Revision = expected + 1
	value, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encoding config: %w", err)
	}

	var query string
	var args []any
	if expected == 0 {
		query = `
			INSERT INTO role_master_kv (key, value, revision)
			VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING`
		args = []any{s.key, value}
	} else {
		query = `
			UPDATE role_master_kv
			SET value = $2, revision = revision + 1, updated_at = now()
			WHERE key = $1 AND revision = $3`
		args = []any{s.key, value, int64(expected)}
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("saving config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, portconfig.ErrConflict
	}
	return doc.Revision, nil
}
