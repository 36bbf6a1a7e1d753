package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/port/configstore"
)

const kvTable = "kv"

// ConfigStore keeps the document as one row of a key/value table, the same
// shape an editor's global state file has.
type ConfigStore struct {
	db  *sql.DB
	key string
}

// NewConfigStore creates a SQLite-backed config store and ensures schema.
func NewConfigStore(db *sql.DB) (*ConfigStore, error) {
	return NewConfigStoreWithKey(db, domainrole.StorageKey)
}

func NewConfigStoreWithKey(db *sql.DB, key string) (*ConfigStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ensuring sqlite schema: %w", err)
	}
	return &ConfigStore{db: db, key: key}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		revision INTEGER NOT NULL
	);`, kvTable))
	return err
}

func (s *ConfigStore) Load(ctx context.Context) (domainrole.UserConfig, bool, error) {
	var (
		value    []byte
		revision int64
	)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT value, revision FROM %s WHERE key = ?`, kvTable), s.key)
	if err := row.Scan(&value, &revision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (s *ConfigStore) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	expected := doc.Revision
	doc.Revision = expected + 1
	value, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encoding config: %w", err)
	}

	var res sql.Result
	if expected == 0 {
		res, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (key, value, revision) VALUES (?, ?, 1) ON CONFLICT(key) DO NOTHING`, kvTable),
			s.key, value)
	} else {
		res, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET value = ?, revision = revision + 1 WHERE key = ? AND revision = ?`, kvTable),
			value, s.key, int64(expected))
	}
	if err != nil {
		return 0, fmt.Errorf("saving config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("saving config: %w", err)
	}
	if n == 0 {
		return 0, configstore.ErrConflict
	}
	return doc.Revision, nil
}
