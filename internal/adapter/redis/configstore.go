package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/port/configstore"
)

const (
	fieldValue    = "value"
	fieldRevision = "revision"
)

// ConfigStore keeps the document in a hash with value and revision fields.
// Save runs inside WATCH/MULTI so a concurrent writer aborts the transaction.
type ConfigStore struct {
	client *redis.Client
	key    string
}

func NewConfigStore(client *redis.Client) *ConfigStore {
	return NewConfigStoreWithKey(client, domainrole.StorageKey)
}

func NewConfigStoreWithKey(client *redis.Client, key string) *ConfigStore {
	return &ConfigStore{client: client, key: key}
}

func (s *ConfigStore) Load(ctx context.Context) (domainrole.UserConfig, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return domainrole.UserConfig{}, false, nil
	}

	var doc domainrole.UserConfig
	if err := json.Unmarshal([]byte(fields[fieldValue]), &doc); err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("decoding config: %w", err)
	}
	rev, err := strconv.ParseUint(fields[fieldRevision], 10, 64)
	if err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("parsing revision: %w", err)
	}
	doc.Revision = rev
	return doc, true, nil
}

func (s *ConfigStore) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	expected := doc.Revision
	doc.Revision = expected + 1
	value, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encoding config: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, s.key, fieldRevision).Uint64()
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return fmt.Errorf("redis hget: %w", err)
		}
		if current != expected {
			return configstore.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, fieldValue, value, fieldRevision, doc.Revision)
			return nil
		})
		return err
	}, s.key)

	switch {
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, configstore.ErrConflict):
		return 0, configstore.ErrConflict
	case err != nil:
		return 0, fmt.Errorf("saving config: %w", err)
	}
	return doc.Revision, nil
}
