package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/port/configstore"
)

const collectionSettings = "settings"

type settingDoc struct {
	Key      string `bson:"_id"`
	Value    string `bson:"value"`
	Revision int64  `bson:"revision"`
}

// ConfigStore keeps the JSON document in one record of the settings collection.
type ConfigStore struct {
	col *mongo.Collection
	key string
}

func NewConfigStore(db *mongo.Database) *ConfigStore {
	return NewConfigStoreWithKey(db, domainrole.StorageKey)
}

func NewConfigStoreWithKey(db *mongo.Database, key string) *ConfigStore {
	return &ConfigStore{col: db.Collection(collectionSettings), key: key}
}

func (s *ConfigStore) Load(ctx context.Context) (domainrole.UserConfig, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec settingDoc
	err := s.col.FindOne(ctx, bson.M{"_id": s.key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainrole.UserConfig{}, false, nil
		}
		return domainrole.UserConfig{}, false, fmt.Errorf("mongo find: %w", err)
	}

	var doc domainrole.UserConfig
	if err := json.Unmarshal([]byte(rec.Value), &doc); err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("decoding config: %w", err)
	}
	doc.Revision = uint64(rec.Revision)
	return doc, true, nil
}

// Save replaces the record filtered on the expected revision. The first write
// upserts; a racing insert surfaces as a duplicate key and maps to ErrConflict.
func (s *ConfigStore) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	expected := doc.Revision
	doc.Revision = expected + 1
	value, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encoding config: %w", err)
	}

	rec := settingDoc{Key: s.key, Value: string(value), Revision: int64(doc.Revision)}
	filter := bson.M{"_id": s.key, "revision": int64(expected)}
	res, err := s.col.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(expected == 0))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, configstore.ErrConflict
		}
		return 0, fmt.Errorf("mongo replace: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return 0, configstore.ErrConflict
	}
	return doc.Revision, nil
}
