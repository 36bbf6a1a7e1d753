package configstore

import (
	"context"
	"errors"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

// ErrConflict is returned by Save when the stored revision no longer matches
// the revision the caller read.
var ErrConflict = errors.New("configstore: revision conflict")

// Store persists the single UserConfig document under domainrole.StorageKey.
// [DIP] service/role depends on this interface, not on any concrete storage.
// [LSP] Memory, SQLite, Postgres, Redis and Mongo implementations are all valid substitutes.
type Store interface {
	// Load returns the stored document and found=false when nothing has been saved yet.
	Load(ctx context.Context) (doc domainrole.UserConfig, found bool, err error)

	// Save is a compare-and-swap on doc.Revision: it succeeds only when the stored
	// revision equals doc.Revision (0 for a missing document) and returns the
	// revision it stored. Otherwise it returns ErrConflict.
	Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error)
}
