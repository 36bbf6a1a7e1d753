package market

import (
	"context"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

// Source returns the installable preset roles of the market catalog.
// Entries are already validated; invalid upstream entries never reach callers.
type Source interface {
	Fetch(ctx context.Context) ([]domainrole.MarketRole, error)
}
