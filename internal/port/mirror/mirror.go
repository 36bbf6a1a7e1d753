package mirror

import (
	"context"
	"errors"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

// ErrNoWorkspace means there is no writable location for the rule file.
// It is a reported condition, not a failure of the selection change.
var ErrNoWorkspace = errors.New("mirror: no workspace available")

// RuleMirror keeps the external rule file in step with the current role.
type RuleMirror interface {
	// Write renders r and fully overwrites the rule file. Returns the file path.
	Write(ctx context.Context, r domainrole.Role) (string, error)

	// Clear removes the rule file. removed=false when there was nothing to delete.
	Clear(ctx context.Context) (removed bool, err error)
}
