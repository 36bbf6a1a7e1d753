package role

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	ExportVersion = "1.0"
	ExportedBy    = "AI Role Master"
)

var ErrInvalidEnvelope = errors.New("role: invalid export envelope")

// Export is the versioned transfer envelope used for both export and import.
type Export struct {
	Version    string    `json:"version"`
	Roles      []Role    `json:"roles"`
	ExportedAt time.Time `json:"exportedAt"`
	ExportedBy string    `json:"exportedBy"`
}

func NewExport(roles []Role, now time.Time) Export {
	if roles == nil {
		roles = []Role{}
	}
	return Export{
		Version:    ExportVersion,
		Roles:      roles,
		ExportedAt: now.UTC(),
		ExportedBy: ExportedBy,
	}
}

type rawExport struct {
	Version    *string           `json:"version"`
	Roles      []json.RawMessage `json:"roles"`
	ExportedAt string            `json:"exportedAt"`
	ExportedBy string            `json:"exportedBy"`
}

// SkippedRole records an envelope entry that failed validation.
type SkippedRole struct {
	Index int
	Err   error
}

// DecodeExport parses an import file. The envelope must carry both version and
// roles; otherwise ErrInvalidEnvelope is returned and nothing is decoded.
// Individual roles that fail validation are reported in skipped and left out.
func DecodeExport(data []byte) (Export, []SkippedRole, error) {
	var raw rawExport
	if err := json.Unmarshal(data, &raw); err != nil {
		return Export{}, nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if raw.Version == nil || *raw.Version == "" || raw.Roles == nil {
		return Export{}, nil, fmt.Errorf("%w: version and roles are required", ErrInvalidEnvelope)
	}

	out := Export{
		Version:    *raw.Version,
		Roles:      make([]Role, 0, len(raw.Roles)),
		ExportedAt: parseTime(raw.ExportedAt),
		ExportedBy: raw.ExportedBy,
	}
	var skipped []SkippedRole
	for i, item := range raw.Roles {
		r, err := DecodeDocument(item)
		if err != nil {
			skipped = append(skipped, SkippedRole{Index: i, Err: err})
			continue
		}
		out.Roles = append(out.Roles, r)
	}
	return out, skipped, nil
}
