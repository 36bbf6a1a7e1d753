package event

import (
	"time"
)

type Type string

const (
	TypeRoleSaved        Type = "role_saved"
	TypeRoleDeleted      Type = "role_deleted"
	TypeRolesImported    Type = "roles_imported"
	TypeSelectionChanged Type = "selection_changed"
	TypeFavoritesChanged Type = "favorites_changed"
	TypeGroupChatChanged Type = "group_chat_changed"
	TypeConfigReplaced   Type = "config_replaced"
)

// Types lists every event type, in the order subscribers are usually registered.
func Types() []Type {
	return []Type{
		TypeRoleSaved,
		TypeRoleDeleted,
		TypeRolesImported,
		TypeSelectionChanged,
		TypeFavoritesChanged,
		TypeGroupChatChanged,
		TypeConfigReplaced,
	}
}

// AffectsCatalog reports whether the catalog tree must be rebuilt after this event.
func (t Type) AffectsCatalog() bool {
	switch t {
	case TypeRoleSaved, TypeRoleDeleted, TypeRolesImported, TypeSelectionChanged, TypeConfigReplaced:
		return true
	}
	return false
}

// Event carries identifiers only, not full state.
// Subscribers re-read the repository for fresh state.
type Event struct {
	Type      Type      `json:"type"`
	RoleID    string    `json:"role_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, roleID string) Event {
	return Event{
		Type:      eventType,
		RoleID:    roleID,
		Timestamp: time.Now().UTC(),
	}
}
