package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/domain/event"
	"github.com/alanyang/role-master/internal/metrics"
	"github.com/alanyang/role-master/internal/port/configstore"
	portbus "github.com/alanyang/role-master/internal/port/eventbus"
	portmirror "github.com/alanyang/role-master/internal/port/mirror"
	portnotifier "github.com/alanyang/role-master/internal/port/notifier"
)

// DefaultMaxRetries bounds how often a mutation re-reads after a revision conflict.
const DefaultMaxRetries = 3

// IDPrefix is prepended to every generated role id.
const IDPrefix = "role_"

type Service struct {
	store      configstore.Store
	bus        portbus.EventBus
	mirror     portmirror.RuleMirror
	notifier   portnotifier.Notifier
	now        func() time.Time
	maxRetries int
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func NewService(store configstore.Store, bus portbus.EventBus, mirror portmirror.RuleMirror, notifier portnotifier.Notifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		bus:        bus,
		mirror:     mirror,
		notifier:   notifier,
		now:        time.Now,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID returns "role_" followed by a UUIDv7: a time-ordered prefix plus a
// random suffix. Uniqueness is probabilistic; no collision check is made.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return IDPrefix + id.String()
}

// ── Document access ───────────────────────────────────────────────────────────

// GetConfig returns the stored document, or fresh defaults on first access.
func (s *Service) GetConfig(ctx context.Context) (domainrole.UserConfig, error) {
	doc, found, err := s.store.Load(ctx)
	if err != nil {
		return domainrole.UserConfig{}, fmt.Errorf("get config: %w", err)
	}
	if !found {
		return domainrole.DefaultConfig(), nil
	}
	doc.Normalize()
	return doc, nil
}

// SaveConfig overwrites the whole document. The caller's revision is ignored:
// the write is re-based on whatever is stored, so the last writer wins.
func (s *Service) SaveConfig(ctx context.Context, doc domainrole.UserConfig) error {
	doc.Normalize()
	_, err := s.mutate(ctx, "save config", func(cur *domainrole.UserConfig) (bool, error) {
		rev := cur.Revision
		*cur = doc.Clone()
		cur.Revision = rev
		return true, nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "replace", event.New(event.TypeConfigReplaced, ""))
	return nil
}

// mutate reads the document, applies fn and saves the result, re-reading and
// retrying on revision conflicts. fn returning false skips the write.
func (s *Service) mutate(ctx context.Context, op string, fn func(*domainrole.UserConfig) (bool, error)) (domainrole.UserConfig, error) {
	for attempt := 0; ; attempt++ {
		doc, err := s.GetConfig(ctx)
		if err != nil {
			return domainrole.UserConfig{}, fmt.Errorf("%s: %w", op, err)
		}
		changed, err := fn(&doc)
		if err != nil {
			return domainrole.UserConfig{}, fmt.Errorf("%s: %w", op, err)
		}
		if !changed {
			return doc, nil
		}
		rev, err := s.store.Save(ctx, doc)
		if err == nil {
			doc.Revision = rev
			return doc, nil
		}
		if !errors.Is(err, configstore.ErrConflict) || attempt+1 >= s.maxRetries {
			return domainrole.UserConfig{}, fmt.Errorf("%s: %w", op, err)
		}
		metrics.RevisionConflictsTotal.Inc()
		slog.WarnContext(ctx, "config revision conflict, retrying", "op", op, "attempt", attempt+1)
	}
}

// record counts a committed mutation and publishes its event. Publish failures
// are logged; the write already happened.
func (s *Service) record(ctx context.Context, op string, e event.Event) {
	metrics.RoleMutationsTotal.WithLabelValues(op).Inc()
	if err := s.bus.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "type", e.Type, "role_id", e.RoleID, "error", err)
	}
}

// ── Roles ─────────────────────────────────────────────────────────────────────

// ListRoles returns every installed role in insertion order.
func (s *Service) ListRoles(ctx context.Context) ([]domainrole.Role, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return doc.CustomRoles, nil
}

// GetRole looks a role up by id. A miss is ok=false, not an error.
func (s *Service) GetRole(ctx context.Context, id string) (domainrole.Role, bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return domainrole.Role{}, false, fmt.Errorf("get role: %w", err)
	}
	r, ok := doc.FindRole(id)
	return r, ok, nil
}

// SaveRole upserts by id: an existing role is replaced in place, otherwise appended.
func (s *Service) SaveRole(ctx context.Context, r domainrole.Role) error {
	if !r.Valid() {
		return fmt.Errorf("save role: %w: id and systemPrompt are required", domainrole.ErrInvalidRole)
	}
	_, err := s.mutate(ctx, "save role", func(doc *domainrole.UserConfig) (bool, error) {
		doc.Upsert(r.Clone())
		return true, nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, "save", event.New(event.TypeRoleSaved, r.ID))
	return nil
}

// CreateRole builds a custom role from the answers of an interactive flow.
// An incomplete draft returns ErrAbandoned and writes nothing.
func (s *Service) CreateRole(ctx context.Context, d domainrole.Draft) (domainrole.Role, error) {
	if !d.Complete() {
		return domainrole.Role{}, domainrole.ErrAbandoned
	}
	r := domainrole.New(GenerateID(), d, s.now().UTC())
	_, err := s.mutate(ctx, "create role", func(doc *domainrole.UserConfig) (bool, error) {
		doc.Upsert(r.Clone())
		return true, nil
	})
	if err != nil {
		return domainrole.Role{}, err
	}
	s.record(ctx, "create", event.New(event.TypeRoleSaved, r.ID))
	s.notifier.Info(ctx, fmt.Sprintf("角色 \"%s\" 创建成功！", r.DisplayName))
	return r, nil
}

// UpdateRole is the edit path: it keeps the stored id and createdAt and bumps
// updatedAt. Editing an unknown id upserts it as a new role.
func (s *Service) UpdateRole(ctx context.Context, r domainrole.Role) (domainrole.Role, error) {
	if !r.Valid() {
		return domainrole.Role{}, fmt.Errorf("update role: %w: id and systemPrompt are required", domainrole.ErrInvalidRole)
	}
	var updated domainrole.Role
	_, err := s.mutate(ctx, "update role", func(doc *domainrole.UserConfig) (bool, error) {
		updated = r.Clone()
		if prev, ok := doc.FindRole(r.ID); ok {
			updated.CreatedAt = prev.CreatedAt
		}
		updated.Touch(s.now().UTC())
		doc.Upsert(updated)
		return true, nil
	})
	if err != nil {
		return domainrole.Role{}, err
	}
	s.record(ctx, "update", event.New(event.TypeRoleSaved, r.ID))
	// The rule file shows the old text until it is re-rendered.
	if cur, _ := s.currentID(ctx); cur == r.ID {
		s.syncMirror(ctx, updated, true)
	}
	return updated, nil
}

// DeleteRole removes the role. Deleting the active role clears the selection
// and removes the rule file. Deleting an unknown id is a no-op.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	var removed, wasCurrent bool
	_, err := s.mutate(ctx, "delete role", func(doc *domainrole.UserConfig) (bool, error) {
		wasCurrent = doc.CurrentRoleID != "" && doc.CurrentRoleID == id
		removed = doc.RemoveRole(id)
		return removed, nil
	})
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	s.record(ctx, "delete", event.New(event.TypeRoleDeleted, id))
	if wasCurrent {
		s.syncMirror(ctx, domainrole.Role{}, false)
	}
	return nil
}

// ── Selection ─────────────────────────────────────────────────────────────────

// SetCurrentRole stores the selection (empty id clears it) and then brings the
// rule file in line. Unknown ids are accepted; the sync then clears the file.
// Sync failures are reported through the notifier and the result, never
// returned as an error: the selection change stands.
func (s *Service) SetCurrentRole(ctx context.Context, id string) (SyncResult, error) {
	doc, err := s.mutate(ctx, "set current role", func(doc *domainrole.UserConfig) (bool, error) {
		doc.CurrentRoleID = id
		return true, nil
	})
	if err != nil {
		return SyncFailed, err
	}
	s.record(ctx, "select", event.New(event.TypeSelectionChanged, id))

	r, ok := doc.FindRole(id)
	return s.syncMirror(ctx, r, ok), nil
}

func (s *Service) GetCurrentRole(ctx context.Context) (domainrole.Role, bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return domainrole.Role{}, false, fmt.Errorf("get current role: %w", err)
	}
	if doc.CurrentRoleID == "" {
		return domainrole.Role{}, false, nil
	}
	r, ok := doc.FindRole(doc.CurrentRoleID)
	return r, ok, nil
}

// CurrentRolePrompt returns the system prompt of the active role.
func (s *Service) CurrentRolePrompt(ctx context.Context) (string, bool, error) {
	r, ok, err := s.GetCurrentRole(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	return r.SystemPrompt, true, nil
}

// SyncCurrent re-renders the rule file from the stored selection. Used at
// startup when autoApplyRole is set.
func (s *Service) SyncCurrent(ctx context.Context) (SyncResult, error) {
	r, ok, err := s.GetCurrentRole(ctx)
	if err != nil {
		return SyncFailed, err
	}
	return s.syncMirror(ctx, r, ok), nil
}

func (s *Service) currentID(ctx context.Context) (string, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	return doc.CurrentRoleID, nil
}

// ── Favorites ─────────────────────────────────────────────────────────────────

func (s *Service) AddToFavorites(ctx context.Context, id string) error {
	return s.updateFavorites(ctx, "add favorite", id, func(doc *domainrole.UserConfig) bool {
		return doc.AddFavorite(id)
	})
}

func (s *Service) RemoveFromFavorites(ctx context.Context, id string) error {
	return s.updateFavorites(ctx, "remove favorite", id, func(doc *domainrole.UserConfig) bool {
		return doc.RemoveFavorite(id)
	})
}

// ToggleFavorite flips membership and returns the new state.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var now bool
	err := s.updateFavorites(ctx, "toggle favorite", id, func(doc *domainrole.UserConfig) bool {
		if doc.IsFavorite(id) {
			now = false
			return doc.RemoveFavorite(id)
		}
		now = true
		return doc.AddFavorite(id)
	})
	return now, err
}

func (s *Service) IsFavorite(ctx context.Context, id string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("is favorite: %w", err)
	}
	return doc.IsFavorite(id), nil
}

// ListFavorites resolves favorite ids to roles, in favorite order. Stale ids are skipped.
func (s *Service) ListFavorites(ctx context.Context) ([]domainrole.Role, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	out := make([]domainrole.Role, 0, len(doc.FavoriteRoles))
	for _, id := range doc.FavoriteRoles {
		if r, ok := doc.FindRole(id); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) updateFavorites(ctx context.Context, op, id string, fn func(*domainrole.UserConfig) bool) error {
	changed := false
	_, err := s.mutate(ctx, op, func(doc *domainrole.UserConfig) (bool, error) {
		changed = fn(doc)
		return changed, nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.record(ctx, "favorite", event.New(event.TypeFavoritesChanged, id))
	}
	return nil
}
