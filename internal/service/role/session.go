package role

import (
	"context"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/domain/event"
)

// UpdateGroupChat applies fn to the persisted group-chat state in one
// revision-checked write. fn sees the rest of the document read-only and may
// reject the change by returning an error, in which case nothing is written.
func (s *Service) UpdateGroupChat(ctx context.Context, fn func(doc domainrole.UserConfig, gc *domainrole.GroupChat) error) (domainrole.GroupChat, error) {
	doc, err := s.mutate(ctx, "update group chat", func(doc *domainrole.UserConfig) (bool, error) {
		gc := doc.GroupChat
		gc.RoleIDs = append([]string{}, gc.RoleIDs...)
		if err := fn(doc.Clone(), &gc); err != nil {
			return false, err
		}
		doc.GroupChat = gc
		return true, nil
	})
	if err != nil {
		return domainrole.GroupChat{}, err
	}
	s.record(ctx, "group_chat", event.New(event.TypeGroupChatChanged, ""))
	return doc.GroupChat, nil
}

// InstallMarketRole stores a copy of a market preset under a fresh id and
// records the market id as installed, in one write. Reinstalling an already
// installed preset adds another copy; the installed set stays deduplicated.
func (s *Service) InstallMarketRole(ctx context.Context, mr domainrole.MarketRole) (domainrole.Role, error) {
	r := mr.Role.Clone()
	r.ID = GenerateID()
	r.IsCustom = false
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		r.UpdatedAt = r.CreatedAt
	}

	_, err := s.mutate(ctx, "install market role", func(doc *domainrole.UserConfig) (bool, error) {
		doc.Upsert(r)
		doc.MarkMarketInstalled(mr.ID)
		return true, nil
	})
	if err != nil {
		return domainrole.Role{}, err
	}
	s.record(ctx, "install", event.New(event.TypeRoleSaved, r.ID))
	return r, nil
}

// IsMarketInstalled reports whether the market preset was installed before.
func (s *Service) IsMarketInstalled(ctx context.Context, marketID string) (bool, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	return doc.IsMarketInstalled(marketID), nil
}
