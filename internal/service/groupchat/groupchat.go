// Package groupchat manages the multi-role "one-person company" session: a
// roster of roles the chat surface is asked to play at once.
package groupchat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alanyang/role-master/internal/domain/compose"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
	portnotifier "github.com/alanyang/role-master/internal/port/notifier"
)

var (
	ErrNoRoles       = errors.New("groupchat: no roles selected")
	ErrNotActive     = errors.New("groupchat: no active session")
	ErrAlreadyMember = errors.New("groupchat: role already in session")
	ErrUnknownRole   = errors.New("groupchat: role not found")
)

// Repository is the slice of the role repository a session needs.
// [ISP] Only session reads and the atomic session update.
type Repository interface {
	GetConfig(ctx context.Context) (domainrole.UserConfig, error)
	UpdateGroupChat(ctx context.Context, fn func(doc domainrole.UserConfig, gc *domainrole.GroupChat) error) (domainrole.GroupChat, error)
}

// Session is the persisted roster with ids resolved to roles. Stale ids stay
// in RoleIDs but have no entry in Roles.
type Session struct {
	Active  bool              `json:"active"`
	RoleIDs []string          `json:"roleIds"`
	Roles   []domainrole.Role `json:"roles"`
}

type Service struct {
	repo     Repository
	notifier portnotifier.Notifier
}

func NewService(repo Repository, notifier portnotifier.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Start opens a session with the given roster and returns the group prompt.
// Unknown ids are skipped; if none resolve, ErrNoRoles.
func (s *Service) Start(ctx context.Context, ids []string) (string, error) {
	var roster []domainrole.Role
	_, err := s.repo.UpdateGroupChat(ctx, func(doc domainrole.UserConfig, gc *domainrole.GroupChat) error {
		roster = resolve(doc, dedupe(ids))
		if len(roster) == 0 {
			return ErrNoRoles
		}
		gc.Active = true
		gc.RoleIDs = make([]string, len(roster))
		for i, r := range roster {
			gc.RoleIDs[i] = r.ID
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoRoles) {
			s.notifier.Warn(ctx, "请至少选择一个角色")
			return "", ErrNoRoles
		}
		return "", fmt.Errorf("start group chat: %w", err)
	}
	s.notifier.Info(ctx, fmt.Sprintf("一人公司群聊已启动！参与角色：%s", joinNames(roster)))
	return compose.Compose(roster), nil
}

// Add appends one role to the running session and returns the addition prompt.
func (s *Service) Add(ctx context.Context, id string) (string, error) {
	var added domainrole.Role
	_, err := s.repo.UpdateGroupChat(ctx, func(doc domainrole.UserConfig, gc *domainrole.GroupChat) error {
		if !gc.Active {
			return ErrNotActive
		}
		if slices.Contains(gc.RoleIDs, id) {
			return ErrAlreadyMember
		}
		r, ok := doc.FindRole(id)
		if !ok {
			return ErrUnknownRole
		}
		added = r
		gc.RoleIDs = append(gc.RoleIDs, id)
		return nil
	})
	switch {
	case errors.Is(err, ErrNotActive):
		s.notifier.Warn(ctx, "请先启动群聊模式")
		return "", ErrNotActive
	case err != nil:
		return "", fmt.Errorf("add to group chat: %w", err)
	}
	s.notifier.Info(ctx, fmt.Sprintf("已添加 %s 到群聊", added.DisplayName))
	return compose.ComposeAddition(added), nil
}

// Available lists installed roles not yet in the session, in repository order.
func (s *Service) Available(ctx context.Context) ([]domainrole.Role, error) {
	doc, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available roles: %w", err)
	}
	out := make([]domainrole.Role, 0, len(doc.CustomRoles))
	for _, r := range doc.CustomRoles {
		if !slices.Contains(doc.GroupChat.RoleIDs, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Stop ends the session and forgets the roster.
func (s *Service) Stop(ctx context.Context) error {
	_, err := s.repo.UpdateGroupChat(ctx, func(_ domainrole.UserConfig, gc *domainrole.GroupChat) error {
		gc.Active = false
		gc.RoleIDs = []string{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("stop group chat: %w", err)
	}
	s.notifier.Info(ctx, "已退出群聊模式")
	return nil
}

func (s *Service) Session(ctx context.Context) (Session, error) {
	doc, err := s.repo.GetConfig(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("get group chat: %w", err)
	}
	return Session{
		Active:  doc.GroupChat.Active,
		RoleIDs: doc.GroupChat.RoleIDs,
		Roles:   resolve(doc, doc.GroupChat.RoleIDs),
	}, nil
}

// Prompt recomposes the group prompt for the running session.
func (s *Service) Prompt(ctx context.Context) (string, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return "", err
	}
	if !sess.Active {
		return "", ErrNotActive
	}
	return compose.Compose(sess.Roles), nil
}

func resolve(doc domainrole.UserConfig, ids []string) []domainrole.Role {
	out := make([]domainrole.Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := doc.FindRole(id); ok {
			out = append(out, r)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func joinNames(roles []domainrole.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.DisplayName
	}
	return strings.Join(names, "、")
}
