// Package market installs preset roles from the market catalog.
package market

import (
	"context"
	"errors"
	"fmt"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	portmarket "github.com/alanyang/role-master/internal/port/market"
	portnotifier "github.com/alanyang/role-master/internal/port/notifier"
)

var ErrNotFound = errors.New("market: role not in catalog")

// Repository is what installing needs from the role repository.
type Repository interface {
	InstallMarketRole(ctx context.Context, mr domainrole.MarketRole) (domainrole.Role, error)
	IsMarketInstalled(ctx context.Context, marketID string) (bool, error)
	GetConfig(ctx context.Context) (domainrole.UserConfig, error)
}

// Entry is a catalog role annotated with whether it was installed before.
type Entry struct {
	domainrole.MarketRole
	Installed bool `json:"installed"`
}

type Service struct {
	repo     Repository
	source   portmarket.Source
	notifier portnotifier.Notifier
}

func NewService(repo Repository, source portmarket.Source, notifier portnotifier.Notifier) *Service {
	return &Service{repo: repo, source: source, notifier: notifier}
}

// Catalog returns the catalog with install state, in catalog order.
func (s *Service) Catalog(ctx context.Context) ([]Entry, error) {
	roles, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch market: %w", err)
	}
	doc, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch market: %w", err)
	}
	out := make([]Entry, len(roles))
	for i, r := range roles {
		out[i] = Entry{MarketRole: r, Installed: doc.IsMarketInstalled(r.ID)}
	}
	return out, nil
}

// Install stores a copy of mr under a fresh id with isCustom=false.
func (s *Service) Install(ctx context.Context, mr domainrole.MarketRole) (domainrole.Role, error) {
	r, err := s.repo.InstallMarketRole(ctx, mr)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("安装角色失败: %v", err))
		return domainrole.Role{}, fmt.Errorf("install market role: %w", err)
	}
	s.notifier.Info(ctx, fmt.Sprintf("角色 \"%s\" 安装成功！", r.DisplayName))
	return r, nil
}

// InstallByID looks the market id up in the current catalog and installs it.
func (s *Service) InstallByID(ctx context.Context, marketID string) (domainrole.Role, error) {
	roles, err := s.source.Fetch(ctx)
	if err != nil {
		return domainrole.Role{}, fmt.Errorf("install market role: %w", err)
	}
	for _, mr := range roles {
		if mr.ID == marketID {
			return s.Install(ctx, mr)
		}
	}
	return domainrole.Role{}, fmt.Errorf("install market role %s: %w", marketID, ErrNotFound)
}

func (s *Service) IsInstalled(ctx context.Context, marketID string) (bool, error) {
	ok, err := s.repo.IsMarketInstalled(ctx, marketID)
	if err != nil {
		return false, fmt.Errorf("check market install: %w", err)
	}
	return ok, nil
}

// InstallPresets installs every catalog role not installed yet. It is the
// first-run welcome flow and is safe to repeat.
func (s *Service) InstallPresets(ctx context.Context) (int, error) {
	roles, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("install presets: %w", err)
	}
	count := 0
	for _, mr := range roles {
		installed, err := s.repo.IsMarketInstalled(ctx, mr.ID)
		if err != nil {
			return count, fmt.Errorf("install presets: %w", err)
		}
		if installed {
			continue
		}
		if _, err := s.repo.InstallMarketRole(ctx, mr); err != nil {
			return count, fmt.Errorf("install presets: %w", err)
		}
		count++
	}
	if count > 0 {
		s.notifier.Info(ctx, fmt.Sprintf("已安装 %d 个预设角色！", count))
	}
	return count, nil
}
