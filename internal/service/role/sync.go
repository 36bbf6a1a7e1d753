package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/metrics"
	portmirror "github.com/alanyang/role-master/internal/port/mirror"
)

// SyncResult describes what happened to the rule file after a selection change.
type SyncResult string

const (
	SyncWritten SyncResult = "written"
	SyncCleared SyncResult = "cleared"
	SyncSkipped SyncResult = "skipped"
	SyncFailed  SyncResult = "failed"
)

// syncMirror writes r to the rule file when present, otherwise removes the file.
// Faults are reported, not returned.
func (s *Service) syncMirror(ctx context.Context, r domainrole.Role, present bool) SyncResult {
	result := s.doSync(ctx, r, present)
	metrics.MirrorSyncsTotal.WithLabelValues(string(result)).Inc()
	return result
}

func (s *Service) doSync(ctx context.Context, r domainrole.Role, present bool) SyncResult {
	if !present {
		removed, err := s.mirror.Clear(ctx)
		switch {
		case errors.Is(err, portmirror.ErrNoWorkspace):
			return SyncSkipped
		case err != nil:
			slog.ErrorContext(ctx, "failed to clear rule file", "error", err)
			s.notifier.Error(ctx, fmt.Sprintf("清除角色规则失败: %v", err))
			return SyncFailed
		}
		if removed {
			s.notifier.Info(ctx, "已清除当前角色")
		}
		return SyncCleared
	}

	path, err := s.mirror.Write(ctx, r)
	switch {
	case errors.Is(err, portmirror.ErrNoWorkspace):
		s.notifier.Warn(ctx, "请先打开一个工作区以使用角色注入功能")
		return SyncSkipped
	case err != nil:
		slog.ErrorContext(ctx, "failed to write rule file", "role_id", r.ID, "error", err)
		s.notifier.Error(ctx, fmt.Sprintf("注入角色规则失败: %v", err))
		return SyncFailed
	}
	slog.InfoContext(ctx, "rule file written", "role_id", r.ID, "path", path)
	s.notifier.Info(ctx, fmt.Sprintf("已激活角色: %s", r.DisplayName))
	return SyncWritten
}
