package wire

import (
	"context"
	"log/slog"
)

// runStartup brings the workspace in line with the stored state once the
// graph is wired. Failures are logged; the server still starts.
//
// With autoApplyRole set, the rule file for the stored selection is rendered
// again, since the process may have been down while the role changed. With
// market.install_presets set and an empty repository, the market catalog is
// installed as the first-run welcome flow.
func runStartup(ctx context.Context, core *Core) {
	doc, err := core.RoleSvc.GetConfig(ctx)
	if err != nil {
		slog.Error("startup: load config failed", "error", err)
		return
	}

	if core.Config.Market.InstallPresets && len(doc.CustomRoles) == 0 && len(doc.InstalledMarketRoles) == 0 {
		n, err := core.MarketSvc.InstallPresets(ctx)
		if err != nil {
			slog.Error("startup: install presets failed", "installed", n, "error", err)
		} else {
			slog.Info("startup: installed preset roles", "count", n)
		}
	}

	if doc.AutoApplyRole && doc.CurrentRoleID != "" {
		result, err := core.RoleSvc.SyncCurrent(ctx)
		if err != nil {
			slog.Error("startup: rule file sync failed", "error", err)
			return
		}
		slog.Info("startup: rule file synced", "role_id", doc.CurrentRoleID, "result", result)
	}
}
