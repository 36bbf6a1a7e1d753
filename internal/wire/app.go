package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyang/role-master/internal/config"
	"github.com/alanyang/role-master/internal/transport"
	mcptransport "github.com/alanyang/role-master/internal/transport/mcp"
	wshandler "github.com/alanyang/role-master/internal/transport/ws"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	*Core
	Server    *http.Server
	Hub       *wshandler.Hub
	MCPServer *mcptransport.Server

	stopWatch func()
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	// The hub and the MCP registry are notifier sinks, so they exist before
	// the services that notify.
	hub := wshandler.NewHub()
	reg := mcptransport.NewSessionRegistry()

	core, err := BuildCore(ctx, cfg, hub, reg)
	if err != nil {
		return nil, err
	}

	mcpServer := mcptransport.New(reg, core.RoleSvc, core.GroupSvc)

	stopWatch, err := core.Catalog.Watch(ctx, core.EventBus)
	if err != nil {
		core.Close() //nolint:errcheck
		return nil, fmt.Errorf("watching catalog: %w", err)
	}

	// ── Transport ─────────────────────────────────────────────────────────────
	router := transport.NewRouter(
		ctx,
		core.RoleSvc,
		core.GroupSvc,
		core.MarketSvc,
		core.Catalog,
		hub,
		mcpServer,
		core.EventBus,
	)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	slog.Info("application wired", "addr", cfg.HTTP.Addr)

	app := &App{
		Core:      core,
		Server:    server,
		Hub:       hub,
		MCPServer: mcpServer,
		stopWatch: stopWatch,
	}

	runStartup(ctx, app.Core)

	return app, nil
}

// Close stops the catalog watch and releases storage.
func (a *App) Close() error {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	return a.Core.Close()
}
