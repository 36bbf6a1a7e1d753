package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyang/role-master/internal/domain/event"
	porteventbus "github.com/alanyang/role-master/internal/port/eventbus"
	catalogsvc "github.com/alanyang/role-master/internal/service/catalog"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	marketsvc "github.com/alanyang/role-master/internal/service/market"
	rolesvc "github.com/alanyang/role-master/internal/service/role"

	cataloghandler "github.com/alanyang/role-master/internal/transport/catalog"
	composehandler "github.com/alanyang/role-master/internal/transport/compose"
	groupchathandler "github.com/alanyang/role-master/internal/transport/groupchat"
	markethandler "github.com/alanyang/role-master/internal/transport/market"
	mcptransport "github.com/alanyang/role-master/internal/transport/mcp"
	rolehandler "github.com/alanyang/role-master/internal/transport/role"
	wshandler "github.com/alanyang/role-master/internal/transport/ws"
)

func NewRouter(
	ctx context.Context,
	roleSvc *rolesvc.Service,
	groupSvc *groupchatsvc.Service,
	marketSvc *marketsvc.Service,
	projection *catalogsvc.Projection,
	hub *wshandler.Hub,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	api := r.Group("/api")

	rolehandler.Register(api.Group("/roles"), roleSvc)
	rolehandler.RegisterCurrent(api.Group("/current"), roleSvc)
	rolehandler.RegisterFavorites(api.Group("/favorites"), roleSvc)
	rolehandler.RegisterTransfer(api, roleSvc)
	cataloghandler.Register(api.Group("/catalog"), projection)
	groupchathandler.Register(api.Group("/groupchat"), groupSvc)
	markethandler.Register(api.Group("/market"), marketSvc)
	composehandler.Register(api.Group("/compose"), roleSvc)
	hub.Register(api.Group("/ws"))

	r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	// Bridge: every repository event goes to browsers and MCP sessions; the
	// event type in the payload lets clients filter.
	for _, t := range event.Types() {
		et := t
		if _, err := eventBus.Subscribe(ctx, et, func(ctx context.Context, e event.Event) {
			hub.Publish(ctx, e)
			mcpServer.Registry().Publish(ctx, e)
		}); err != nil {
			slog.Error("failed to subscribe event type to change feed", "type", et, "error", err)
		}
	}

	return r
}
