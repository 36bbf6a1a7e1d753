package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/role-master/internal/adapter/fsmirror"
	adaptermarket "github.com/alanyang/role-master/internal/adapter/market"
	"github.com/alanyang/role-master/internal/adapter/memory"
	catalogsvc "github.com/alanyang/role-master/internal/service/catalog"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	marketsvc "github.com/alanyang/role-master/internal/service/market"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
	"github.com/alanyang/role-master/internal/testutil"
	"github.com/alanyang/role-master/internal/transport"
	mcptransport "github.com/alanyang/role-master/internal/transport/mcp"
	wshandler "github.com/alanyang/role-master/internal/transport/ws"
)

func TestNewRouter_Mounts(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewEventBus()
	notes := &testutil.CaptureNotifier{}
	roles := rolesvc.NewService(memory.NewConfigStore(), bus, fsmirror.New(t.TempDir()), notes)
	groups := groupchatsvc.NewService(roles, notes)
	market := marketsvc.NewService(roles, adaptermarket.Builtin{}, notes)
	mcpSrv := mcptransport.New(mcptransport.NewSessionRegistry(), roles, groups)

	r := transport.NewRouter(ctx, roles, groups, market, catalogsvc.NewProjection(roles), wshandler.NewHub(), mcpSrv, bus)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/roles", http.StatusOK},
		{http.MethodGet, "/api/catalog", http.StatusOK},
		{http.MethodGet, "/api/favorites", http.StatusOK},
		{http.MethodGet, "/api/groupchat", http.StatusOK},
		{http.MethodGet, "/api/market", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodOptions, "/api/roles", http.StatusNoContent},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		req, err := http.NewRequestWithContext(ctx, tt.method, tt.path, nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}
