package market_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/role-master/internal/adapter/fsmirror"
	adaptermarket "github.com/alanyang/role-master/internal/adapter/market"
	"github.com/alanyang/role-master/internal/adapter/memory"
	"github.com/alanyang/role-master/internal/mocks"
	marketsvc "github.com/alanyang/role-master/internal/service/market"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
	"github.com/alanyang/role-master/internal/testutil"
	transportmarket "github.com/alanyang/role-master/internal/transport/market"
)

func init() { gin.SetMode(gin.TestMode) }

func setup(t *testing.T) (*gin.Engine, *rolesvc.Service) {
	t.Helper()
	notes := &testutil.CaptureNotifier{}
	roles := rolesvc.NewService(memory.NewConfigStore(), memory.NewEventBus(), fsmirror.New(""), notes)
	r := gin.New()
	transportmarket.Register(r.Group("/market"), marketsvc.NewService(roles, adaptermarket.Builtin{}, notes))
	return r, roles
}

func do(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListCatalog_MarksInstalled(t *testing.T) {
	r, _ := setup(t)

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/market/market_frontend_react/install").Code)

	w := do(t, r, http.MethodGet, "/market")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []marketsvc.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, e.ID == "market_frontend_react", e.Installed, e.ID)
	}
}

func TestInstallRole(t *testing.T) {
	r, roles := setup(t)

	w := do(t, r, http.MethodPost, "/market/market_frontend_react/install")
	require.Equal(t, http.StatusCreated, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, false, got["isCustom"])
	assert.NotEqual(t, "market_frontend_react", got["id"])

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/market/unknown/install").Code)

	installed, err := roles.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, installed, 1)
}

func TestInstallPresets_Idempotent(t *testing.T) {
	r, roles := setup(t)

	w := do(t, r, http.MethodPost, "/market/presets")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"installed":6}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/market/presets")
	assert.JSONEq(t, `{"installed":0}`, w.Body.String())

	installed, err := roles.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, installed, 6)
}

func TestListCatalog_SourceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockMarketSource(ctrl)
	src.EXPECT().Fetch(gomock.Any()).Return(nil, errors.New("offline"))

	notes := &testutil.CaptureNotifier{}
	roles := rolesvc.NewService(memory.NewConfigStore(), memory.NewEventBus(), fsmirror.New(""), notes)
	r := gin.New()
	transportmarket.Register(r.Group("/market"), marketsvc.NewService(roles, src, notes))

	assert.Equal(t, http.StatusBadGateway, do(t, r, http.MethodGet, "/market").Code)
}
