package role_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/role-master/internal/adapter/memory"
	"github.com/alanyang/role-master/internal/domain/event"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/mocks"
	"github.com/alanyang/role-master/internal/port/configstore"
	portmirror "github.com/alanyang/role-master/internal/port/mirror"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
	"github.com/alanyang/role-master/internal/testutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    *rolesvc.Service
	store  *memory.ConfigStore
	mirror *mocks.MockRuleMirror
	notes  *testutil.CaptureNotifier
	clock  *clock

	mu     sync.Mutex
	events []event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

func newFixtureWithStore(t *testing.T, store configstore.Store) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:  memory.NewConfigStore(),
		mirror: mocks.NewMockRuleMirror(ctrl),
		notes:  &testutil.CaptureNotifier{},
		clock:  &clock{now: time.Date(2024, 12, 16, 9, 0, 0, 0, time.UTC)},
	}
	if store == nil {
		store = f.store
	}
	bus := memory.NewEventBus()
	for _, et := range event.Types() {
		_, err := bus.Subscribe(context.Background(), et, func(_ context.Context, e event.Event) {
			f.mu.Lock()
			f.events = append(f.events, e)
			f.mu.Unlock()
		})
		require.NoError(t, err)
	}
	f.svc = rolesvc.NewService(store, bus, f.mirror, f.notes, rolesvc.WithClock(f.clock.Now))
	return f
}

func (f *fixture) eventTypes() []event.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Type, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

func qaDraft() domainrole.Draft {
	return domainrole.Draft{
		Name:         "qa-bot",
		DisplayName:  "QA Bot",
		Description:  "Finds bugs",
		Category:     domainrole.CategoryTesting,
		SystemPrompt: "Test everything",
		Expertise:    []string{"testing", " Jest ", ""},
		Tags:         []string{"qa"},
	}
}

func seed(t *testing.T, f *fixture, ids ...string) {
	t.Helper()
	for _, id := range ids {
		r := testutil.SampleRole(id)
		r.DisplayName = "Role " + id
		require.NoError(t, f.svc.SaveRole(context.Background(), r))
	}
}

// ── GenerateID ────────────────────────────────────────────────────────────────

func TestGenerateID(t *testing.T) {
	a, b := rolesvc.GenerateID(), rolesvc.GenerateID()
	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "role_"))

	id, err := uuid.Parse(strings.TrimPrefix(a, "role_"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

// ── GetConfig / SaveConfig ────────────────────────────────────────────────────

func TestGetConfig_DefaultsOnFirstAccess(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.AutoApplyRole)
	assert.Empty(t, doc.CurrentRoleID)
	assert.NotNil(t, doc.CustomRoles)
	assert.NotNil(t, doc.FavoriteRoles)
}

func TestSaveConfig_LastWriterWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")

	stale := domainrole.DefaultConfig()
	stale.CurrentRoleID = "role_z"
	require.NoError(t, f.svc.SaveConfig(ctx, stale))

	doc, err := f.svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "role_z", doc.CurrentRoleID)
	assert.Empty(t, doc.CustomRoles)
	assert.Contains(t, f.eventTypes(), event.TypeConfigReplaced)
}

// ── SaveRole / GetRole / ListRoles ────────────────────────────────────────────

func TestSaveRole_UpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a", "role_b")

	r := testutil.SampleRole("role_a")
	r.DisplayName = "Renamed"
	require.NoError(t, f.svc.SaveRole(ctx, r))
	require.NoError(t, f.svc.SaveRole(ctx, r))

	roles, err := f.svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "role_a", roles[0].ID, "replaced in place")
	assert.Equal(t, "Renamed", roles[0].DisplayName)
	assert.Equal(t, "role_b", roles[1].ID)
}

func TestSaveRole_RejectsRoleWithoutPrompt(t *testing.T) {
	f := newFixture(t)
	r := testutil.SampleRole("role_a")
	r.SystemPrompt = "  "

	err := f.svc.SaveRole(context.Background(), r)
	assert.ErrorIs(t, err, domainrole.ErrInvalidRole)
	assert.Empty(t, f.eventTypes())
}

func TestGetRole_MissIsNotAnError(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "role_a")

	_, ok, err := f.svc.GetRole(context.Background(), "role_missing")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := f.svc.GetRole(context.Background(), "role_a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "role_a", got.ID)
}

// ── CreateRole / UpdateRole ───────────────────────────────────────────────────

func TestCreateRole_AbandonedWritesNothing(t *testing.T) {
	for name, mutate := range map[string]func(*domainrole.Draft){
		"no name":          func(d *domainrole.Draft) { d.Name = "" },
		"no display name":  func(d *domainrole.Draft) { d.DisplayName = " " },
		"no system prompt": func(d *domainrole.Draft) { d.SystemPrompt = "" },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			d := qaDraft()
			mutate(&d)

			_, err := f.svc.CreateRole(context.Background(), d)
			assert.ErrorIs(t, err, domainrole.ErrAbandoned)

			_, found, err := f.store.Load(context.Background())
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCreateRole_Success(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.CreateRole(context.Background(), qaDraft())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.ID, "role_"))
	assert.True(t, r.IsCustom)
	assert.Equal(t, "Custom", r.Author)
	assert.Equal(t, "1.0.0", r.Version)
	assert.Equal(t, []string{"testing", "Jest"}, r.Expertise)
	assert.Equal(t, f.clock.Now(), r.CreatedAt)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	stored, ok, err := f.svc.GetRole(context.Background(), r.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "QA Bot", stored.DisplayName)
	assert.Equal(t, []event.Type{event.TypeRoleSaved}, f.eventTypes())
	assert.Equal(t, []string{`角色 "QA Bot" 创建成功！`}, f.notes.Messages(testutil.LevelInfo))
}

func TestUpdateRole_KeepsCreatedAtAndBumpsUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateRole(ctx, qaDraft())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	edit := created
	edit.CreatedAt = time.Time{}
	edit.Description = "Finds bugs faster"

	updated, err := f.svc.UpdateRole(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.CreatedAt.Add(time.Hour), updated.UpdatedAt)

	stored, _, err := f.svc.GetRole(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Finds bugs faster", stored.Description)
}

func TestUpdateRole_CurrentRoleRefreshesRuleFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Any()).Return("/ws/rule.md", nil)
	_, err := f.svc.SetCurrentRole(ctx, "role_a")
	require.NoError(t, err)

	r := testutil.SampleRole("role_a")
	r.SystemPrompt = "Ship nothing untested."
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Cond(func(x any) bool {
		return x.(domainrole.Role).SystemPrompt == "Ship nothing untested."
	})).Return("/ws/rule.md", nil)

	_, err = f.svc.UpdateRole(ctx, r)
	require.NoError(t, err)
}

// ── DeleteRole ────────────────────────────────────────────────────────────────

func TestDeleteRole_CurrentClearsSelectionAndRuleFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a", "role_b")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Any()).Return("/ws/rule.md", nil)
	_, err := f.svc.SetCurrentRole(ctx, "role_a")
	require.NoError(t, err)

	f.mirror.EXPECT().Clear(gomock.Any()).Return(true, nil)
	require.NoError(t, f.svc.DeleteRole(ctx, "role_a"))

	_, ok, err := f.svc.GetCurrentRole(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	doc, _ := f.svc.GetConfig(ctx)
	assert.Empty(t, doc.CurrentRoleID)
	assert.Len(t, doc.CustomRoles, 1)
}

func TestDeleteRole_OtherRoleLeavesRuleFileAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a", "role_b")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Any()).Return("/ws/rule.md", nil)
	_, err := f.svc.SetCurrentRole(ctx, "role_a")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRole(ctx, "role_b"))

	cur, ok, err := f.svc.GetCurrentRole(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "role_a", cur.ID)
}

func TestDeleteRole_UnknownIDIsNoop(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "role_a")
	before := len(f.eventTypes())

	require.NoError(t, f.svc.DeleteRole(context.Background(), "role_missing"))
	assert.Len(t, f.eventTypes(), before)
}

// ── SetCurrentRole ────────────────────────────────────────────────────────────

func TestSetCurrentRole_WritesRuleFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Cond(func(x any) bool {
		return x.(domainrole.Role).ID == "role_a"
	})).Return("/ws/.qoder/rules/ai-role-master.md", nil)

	res, err := f.svc.SetCurrentRole(ctx, "role_a")
	require.NoError(t, err)
	assert.Equal(t, rolesvc.SyncWritten, res)

	prompt, ok, err := f.svc.CurrentRolePrompt(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testutil.SampleRole("role_a").SystemPrompt, prompt)
	assert.Contains(t, f.eventTypes(), event.TypeSelectionChanged)
}

func TestSetCurrentRole_UnknownIDClearsRuleFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mirror.EXPECT().Clear(gomock.Any()).Return(false, nil)

	res, err := f.svc.SetCurrentRole(ctx, "role_ghost")
	require.NoError(t, err)
	assert.Equal(t, rolesvc.SyncCleared, res)

	doc, _ := f.svc.GetConfig(ctx)
	assert.Equal(t, "role_ghost", doc.CurrentRoleID, "stale ids are accepted")
	_, ok, err := f.svc.GetCurrentRole(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetCurrentRole_NoWorkspaceIsSkipped(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "role_a")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Any()).Return("", portmirror.ErrNoWorkspace)

	res, err := f.svc.SetCurrentRole(context.Background(), "role_a")
	require.NoError(t, err)
	assert.Equal(t, rolesvc.SyncSkipped, res)
	assert.Len(t, f.notes.Messages(testutil.LevelWarn), 1)
}

func TestSetCurrentRole_WriteFaultKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")
	f.mirror.EXPECT().Write(gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))

	res, err := f.svc.SetCurrentRole(ctx, "role_a")
	require.NoError(t, err)
	assert.Equal(t, rolesvc.SyncFailed, res)
	require.Len(t, f.notes.Messages(testutil.LevelError), 1)
	assert.Contains(t, f.notes.Messages(testutil.LevelError)[0], "disk full")

	cur, ok, err := f.svc.GetCurrentRole(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "role_a", cur.ID)
}

// ── Favorites ─────────────────────────────────────────────────────────────────

func TestFavorites_AddRemoveAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")

	require.NoError(t, f.svc.AddToFavorites(ctx, "role_a"))
	require.NoError(t, f.svc.AddToFavorites(ctx, "role_a"))
	doc, _ := f.svc.GetConfig(ctx)
	assert.Equal(t, []string{"role_a"}, doc.FavoriteRoles)

	fav, err := f.svc.IsFavorite(ctx, "role_a")
	require.NoError(t, err)
	assert.True(t, fav)

	require.NoError(t, f.svc.RemoveFromFavorites(ctx, "role_a"))
	require.NoError(t, f.svc.RemoveFromFavorites(ctx, "role_a"))
	doc, _ = f.svc.GetConfig(ctx)
	assert.Empty(t, doc.FavoriteRoles)

	var favEvents int
	for _, et := range f.eventTypes() {
		if et == event.TypeFavoritesChanged {
			favEvents++
		}
	}
	assert.Equal(t, 2, favEvents, "no-op calls publish nothing")
}

func TestToggleFavorite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	on, err := f.svc.ToggleFavorite(ctx, "role_a")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = f.svc.ToggleFavorite(ctx, "role_a")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestListFavorites_SkipsStaleIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a", "role_b")
	for _, id := range []string{"role_b", "role_gone", "role_a"} {
		require.NoError(t, f.svc.AddToFavorites(ctx, id))
	}

	favs, err := f.svc.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "role_b", favs[0].ID)
	assert.Equal(t, "role_a", favs[1].ID)
}

// ── Export / Import ───────────────────────────────────────────────────────────

func TestExportRoles_OmitsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "role_a", "role_b")

	exp, err := f.svc.ExportRoles(context.Background(), []string{"role_b", "role_missing", "role_a"})
	require.NoError(t, err)
	assert.Equal(t, "1.0", exp.Version)
	assert.Equal(t, "AI Role Master", exp.ExportedBy)
	require.Len(t, exp.Roles, 2)
	assert.Equal(t, "role_b", exp.Roles[0].ID)
	assert.Equal(t, "role_a", exp.Roles[1].ID)
}

func TestImportRoles_ReIdentifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a")
	exp, err := f.svc.ExportRoles(ctx, []string{"role_a"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	n, err := f.svc.ImportRoles(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	roles, err := f.svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	imported := roles[1]
	assert.NotEqual(t, "role_a", imported.ID)
	assert.True(t, imported.IsCustom)
	assert.Equal(t, f.clock.Now(), imported.CreatedAt)

	// Apart from identity and timestamps the round trip is lossless.
	ignore := cmpopts.IgnoreFields(domainrole.Role{}, "ID", "CreatedAt", "UpdatedAt", "IsCustom")
	if diff := cmp.Diff(roles[0], imported, ignore); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, f.eventTypes(), event.TypeRolesImported)
}

func TestImportRoles_SkipsInvalidItems(t *testing.T) {
	f := newFixture(t)
	bad := testutil.SampleRole("x")
	bad.SystemPrompt = ""
	exp := domainrole.NewExport([]domainrole.Role{testutil.SampleRole("x"), bad, testutil.SampleRole("y")}, f.clock.Now())

	n, err := f.svc.ImportRoles(context.Background(), exp)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportData_EmptySetsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := testutil.SampleRole("role_bare")
	r.Tags = nil
	r.Expertise = nil
	require.NoError(t, f.svc.SaveRole(ctx, r))

	exp, err := f.svc.ExportRoles(ctx, []string{"role_bare"})
	require.NoError(t, err)
	data, err := rolesvc.EncodeExport(exp, false)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")

	n, err := f.svc.ImportData(ctx, data, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"成功导入 1 个角色！"}, f.notes.Messages(testutil.LevelInfo))
	assert.Empty(t, f.notes.Messages(testutil.LevelWarn))

	roles, err := f.svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, []string{}, roles[1].Tags)
	assert.Equal(t, []string{}, roles[1].Expertise)
}

func TestImportData_NothingImportedWarns(t *testing.T) {
	f := newFixture(t)
	data := []byte(`{"version":"1.0","roles":[{"id":"x","name":"x"},{"id":"y"}]}`)

	n, err := f.svc.ImportData(context.Background(), data, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.notes.Messages(testutil.LevelInfo))
	assert.Equal(t, []string{"未导入任何角色，已跳过 2 个无效角色"}, f.notes.Messages(testutil.LevelWarn))
	assert.NotContains(t, f.eventTypes(), event.TypeRolesImported)
}

func TestImportData_PartialImportWarnsWithBothCounts(t *testing.T) {
	f := newFixture(t)
	exp := domainrole.NewExport([]domainrole.Role{testutil.SampleRole("x")}, f.clock.Now())
	data, err := rolesvc.EncodeExport(exp, false)
	require.NoError(t, err)
	data = []byte(strings.Replace(string(data), `"roles": [`, `"roles": [{"id":"broken"},`, 1))

	n, err := f.svc.ImportData(context.Background(), data, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, f.notes.Messages(testutil.LevelInfo))
	assert.Equal(t, []string{"成功导入 1 个角色，已跳过 1 个无效角色"}, f.notes.Messages(testutil.LevelWarn))
}

// failingStore delegates to an in-memory store until failAfter saves succeeded.
type failingStore struct {
	*memory.ConfigStore
	failAfter int
	saves     int
}

func (s *failingStore) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	if s.saves >= s.failAfter {
		return 0, errors.New("disk on fire")
	}
	s.saves++
	return s.ConfigStore.Save(ctx, doc)
}

func TestImportRoles_StorageFaultReturnsPartialCount(t *testing.T) {
	store := &failingStore{ConfigStore: memory.NewConfigStore(), failAfter: 2}
	f := newFixtureWithStore(t, store)
	exp := domainrole.NewExport([]domainrole.Role{
		testutil.SampleRole("x"), testutil.SampleRole("y"), testutil.SampleRole("z"),
	}, f.clock.Now())

	n, err := f.svc.ImportRoles(context.Background(), exp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import roles")
	assert.Equal(t, 2, n)

	doc, _, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.CustomRoles, 2)
}

func TestImportFile_JSONAndYAML(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, "role_a", "role_b")
	dir := t.TempDir()

	for _, name := range []string{"roles.json", "roles.yaml"} {
		path := filepath.Join(dir, name)
		n, err := f.svc.ExportFile(ctx, []string{"role_a", "role_b"}, path)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		n, err = f.svc.ImportFile(ctx, path)
		require.NoError(t, err, name)
		assert.Equal(t, 2, n, name)
	}

	roles, err := f.svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 6)
	assert.Contains(t, f.notes.Messages(testutil.LevelInfo), "成功导入 2 个角色！")
}

func TestExportFile_JSONIsIndented(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "role_a")
	path := filepath.Join(t.TempDir(), "out.json")

	_, err := f.svc.ExportFile(context.Background(), []string{"role_a"}, path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"version\": \"1.0\",\n"))
}

func TestExportFile_NothingToExport(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "out.json")

	n, err := f.svc.ExportFile(context.Background(), []string{"role_missing"}, path)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoFileExists(t, path)
	assert.Equal(t, []string{"没有可导出的角色"}, f.notes.Messages(testutil.LevelWarn))
}

// docStore keeps the document as a value, so content JSON cannot encode
// still reaches the export path.
type docStore struct {
	mu  sync.Mutex
	doc domainrole.UserConfig
	rev uint64
}

func (s *docStore) Load(_ context.Context) (domainrole.UserConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev == 0 {
		return domainrole.UserConfig{}, false, nil
	}
	doc := s.doc.Clone()
	doc.Revision = s.rev
	return doc, true, nil
}

func (s *docStore) Save(_ context.Context, doc domainrole.UserConfig) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Revision != s.rev {
		return 0, configstore.ErrConflict
	}
	s.rev++
	s.doc = doc.Clone()
	return s.rev, nil
}

func TestExportFile_EncodeFailureIsReported(t *testing.T) {
	f := newFixtureWithStore(t, &docStore{})
	ctx := context.Background()
	r := testutil.SampleRole("role_nan")
	nan := math.NaN()
	r.Rating = &nan
	require.NoError(t, f.svc.SaveRole(ctx, r))
	path := filepath.Join(t.TempDir(), "out.json")

	n, err := f.svc.ExportFile(ctx, []string{"role_nan"}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export file")
	assert.Zero(t, n)
	assert.NoFileExists(t, path)
	errs := f.notes.Messages(testutil.LevelError)
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "导出失败: "), errs[0])
}

func TestImportFile_MalformedEnvelopeWritesNothing(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"roles":[]}`), 0o644))

	n, err := f.svc.ImportFile(context.Background(), path)
	assert.ErrorIs(t, err, domainrole.ErrInvalidEnvelope)
	assert.Zero(t, n)
	_, found, _ := f.store.Load(context.Background())
	assert.False(t, found)
}

// ── Revision conflicts ────────────────────────────────────────────────────────

// racingStore lets another writer commit just before each of the first
// `races` saves, forcing a conflict.
type racingStore struct {
	*memory.ConfigStore
	races int
}

func (s *racingStore) Save(ctx context.Context, doc domainrole.UserConfig) (uint64, error) {
	if s.races > 0 {
		s.races--
		cur, _, _ := s.ConfigStore.Load(ctx)
		cur.FavoriteRoles = append(cur.FavoriteRoles, "role_other_writer")
		if _, err := s.ConfigStore.Save(ctx, cur); err != nil {
			return 0, err
		}
	}
	return s.ConfigStore.Save(ctx, doc)
}

func TestMutate_RetriesOnConflict(t *testing.T) {
	store := &racingStore{ConfigStore: memory.NewConfigStore(), races: 2}
	f := newFixtureWithStore(t, store)
	ctx := context.Background()

	require.NoError(t, f.svc.SaveRole(ctx, testutil.SampleRole("role_a")))

	doc, err := f.svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.CustomRoles, 1)
	assert.Contains(t, doc.FavoriteRoles, "role_other_writer", "concurrent write preserved")
}

func TestMutate_GivesUpAfterMaxRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockConfigStore(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	svc := rolesvc.NewService(store, bus, mocks.NewMockRuleMirror(ctrl), &testutil.CaptureNotifier{}, rolesvc.WithMaxRetries(2))

	store.EXPECT().Load(gomock.Any()).Return(domainrole.UserConfig{}, false, nil).Times(2)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(uint64(0), configstore.ErrConflict).Times(2)

	err := svc.SaveRole(context.Background(), testutil.SampleRole("role_a"))
	assert.ErrorIs(t, err, configstore.ErrConflict)
}

func TestGetConfig_StorageFault(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockConfigStore(ctrl)
	svc := rolesvc.NewService(store, mocks.NewMockEventBus(ctrl), mocks.NewMockRuleMirror(ctrl), mocks.NewMockNotifier(ctrl))
	store.EXPECT().Load(gomock.Any()).Return(domainrole.UserConfig{}, false, errors.New("db down"))

	_, err := svc.GetConfig(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get config")
}
