package groupchat_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/role-master/internal/adapter/memory"
	"github.com/alanyang/role-master/internal/mocks"
	"github.com/alanyang/role-master/internal/service/groupchat"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
	"github.com/alanyang/role-master/internal/testutil"
)

func newGroupChat(t *testing.T, ids ...string) (*groupchat.Service, *rolesvc.Service, *testutil.CaptureNotifier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	notes := &testutil.CaptureNotifier{}
	roles := rolesvc.NewService(memory.NewConfigStore(), memory.NewEventBus(), mocks.NewMockRuleMirror(ctrl), notes)
	for _, id := range ids {
		r := testutil.SampleRole(id)
		r.DisplayName = "Persona " + strings.TrimPrefix(id, "role_")
		require.NoError(t, roles.SaveRole(context.Background(), r))
	}
	return groupchat.NewService(roles, notes), roles, notes
}

// ── Start ─────────────────────────────────────────────────────────────────────

func TestStart_ComposesRosterAndPersists(t *testing.T) {
	svc, _, notes := newGroupChat(t, "role_a", "role_b", "role_c")
	ctx := context.Background()

	prompt, err := svc.Start(ctx, []string{"role_c", "role_ghost", "role_a", "role_c"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "## 参与角色（仅限以下 2 个）")
	assert.Less(t, strings.Index(prompt, "### 1. Persona c"), strings.Index(prompt, "### 2. Persona a"))

	sess, err := svc.Session(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Active)
	assert.Equal(t, []string{"role_c", "role_a"}, sess.RoleIDs)
	require.Len(t, sess.Roles, 2)
	assert.Contains(t, notes.Messages(testutil.LevelInfo)[0], "Persona c、Persona a")
}

func TestStart_NoResolvableRoles(t *testing.T) {
	svc, _, notes := newGroupChat(t, "role_a")

	_, err := svc.Start(context.Background(), []string{"role_ghost"})
	assert.ErrorIs(t, err, groupchat.ErrNoRoles)
	assert.Len(t, notes.Messages(testutil.LevelWarn), 1)

	sess, err := svc.Session(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Active)
}

// ── Add ───────────────────────────────────────────────────────────────────────

func TestAdd_RequiresActiveSession(t *testing.T) {
	svc, _, _ := newGroupChat(t, "role_a")

	_, err := svc.Add(context.Background(), "role_a")
	assert.ErrorIs(t, err, groupchat.ErrNotActive)
}

func TestAdd_AppendsAndComposesAddition(t *testing.T) {
	svc, _, _ := newGroupChat(t, "role_a", "role_b")
	ctx := context.Background()
	_, err := svc.Start(ctx, []string{"role_a"})
	require.NoError(t, err)

	addition, err := svc.Add(ctx, "role_b")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addition, "# 新成员加入群聊\n"))
	assert.Contains(t, addition, "## Persona b\n")

	sess, err := svc.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"role_a", "role_b"}, sess.RoleIDs)
}

func TestAdd_RejectsMembersAndUnknownRoles(t *testing.T) {
	svc, _, _ := newGroupChat(t, "role_a")
	ctx := context.Background()
	_, err := svc.Start(ctx, []string{"role_a"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "role_a")
	assert.ErrorIs(t, err, groupchat.ErrAlreadyMember)

	_, err = svc.Add(ctx, "role_ghost")
	assert.ErrorIs(t, err, groupchat.ErrUnknownRole)

	sess, _ := svc.Session(ctx)
	assert.Equal(t, []string{"role_a"}, sess.RoleIDs)
}

// ── Available / Stop / Prompt ─────────────────────────────────────────────────

func TestAvailable_ExcludesRoster(t *testing.T) {
	svc, _, _ := newGroupChat(t, "role_a", "role_b", "role_c")
	ctx := context.Background()
	_, err := svc.Start(ctx, []string{"role_b"})
	require.NoError(t, err)

	avail, err := svc.Available(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, "role_a", avail[0].ID)
	assert.Equal(t, "role_c", avail[1].ID)
}

func TestStop_ClearsSession(t *testing.T) {
	svc, _, _ := newGroupChat(t, "role_a")
	ctx := context.Background()
	_, err := svc.Start(ctx, []string{"role_a"})
	require.NoError(t, err)

	require.NoError(t, svc.Stop(ctx))

	sess, err := svc.Session(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Active)
	assert.Empty(t, sess.RoleIDs)
	_, err = svc.Prompt(ctx)
	assert.ErrorIs(t, err, groupchat.ErrNotActive)
}

func TestSession_StaleIDsResolveToAbsent(t *testing.T) {
	svc, roles, _ := newGroupChat(t, "role_a", "role_b")
	ctx := context.Background()
	_, err := svc.Start(ctx, []string{"role_a", "role_b"})
	require.NoError(t, err)

	require.NoError(t, roles.DeleteRole(ctx, "role_b"))

	sess, err := svc.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"role_a", "role_b"}, sess.RoleIDs)
	require.Len(t, sess.Roles, 1)

	prompt, err := svc.Prompt(ctx)
	require.NoError(t, err)
	assert.Contains(t, prompt, "仅限以下 1 个")
}
