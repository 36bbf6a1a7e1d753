package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/role-master/internal/domain/rulefile"
)

// env points every invocation of one test at the same SQLite file and
// workspace, with the market unreachable.
type env struct {
	t         *testing.T
	workspace string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(market.Close)

	t.Setenv("ROLEMASTER_CONFIG", "")
	t.Setenv("ROLEMASTER_STORE_DRIVER", "sqlite")
	t.Setenv("ROLEMASTER_STORE_SQLITE__PATH", filepath.Join(dir, "roles.db"))
	t.Setenv("ROLEMASTER_MARKET_URL", market.URL)

	ws := filepath.Join(dir, "workspace")
	require.NoError(t, os.MkdirAll(ws, 0o755))
	return &env{t: t, workspace: ws}
}

func (e *env) run(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--workspace", e.workspace}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	require.NoError(e.t, err, "rolectl %s\nstderr: %s", strings.Join(args, " "), stderr)
	return stdout
}

func (e *env) createQABot() string {
	e.t.Helper()
	id := strings.TrimSpace(e.mustRun("create",
		"--name", "qa-bot",
		"--display-name", "QA Bot",
		"--description", "Finds bugs before users do",
		"--category", "testing",
		"--prompt", "You are a meticulous QA engineer.",
		"--expertise", "testing,Jest",
		"--tags", "qa",
	))
	require.True(e.t, strings.HasPrefix(id, "role_"), "got id %q", id)
	return id
}

// ── Roles ───────────────────────────────────────────────────────────────────

func TestCreateAndList(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()

	out := e.mustRun("list")
	assert.Contains(t, out, "质量测试")
	assert.Contains(t, out, "1 个角色")
	assert.Contains(t, out, "QA Bot")
	assert.Contains(t, out, id)

	out = e.mustRun("list", "--query", "jest", "--flat")
	assert.Contains(t, out, "QA Bot")
	assert.NotContains(t, out, "质量测试")

	out = e.mustRun("list", "--query", "kubernetes")
	assert.NotContains(t, out, "QA Bot")
}

func TestCreate_RequiresPrompt(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("create", "--name", "x", "--display-name", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCreate_UnknownCategory(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("create", "--name", "x", "--display-name", "X", "--prompt", "p", "--category", "sales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales")
}

func TestShowRaw(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()

	out := e.mustRun("show", id, "--raw")
	assert.True(t, strings.HasPrefix(out, "# AI Role: QA Bot\n"))
	assert.Contains(t, out, "You are a meticulous QA engineer.")
}

func TestShow_UnknownRole(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("show", "role_missing")
	assert.ErrorIs(t, err, errRoleNotFound)
}

// ── Selection ───────────────────────────────────────────────────────────────

func TestUseWritesRuleFileAndClearRemovesIt(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()
	rulePath := filepath.Join(e.workspace, rulefile.DefaultPath)

	out, stderr, err := e.run("use", id)
	require.NoError(t, err)
	assert.Equal(t, "written\n", out)
	assert.Contains(t, stderr, "已激活角色: QA Bot")
	require.FileExists(t, rulePath)

	assert.Contains(t, e.mustRun("current"), "QA Bot")
	assert.Equal(t, "You are a meticulous QA engineer.\n", e.mustRun("current", "--prompt"))
	assert.Contains(t, e.mustRun("list"), "(当前)")

	assert.Equal(t, "cleared\n", e.mustRun("clear"))
	assert.NoFileExists(t, rulePath)
	assert.Contains(t, e.mustRun("current"), "no current role")
}

func TestDeleteCurrentRemovesRuleFile(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()
	rulePath := filepath.Join(e.workspace, rulefile.DefaultPath)

	e.mustRun("use", id)
	require.FileExists(t, rulePath)

	e.mustRun("delete", id)
	assert.NoFileExists(t, rulePath)
	assert.NotContains(t, e.mustRun("list"), "QA Bot")
}

func TestFavToggle(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()

	assert.Equal(t, "★ "+id+"\n", e.mustRun("fav", "toggle", id))
	assert.Contains(t, e.mustRun("fav", "list"), "QA Bot")
	assert.Equal(t, "☆ "+id+"\n", e.mustRun("fav", "toggle", id))
	assert.Empty(t, e.mustRun("fav", "list"))
}

// ── Import / export ─────────────────────────────────────────────────────────

func TestExportThenImport(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()
	path := filepath.Join(t.TempDir(), "roles.json")

	assert.Equal(t, "1\n", e.mustRun("export", path, id))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var envelope struct {
		Version string `json:"version"`
		Roles   []struct {
			DisplayName string `json:"displayName"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Len(t, envelope.Roles, 1)
	assert.Equal(t, "QA Bot", envelope.Roles[0].DisplayName)

	out, stderr, err := e.run("import", path)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
	assert.Contains(t, stderr, "成功导入 1 个角色！")
	assert.Contains(t, e.mustRun("list"), "2 个角色")
}

func TestExportAllYAML(t *testing.T) {
	e := newEnv(t)
	e.createQABot()
	path := filepath.Join(t.TempDir(), "roles.yaml")

	assert.Equal(t, "1\n", e.mustRun("export", path, "--all"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "displayName: QA Bot")
}

func TestExport_Nothing(t *testing.T) {
	e := newEnv(t)
	_, stderr, err := e.run("export", filepath.Join(t.TempDir(), "roles.json"), "role_missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "没有可导出的角色")
}

// ── Group chat ──────────────────────────────────────────────────────────────

func TestGroupChatLifecycle(t *testing.T) {
	e := newEnv(t)
	first := e.createQABot()
	second := strings.TrimSpace(e.mustRun("create",
		"--name", "pm", "--display-name", "Product Manager",
		"--category", "product", "--prompt", "You own the roadmap.",
	))
	third := strings.TrimSpace(e.mustRun("create",
		"--name", "ops", "--display-name", "SRE",
		"--category", "devops", "--prompt", "You keep production up.",
	))

	_, _, err := e.run("groupchat", "add", third)
	require.Error(t, err, "add without a session")

	out := e.mustRun("groupchat", "start", first, second, "--raw")
	assert.Contains(t, out, "### 1. QA Bot\n")
	assert.Contains(t, out, "### 2. Product Manager\n")

	out = e.mustRun("groupchat", "add", third, "--raw")
	assert.True(t, strings.HasPrefix(out, "# 新成员加入群聊\n"))

	status := e.mustRun("groupchat", "status")
	assert.Contains(t, status, "**[QA Bot]:**")
	assert.Contains(t, status, "**[SRE]:**")

	e.mustRun("groupchat", "stop")
	assert.Contains(t, e.mustRun("groupchat", "status"), "no active session")
}

// ── Market ──────────────────────────────────────────────────────────────────

func TestMarketFallsBackToBuiltin(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("market", "list")
	assert.Contains(t, out, "market_frontend_react")

	id := strings.TrimSpace(e.mustRun("market", "install", "market_frontend_react"))
	assert.True(t, strings.HasPrefix(id, "role_"))
	assert.Contains(t, e.mustRun("market", "list"), "✓ ")

	assert.Equal(t, "5\n", e.mustRun("market", "presets"))
	assert.Equal(t, "0\n", e.mustRun("market", "presets"))
}

// ── Compose ─────────────────────────────────────────────────────────────────

func TestComposeModes(t *testing.T) {
	e := newEnv(t)
	id := e.createQABot()

	assert.Equal(t,
		"[我希望你以 QA Bot 的身份回答]\n\nYou are a meticulous QA engineer.\n",
		e.mustRun("compose", id, "--mode", "apply", "--raw"))
	assert.Contains(t, e.mustRun("compose", id, "--raw"), "### 1. QA Bot\n")

	_, _, err := e.run("compose", id, "--mode", "solo")
	require.Error(t, err)

	_, _, err = e.run("compose", "role_missing")
	assert.ErrorIs(t, err, errRoleNotFound)
}

func TestUnknownStoreOverride(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("--store", "cassandra", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}
