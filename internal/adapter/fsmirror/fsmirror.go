// Package fsmirror writes the active role to the workspace rule file.
package fsmirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/domain/rulefile"
	portmirror "github.com/alanyang/role-master/internal/port/mirror"
)

// Mirror implements port/mirror.RuleMirror on the local filesystem.
// The file is opened, fully overwritten and closed on every call.
type Mirror struct {
	workspace string
	relPath   string
	now       func() time.Time
}

type Option func(*Mirror)

// WithRelPath overrides the rule file location inside the workspace.
func WithRelPath(p string) Option {
	return func(m *Mirror) {
		if p != "" {
			m.relPath = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Mirror) { m.now = now }
}

// New returns a mirror rooted at workspace. An empty workspace is allowed;
// every call then reports ErrNoWorkspace.
func New(workspace string, opts ...Option) *Mirror {
	m := &Mirror{workspace: workspace, relPath: rulefile.DefaultPath, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path is the absolute rule file location, or "" without a workspace.
func (m *Mirror) Path() string {
	if m.workspace == "" {
		return ""
	}
	return filepath.Join(m.workspace, filepath.FromSlash(m.relPath))
}

func (m *Mirror) Write(_ context.Context, r domainrole.Role) (string, error) {
	path := m.Path()
	if path == "" {
		return "", portmirror.ErrNoWorkspace
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating rules directory: %w", err)
	}
	content := rulefile.Render(r, m.now())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing rule file: %w", err)
	}
	return path, nil
}

func (m *Mirror) Clear(_ context.Context) (bool, error) {
	path := m.Path()
	if path == "" {
		return false, portmirror.ErrNoWorkspace
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("removing rule file: %w", err)
	}
	return true, nil
}
