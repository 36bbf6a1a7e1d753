package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/role-master/internal/domain/event"
)

const notifyMethod = "notifications/message"

// SessionRegistry tracks open MCP sessions and pushes notifier messages and
// repository events to them. It implements adapter/notifier.Sink.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]time.Time // sessionID → opened at

	// mcpSrv is set after the MCP server is constructed.
	mcpMu  sync.RWMutex
	mcpSrv *mcpserver.MCPServer
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]time.Time),
	}
}

// SetMCPServer injects the mcp-go server after construction.
func (r *SessionRegistry) SetMCPServer(s *mcpserver.MCPServer) {
	r.mcpMu.Lock()
	r.mcpSrv = s
	r.mcpMu.Unlock()
}

func (r *SessionRegistry) Register(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = time.Now()
}

// Unregister forgets a session and reports whether it was known.
func (r *SessionRegistry) Unregister(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// Sessions returns the open session ids, sorted.
func (r *SessionRegistry) Sessions() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Notify implements adapter/notifier.Sink. Delivery failures are dropped;
// the message was already logged by the notifier.
func (r *SessionRegistry) Notify(ctx context.Context, level, msg string) {
	_ = r.broadcast(ctx, map[string]any{
		"level":  level,
		"logger": serverName,
		"data":   msg,
	})
}

// Publish forwards a repository event. It has the event bus handler signature.
func (r *SessionRegistry) Publish(ctx context.Context, e event.Event) {
	params, err := toParams(e)
	if err != nil {
		return
	}
	_ = r.broadcast(ctx, map[string]any{
		"level":  "info",
		"logger": serverName,
		"data":   params,
	})
}

func (r *SessionRegistry) broadcast(_ context.Context, params map[string]any) error {
	targets := r.Sessions()
	if len(targets) == 0 {
		return nil
	}

	r.mcpMu.RLock()
	srv := r.mcpSrv
	r.mcpMu.RUnlock()
	if srv == nil {
		return fmt.Errorf("mcp server not initialized")
	}

	var lastErr error
	for _, sessionID := range targets {
		if err := srv.SendNotificationToSpecificClient(sessionID, notifyMethod, params); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func toParams(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return map[string]any{"data": v}, nil
	}
	return params, nil
}
