package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/role-master/internal/domain/compose"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/service/catalog"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

// RegisterTools registers all MCP tools on the server.
func RegisterTools(s *mcpserver.MCPServer, roleSvc *rolesvc.Service, groupSvc *groupchatsvc.Service) {
	s.AddTool(mcpmcp.NewTool("list_roles",
		mcpmcp.WithDescription("List installed roles. Optional query filters by name, description, expertise and tags."),
		mcpmcp.WithString("query", mcpmcp.Description("Case-insensitive search text")),
	), listRolesHandler(roleSvc))

	s.AddTool(mcpmcp.NewTool("activate_role",
		mcpmcp.WithDescription("Make a role the current role and write its rule file into the workspace. Pass an empty role_id to clear the selection."),
		mcpmcp.WithString("role_id", mcpmcp.Required(), mcpmcp.Description("Role id from list_roles")),
	), activateRoleHandler(roleSvc))

	s.AddTool(mcpmcp.NewTool("compose_group_chat",
		mcpmcp.WithDescription("Compose the group chat prompt for several roles. With start=true the roster also becomes the running session."),
		mcpmcp.WithString("role_ids", mcpmcp.Required(), mcpmcp.Description("Comma-separated role ids, in speaking order")),
		mcpmcp.WithBoolean("start", mcpmcp.Description("Persist the roster as the running group chat session")),
	), composeGroupChatHandler(roleSvc, groupSvc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

type roleSummary struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Category    domainrole.Category `json:"category"`
	Description string              `json:"description"`
	Expertise   []string            `json:"expertise"`
	Active      bool                `json:"active"`
	Favorite    bool                `json:"favorite"`
}

func listRolesHandler(roleSvc *rolesvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		query := strings.TrimSpace(mcpmcp.ParseString(req, "query", ""))

		doc, err := roleSvc.GetConfig(ctx)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}

		out := make([]roleSummary, 0, len(doc.CustomRoles))
		for _, r := range doc.CustomRoles {
			if !catalog.Matches(r, query) {
				continue
			}
			out = append(out, roleSummary{
				ID:          r.ID,
				DisplayName: r.DisplayName,
				Category:    r.Category,
				Description: r.Description,
				Expertise:   r.Expertise,
				Active:      r.ID == doc.CurrentRoleID,
				Favorite:    doc.IsFavorite(r.ID),
			})
		}
		data, _ := json.Marshal(out)
		return mcpmcp.NewToolResultText(string(data)), nil
	}
}

func activateRoleHandler(roleSvc *rolesvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := strings.TrimSpace(mcpmcp.ParseString(req, "role_id", ""))

		if id != "" {
			if _, ok, err := roleSvc.GetRole(ctx, id); err != nil {
				return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
			} else if !ok {
				return mcpmcp.NewToolResultText("error: role not found"), nil
			}
		}

		result, err := roleSvc.SetCurrentRole(ctx, id)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		data, _ := json.Marshal(map[string]string{"role_id": id, "sync": string(result)})
		return mcpmcp.NewToolResultText(string(data)), nil
	}
}

func composeGroupChatHandler(roleSvc *rolesvc.Service, groupSvc *groupchatsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		ids := domainrole.SplitList(mcpmcp.ParseString(req, "role_ids", ""))
		if len(ids) == 0 {
			return mcpmcp.NewToolResultText("error: role_ids required"), nil
		}

		if mcpmcp.ParseBoolean(req, "start", false) {
			text, err := groupSvc.Start(ctx, ids)
			if errors.Is(err, groupchatsvc.ErrNoRoles) {
				return mcpmcp.NewToolResultText("error: none of the role_ids exist"), nil
			}
			if err != nil {
				return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
			}
			return mcpmcp.NewToolResultText(text), nil
		}

		roles, err := resolveRoles(ctx, roleSvc, ids)
		if errors.Is(err, groupchatsvc.ErrNoRoles) {
			return mcpmcp.NewToolResultText("error: none of the role_ids exist"), nil
		}
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return mcpmcp.NewToolResultText(compose.Compose(roles)), nil
	}
}
