package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/role-master/internal/domain/compose"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

var errNoCurrentRole = errors.New("no current role selected")

// RegisterPrompts registers the native prompts: the active role and the
// group chat roster.
func RegisterPrompts(s *mcpserver.MCPServer, roleSvc *rolesvc.Service, groupSvc *groupchatsvc.Service) {
	s.AddPrompt(
		mcpmcp.NewPrompt("current_role",
			mcpmcp.WithPromptDescription("Persona prompt of the currently selected role."),
		),
		currentRolePrompt(roleSvc),
	)

	s.AddPrompt(
		mcpmcp.NewPrompt("group_chat",
			mcpmcp.WithPromptDescription("Group chat prompt. Uses the running session unless role_ids is given."),
			mcpmcp.WithArgument("role_ids",
				mcpmcp.ArgumentDescription("Comma-separated role ids to compose instead of the running session."),
			),
		),
		groupChatPrompt(roleSvc, groupSvc),
	)
}

func currentRolePrompt(roleSvc *rolesvc.Service) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		r, ok, err := roleSvc.GetCurrentRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("get current role: %w", err)
		}
		if !ok {
			return nil, errNoCurrentRole
		}
		return userPrompt(r.DisplayName, compose.ComposeApply(r)), nil
	}
}

func groupChatPrompt(roleSvc *rolesvc.Service, groupSvc *groupchatsvc.Service) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		ids := domainrole.SplitList(req.Params.Arguments["role_ids"])
		if len(ids) == 0 {
			text, err := groupSvc.Prompt(ctx)
			if err != nil {
				return nil, fmt.Errorf("group chat prompt: %w", err)
			}
			return userPrompt("一人公司群聊", text), nil
		}

		roles, err := resolveRoles(ctx, roleSvc, ids)
		if err != nil {
			return nil, err
		}
		return userPrompt("一人公司群聊", compose.Compose(roles)), nil
	}
}

// resolveRoles looks ids up in order, skipping stale ones. No match at all is
// an error.
func resolveRoles(ctx context.Context, roleSvc *rolesvc.Service, ids []string) ([]domainrole.Role, error) {
	doc, err := roleSvc.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	roles := make([]domainrole.Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := doc.FindRole(id); ok {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return nil, groupchatsvc.ErrNoRoles
	}
	return roles, nil
}

func userPrompt(description, text string) *mcpmcp.GetPromptResult {
	return mcpmcp.NewGetPromptResult(
		description,
		[]mcpmcp.PromptMessage{
			mcpmcp.NewPromptMessage(
				mcpmcp.RoleUser,
				mcpmcp.TextContent{
					Type: "text",
					Text: text,
				},
			),
		},
	)
}
