// Package compose serves the prompt composer: group prompts, single-member
// additions and single-role "apply" prompts for the chat surface.
package compose

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domaincompose "github.com/alanyang/role-master/internal/domain/compose"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

// Reader is the read side of the role repository.
type Reader interface {
	GetConfig(ctx context.Context) (domainrole.UserConfig, error)
}

const (
	ModeGroup    = "group"
	ModeAddition = "addition"
	ModeApply    = "apply"
)

func Register(rg *gin.RouterGroup, repo Reader) {
	rg.POST("", composePrompt(repo))
}

type composeReq struct {
	RoleIDs []string `json:"roleIds" binding:"required,min=1"`
	Mode    string   `json:"mode" binding:"omitempty,oneof=group addition apply"`
}

type composeResp struct {
	Mode        string   `json:"mode"`
	Prompt      string   `json:"prompt"`
	RoleIDs     []string `json:"roleIds"`
	ReplyPrefix []string `json:"replyPrefixes"`
}

func composePrompt(repo Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req composeReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Mode == "" {
			req.Mode = ModeGroup
		}

		doc, err := repo.GetConfig(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// Stale ids are skipped.
		roles := make([]domainrole.Role, 0, len(req.RoleIDs))
		for _, id := range req.RoleIDs {
			if r, ok := doc.FindRole(id); ok {
				roles = append(roles, r)
			}
		}
		if len(roles) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no known roles"})
			return
		}

		resp := composeResp{Mode: req.Mode}
		for _, r := range roles {
			resp.RoleIDs = append(resp.RoleIDs, r.ID)
			resp.ReplyPrefix = append(resp.ReplyPrefix, domaincompose.ReplyPrefix(r))
		}
		switch req.Mode {
		case ModeAddition:
			resp.Prompt = domaincompose.ComposeAddition(roles[0])
		case ModeApply:
			resp.Prompt = domaincompose.ComposeApply(roles[0])
		default:
			resp.Prompt = domaincompose.Compose(roles)
		}
		c.JSON(http.StatusOK, resp)
	}
}
