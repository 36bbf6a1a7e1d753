// Package role exposes the role repository over HTTP: CRUD, the current
// selection, favorites and import/export.
package role

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

func Register(rg *gin.RouterGroup, svc *rolesvc.Service) {
	rg.GET("", listRoles(svc))
	rg.POST("", createRole(svc))
	rg.GET("/:id", getRole(svc))
	rg.PUT("/:id", updateRole(svc))
	rg.DELETE("/:id", deleteRole(svc))
}

type createRoleReq struct {
	Name          string   `json:"name" binding:"required"`
	DisplayName   string   `json:"displayName" binding:"required"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	SystemPrompt  string   `json:"systemPrompt" binding:"required"`
	Personality   string   `json:"personality"`
	Scenario      string   `json:"scenario"`
	CharacterNote string   `json:"characterNote"`
	Expertise     []string `json:"expertise"`
	Tags          []string `json:"tags"`
}

func (r createRoleReq) draft() domainrole.Draft {
	return domainrole.Draft{
		Name:          r.Name,
		DisplayName:   r.DisplayName,
		Description:   r.Description,
		Category:      domainrole.Category(r.Category),
		SystemPrompt:  r.SystemPrompt,
		Personality:   r.Personality,
		Scenario:      r.Scenario,
		CharacterNote: r.CharacterNote,
		Expertise:     r.Expertise,
		Tags:          r.Tags,
	}
}

func listRoles(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := svc.ListRoles(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if roles == nil {
			roles = []domainrole.Role{}
		}
		c.JSON(http.StatusOK, roles)
	}
}

func createRole(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoleReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		r, err := svc.CreateRole(c.Request.Context(), req.draft())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func getRole(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok, err := svc.GetRole(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// updateRole takes the full role document; the path id wins over the body.
func updateRole(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r domainrole.Role
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		r.ID = c.Param("id")

		updated, err := svc.UpdateRole(c.Request.Context(), r)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func deleteRole(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainrole.ErrAbandoned),
		errors.Is(err, domainrole.ErrInvalidRole),
		errors.Is(err, domainrole.ErrInvalidEnvelope):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
