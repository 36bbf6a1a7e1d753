package role

import (
	"net/http"

	"github.com/gin-gonic/gin"

	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

func RegisterCurrent(rg *gin.RouterGroup, svc *rolesvc.Service) {
	rg.GET("", getCurrent(svc))
	rg.PUT("", setCurrent(svc))
	rg.DELETE("", clearCurrent(svc))
	rg.GET("/prompt", currentPrompt(svc))
	rg.POST("/sync", syncCurrent(svc))
}

type setCurrentReq struct {
	RoleID string `json:"roleId" binding:"required"`
}

func getCurrent(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok, err := svc.GetCurrentRole(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no current role"})
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func setCurrent(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setCurrentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.SetCurrentRole(c.Request.Context(), req.RoleID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roleId": req.RoleID, "sync": result})
	}
}

func clearCurrent(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.SetCurrentRole(c.Request.Context(), "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roleId": "", "sync": result})
	}
}

func currentPrompt(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, ok, err := svc.CurrentRolePrompt(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no current role"})
			return
		}
		c.String(http.StatusOK, prompt)
	}
}

func syncCurrent(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.SyncCurrent(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sync": result})
	}
}
