package groupchat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
)

func Register(rg *gin.RouterGroup, svc *groupchatsvc.Service) {
	rg.GET("", getSession(svc))
	rg.POST("", startSession(svc))
	rg.DELETE("", stopSession(svc))
	rg.GET("/prompt", sessionPrompt(svc))
	rg.GET("/available", availableRoles(svc))
	rg.POST("/members", addMember(svc))
}

type startReq struct {
	RoleIDs []string `json:"roleIds" binding:"required"`
}

type addMemberReq struct {
	RoleID string `json:"roleId" binding:"required"`
}

func getSession(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := svc.Session(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

func startSession(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		prompt, err := svc.Start(c.Request.Context(), req.RoleIDs)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"prompt": prompt})
	}
}

func stopSession(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Stop(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func sessionPrompt(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, err := svc.Prompt(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompt": prompt})
	}
}

func availableRoles(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := svc.Available(c.Request.Context())
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

func addMember(svc *groupchatsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addMemberReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		prompt, err := svc.Add(c.Request.Context(), req.RoleID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompt": prompt})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, groupchatsvc.ErrNoRoles):
		return http.StatusBadRequest
	case errors.Is(err, groupchatsvc.ErrUnknownRole):
		return http.StatusNotFound
	case errors.Is(err, groupchatsvc.ErrNotActive), errors.Is(err, groupchatsvc.ErrAlreadyMember):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
