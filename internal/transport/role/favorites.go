package role

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

func RegisterFavorites(rg *gin.RouterGroup, svc *rolesvc.Service) {
	rg.GET("", listFavorites(svc))
	rg.PUT("/:id", addFavorite(svc))
	rg.DELETE("/:id", removeFavorite(svc))
	rg.POST("/:id/toggle", toggleFavorite(svc))
}

func listFavorites(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := svc.ListFavorites(c.Request.Context())
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

func addFavorite(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.AddToFavorites(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeFavorite(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveFromFavorites(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func toggleFavorite(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fav, err := svc.ToggleFavorite(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorite": fav})
	}
}
