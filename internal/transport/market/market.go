package market

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	marketsvc "github.com/alanyang/role-master/internal/service/market"
)

func Register(rg *gin.RouterGroup, svc *marketsvc.Service) {
	rg.GET("", listCatalog(svc))
	rg.POST("/presets", installPresets(svc))
	rg.POST("/:id/install", installRole(svc))
}

func listCatalog(svc *marketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.Catalog(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if entries == nil {
			entries = []marketsvc.Entry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

func installRole(svc *marketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := svc.InstallByID(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, marketsvc.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func installPresets(svc *marketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.InstallPresets(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "installed": n})
			return
		}
		c.JSON(http.StatusOK, gin.H{"installed": n})
	}
}
