package role

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

const maxImportBytes = 8 << 20

func RegisterTransfer(rg *gin.RouterGroup, svc *rolesvc.Service) {
	rg.POST("/import", importRoles(svc))
	rg.POST("/export", exportRoles(svc))
}

// wantsYAML picks YAML when ?format=yaml is given or the content type says so.
func wantsYAML(c *gin.Context, header string) bool {
	if f := c.Query("format"); f != "" {
		return f == "yaml" || f == "yml"
	}
	return strings.Contains(c.GetHeader(header), "yaml")
}

func importRoles(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		n, err := svc.ImportData(c.Request.Context(), data, wantsYAML(c, "Content-Type"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "imported": n})
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": n})
	}
}

type exportReq struct {
	RoleIDs []string `json:"roleIds" binding:"required,min=1"`
}

func exportRoles(svc *rolesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req exportReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		exp, err := svc.ExportRoles(c.Request.Context(), req.RoleIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(exp.Roles) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "没有可导出的角色"})
			return
		}

		asYAML := wantsYAML(c, "Accept")
		data, err := rolesvc.EncodeExport(exp, asYAML)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		contentType := "application/json; charset=utf-8"
		if asYAML {
			contentType = "application/yaml; charset=utf-8"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}
