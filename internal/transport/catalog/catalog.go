package catalog

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogsvc "github.com/alanyang/role-master/internal/service/catalog"
)

func Register(rg *gin.RouterGroup, p *catalogsvc.Projection) {
	rg.GET("", getTree(p))
	rg.PUT("/query", setQuery(p))
	rg.POST("/grouping", toggleGrouping(p))
}

type treeResp struct {
	Query      string            `json:"query"`
	Grouped    bool              `json:"grouped"`
	Generation uint64            `json:"generation"`
	Nodes      []catalogsvc.Node `json:"nodes"`
}

// getTree serves the live tree. ?q= and ?grouped= compute a one-off tree
// without changing the live search state.
func getTree(p *catalogsvc.Projection) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, hasQuery := c.GetQuery("q")
		groupedStr, hasGrouped := c.GetQuery("grouped")

		resp := treeResp{Query: p.Query(), Grouped: p.Grouped(), Generation: p.Generation()}
		if hasQuery {
			resp.Query = query
		}
		if hasGrouped {
			g, err := strconv.ParseBool(groupedStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grouped"})
				return
			}
			resp.Grouped = g
		}

		nodes, err := p.TreeFor(c.Request.Context(), resp.Query, resp.Grouped)
		resp.Nodes = nodes
		if err != nil {
			// The error leaf is still rendered.
			c.JSON(http.StatusInternalServerError, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// An empty body clears the query.
type setQueryReq struct {
	Q string `json:"q"`
}

func setQuery(p *catalogsvc.Projection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setQueryReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p.SetQuery(req.Q)
		c.JSON(http.StatusOK, gin.H{"query": p.Query(), "generation": p.Generation()})
	}
}

func toggleGrouping(p *catalogsvc.Projection) gin.HandlerFunc {
	return func(c *gin.Context) {
		grouped := p.ToggleGrouping()
		c.JSON(http.StatusOK, gin.H{"grouped": grouped, "generation": p.Generation()})
	}
}
