package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/catalog"
	"github.com/vanillai/vanillai/internal/validate"
)

func parseID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, body any) bool {
	if errBind := c.ShouldBindJSON(body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validate.Message(errBind)})
		return false
	}
	return true
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func queryID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Query(name)), 10, 64)
	return id, errParse == nil && id > 0
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	return catalog.NormalizePage(page, limit, moderationPageSize)
}
