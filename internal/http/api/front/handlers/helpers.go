package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/catalog"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/validate"
)

// getUserID returns the authenticated user id, or 0.
func getUserID(c *gin.Context) uint64 {
	return middleware.UserID(c)
}

// parseID reads a positive numeric path parameter, answering 400 when invalid.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, body any) bool {
	if errBind := c.ShouldBindJSON(body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validate.Message(errBind)})
		return false
	}
	return true
}

// pageParams reads page and limit, bounded by catalog.NormalizePage.
func pageParams(c *gin.Context, fallback int) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	return catalog.NormalizePage(page, limit, fallback)
}

// cleanTags trims, drops empties and duplicates.
func cleanTags(tags []string, sanitizeFn func(string) string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(sanitizeFn(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
