package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
)

// SiteHandler exposes public site settings.
type SiteHandler struct{}

// NewSiteHandler constructs a SiteHandler.
func NewSiteHandler() *SiteHandler {
	return &SiteHandler{}
}

// Info returns the site name and listing page sizes.
func (h *SiteHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_name":            internalsettings.SiteName(),
		"registration_enabled": internalsettings.RegistrationEnabled(),
		"page_sizes": gin.H{
			"models": internalsettings.PageSize(internalsettings.ModelsPageSizeKey, internalsettings.DefaultModelsPageSize),
			"news":   internalsettings.PageSize(internalsettings.NewsPageSizeKey, internalsettings.DefaultNewsPageSize),
			"posts":  internalsettings.PageSize(internalsettings.PostsPageSizeKey, internalsettings.DefaultPostsPageSize),
		},
	})
}
