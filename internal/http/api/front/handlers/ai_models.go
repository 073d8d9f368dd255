package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/catalog"
	"github.com/vanillai/vanillai/internal/http/api/render"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
)

// AIModelHandler serves the public model catalog.
type AIModelHandler struct {
	catalog *catalog.Service
}

// NewAIModelHandler constructs an AIModelHandler.
func NewAIModelHandler(svc *catalog.Service) *AIModelHandler {
	return &AIModelHandler{catalog: svc}
}

// List returns a filtered page of models.
func (h *AIModelHandler) List(c *gin.Context) {
	page, limit := pageParams(c, internalsettings.PageSize(internalsettings.ModelsPageSizeKey, internalsettings.DefaultModelsPageSize))
	result, errList := h.catalog.List(c.Request.Context(), catalog.Query{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     page,
		Limit:    limit,
	})
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list models failed"})
		return
	}
	out := make([]gin.H, 0, len(result.Items))
	for i := range result.Items {
		out = append(out, render.Model(&result.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"models": out,
		"total":  result.Total,
		"page":   result.Page,
		"limit":  result.Limit,
	})
}

// Get returns a model with its details and value score.
func (h *AIModelHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	model, errGet := h.catalog.Get(ctx, id)
	if errGet != nil {
		writeCatalogError(c, errGet)
		return
	}
	detail, errDetail := h.catalog.Details(ctx, id)
	if errDetail != nil && !errors.Is(errDetail, catalog.ErrDetailsNotFound) {
		writeCatalogError(c, errDetail)
		return
	}
	c.JSON(http.StatusOK, render.Scored(catalog.Score(*model, detail)))
}

// Details returns the extended description of a model.
func (h *AIModelHandler) Details(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, errDetail := h.catalog.Details(c.Request.Context(), id)
	if errDetail != nil {
		writeCatalogError(c, errDetail)
		return
	}
	c.JSON(http.StatusOK, render.Detail(detail))
}

// Categories lists the distinct model categories.
func (h *AIModelHandler) Categories(c *gin.Context) {
	categories, errList := h.catalog.Categories(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list categories failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Compare scores 2 to 4 models given as ids=1,2,3.
func (h *AIModelHandler) Compare(c *gin.Context) {
	ids, errIDs := parseIDList(c.Query("ids"))
	if errIDs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ids"})
		return
	}
	scored, errCompare := h.catalog.Compare(c.Request.Context(), ids, c.Query("sort"), c.Query("order"))
	if errCompare != nil {
		writeCatalogError(c, errCompare)
		return
	}
	out := make([]gin.H, 0, len(scored))
	for _, item := range scored {
		out = append(out, render.Scored(item))
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

func parseIDList(raw string) ([]uint64, error) {
	var ids []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, errParse := strconv.ParseUint(part, 10, 64)
		if errParse != nil {
			return nil, errParse
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrCompareCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrModelNotFound), errors.Is(err, catalog.ErrDetailsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
	}
}
