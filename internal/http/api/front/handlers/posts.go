package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/sanitize"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// excerptLength is the rune count of generated post excerpts.
const excerptLength = 150

// PostHandler serves the community forum.
type PostHandler struct {
	db *gorm.DB
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "avatar_url")
}

// List returns posts filtered by tag and q, sorted latest, popular or views.
func (h *PostHandler) List(c *gin.Context) {
	page, limit := pageParams(c, internalsettings.PageSize(internalsettings.PostsPageSizeKey, internalsettings.DefaultPostsPageSize))
	tag := strings.TrimSpace(c.Query("tag"))
	term := strings.TrimSpace(c.Query("q"))

	filtered := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
		if tag != "" {
			q = q.Where(dbutil.JSONArrayContainsExpr(h.db, "tags"), dbutil.JSONArrayContainsValue(h.db, tag))
		}
		if term != "" {
			pattern := dbutil.ContainsPattern(h.db, term)
			q = q.Where("("+dbutil.CaseInsensitiveLikeExpr(h.db, "title")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "content")+")", pattern, pattern)
		}
		return q
	}

	order := "created_at DESC, id DESC"
	switch strings.TrimSpace(c.Query("sort")) {
	case "popular":
		order = "likes DESC, created_at DESC, id DESC"
	case "views":
		order = "views DESC, created_at DESC, id DESC"
	}

	var total int64
	if errCount := filtered().Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list posts failed"})
		return
	}
	var rows []models.Post
	if errFind := filtered().
		Preload("User", selectAuthor).
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list posts failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.Post(&rows[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out, "total": total, "page": page, "limit": limit})
}

// Get returns one post and counts the view.
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	post, errLoad := h.load(c, id)
	if errLoad != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.Post(post, true))
}

// createPostRequest defines the request body for new posts.
type createPostRequest struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Content string   `json:"content" binding:"required,min=10,max=10000"`
	Excerpt string   `json:"excerpt" binding:"max=500"`
	Tags    []string `json:"tags" binding:"max=10,dive,max=30"`
}

// Create publishes a post for the current user.
func (h *PostHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body createPostRequest
	if !bindJSON(c, &body) {
		return
	}
	title := sanitize.Text(body.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	content := sanitize.HTML(body.Content)
	if sanitize.Text(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: content,
		Excerpt: postExcerpt(body.Excerpt, content),
		Tags:    datatypes.NewJSONSlice(cleanTags(body.Tags, sanitize.Text)),
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&post).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create post failed"})
		return
	}
	created, errLoad := h.load(c, post.ID)
	if errLoad != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusCreated, render.Post(created, true))
}

// updatePostRequest defines the request body for post edits.
type updatePostRequest struct {
	Title   *string   `json:"title" binding:"omitempty,max=200"`
	Content *string   `json:"content" binding:"omitempty,min=10,max=10000"`
	Excerpt *string   `json:"excerpt" binding:"omitempty,max=500"`
	Tags    *[]string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

// Update edits a post owned by the current user. Admins may edit any post.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body updatePostRequest
	if !bindJSON(c, &body) {
		return
	}
	post, ok := h.owned(c, id)
	if !ok {
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Title != nil {
		title := sanitize.Text(*body.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}
		updates["title"] = title
	}
	content := post.Content
	if body.Content != nil {
		content = sanitize.HTML(*body.Content)
		if sanitize.Text(content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		updates["content"] = content
	}
	if body.Excerpt != nil {
		updates["excerpt"] = postExcerpt(*body.Excerpt, content)
	} else if body.Content != nil {
		updates["excerpt"] = postExcerpt("", content)
	}
	if body.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(cleanTags(*body.Tags, sanitize.Text))
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Post{}).
		Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	updated, errLoad := h.load(c, id)
	if errLoad != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.Post(updated, true))
}

// Delete removes a post owned by the current user. Admins may delete any post.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok = h.owned(c, id); !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Post{}, id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Like increments the like counter and returns the new value.
func (h *PostHandler) Like(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var likes int64
	if errPluck := h.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Pluck("likes", &likes).Error; errPluck != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "likes": likes})
}

func (h *PostHandler) load(c *gin.Context, id uint64) (*models.Post, error) {
	var post models.Post
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("User", selectAuthor).
		First(&post, id).Error; errFind != nil {
		return nil, errFind
	}
	return &post, nil
}

// owned loads a post and checks that the caller may modify it.
func (h *PostHandler) owned(c *gin.Context, id uint64) (*models.Post, bool) {
	var post models.Post
	if errFind := h.db.WithContext(c.Request.Context()).First(&post, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if post.UserID != getUserID(c) && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &post, true
}

func postExcerpt(excerpt, content string) string {
	if cleaned := sanitize.Text(excerpt); cleaned != "" {
		return cleaned
	}
	return sanitize.Excerpt(sanitize.Text(content), excerptLength)
}
