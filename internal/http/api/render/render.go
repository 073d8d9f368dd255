// Package render formats stored entities into API response JSON.
package render

import (
	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/catalog"
	"github.com/vanillai/vanillai/internal/models"
)

// Model formats a catalog entry.
func Model(m *models.AIModel) gin.H {
	return gin.H{
		"id":           m.ID,
		"name":         m.Name,
		"category":     m.Category,
		"company":      m.Company,
		"pricing":      m.Pricing,
		"features":     Strings(m.Features),
		"popularity":   m.Popularity,
		"release_date": m.ReleaseDate,
		"description":  m.Description,
		"image_url":    m.ImageURL,
		"created_at":   m.CreatedAt,
		"updated_at":   m.UpdatedAt,
	}
}

// Detail formats a model detail row. Missing pricing renders as null.
func Detail(d *models.AIModelDetail) gin.H {
	var pricingDetails any
	if len(d.PricingDetails) > 0 {
		pricingDetails = d.PricingDetails
	}
	return gin.H{
		"model_id":              d.ModelID,
		"overview":              d.Overview,
		"use_cases":             Strings(d.UseCases),
		"strengths":             Strings(d.Strengths),
		"limitations":           Strings(d.Limitations),
		"example_prompts":       Strings(d.ExamplePrompts),
		"pricing_details":       pricingDetails,
		"api_documentation_url": d.APIDocURL,
		"updated_at":            d.UpdatedAt,
	}
}

// Scored formats a model with its details and value score.
func Scored(s catalog.Scored) gin.H {
	out := Model(&s.Model)
	out["value_score"] = s.Breakdown.Score
	out["score_breakdown"] = gin.H{
		"features":   s.Breakdown.Features,
		"popularity": s.Breakdown.Popularity,
		"pricing":    s.Breakdown.Pricing,
	}
	out["details"] = nil
	if s.Detail != nil {
		out["details"] = Detail(s.Detail)
	}
	return out
}

// News formats an article. The body is omitted from listings.
func News(n *models.News, withContent bool) gin.H {
	out := gin.H{
		"id":             n.ID,
		"title":          n.Title,
		"excerpt":        n.Excerpt,
		"source":         n.Source,
		"image_url":      n.ImageURL,
		"published_date": n.PublishedDate,
		"tags":           Strings(n.Tags),
		"created_at":     n.CreatedAt,
		"updated_at":     n.UpdatedAt,
	}
	if withContent {
		out["content"] = n.Content
	}
	return out
}

// Author formats the public part of a user.
func Author(u *models.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"avatar_url": u.AvatarURL,
	}
}

// Post formats a community thread. The body is omitted from listings.
func Post(p *models.Post, withContent bool) gin.H {
	out := gin.H{
		"id":            p.ID,
		"title":         p.Title,
		"excerpt":       p.Excerpt,
		"tags":          Strings(p.Tags),
		"views":         p.Views,
		"likes":         p.Likes,
		"comment_count": p.CommentCount,
		"author":        Author(p.User),
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
	if withContent {
		out["content"] = p.Content
	}
	return out
}

// Comment formats a reply.
func Comment(cm *models.Comment) gin.H {
	return gin.H{
		"id":         cm.ID,
		"post_id":    cm.PostID,
		"content":    cm.Content,
		"author":     Author(cm.User),
		"created_at": cm.CreatedAt,
		"updated_at": cm.UpdatedAt,
	}
}

// User formats an account for its owner and for admins.
func User(u *models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"role":         u.Role,
		"avatar_url":   u.AvatarURL,
		"rate_limit":   u.RateLimit,
		"disabled":     u.Disabled,
		"totp_enabled": u.TOTPSecret != "",
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}

// Strings returns values or an empty slice so JSON never renders null.
func Strings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
