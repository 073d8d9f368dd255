// Package catalog serves AI-model listings and comparisons.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/pricing"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"github.com/vanillai/vanillai/internal/valuescore"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Comparison bounds.
const (
	MinCompare = 2
	MaxCompare = 4
)

// Sort keys.
const (
	SortPopularity = "popularity"
	SortDate       = "date"
	SortName       = "name"
	SortCompany    = "company"
	SortValueScore = "valueScore"
)

var (
	// ErrModelNotFound is returned when a requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
	// ErrDetailsNotFound is returned when a model has no detail record.
	ErrDetailsNotFound = errors.New("model details not found")
	// ErrCompareCount is returned when a comparison has too few or too many models.
	ErrCompareCount = fmt.Errorf("compare requires %d to %d models", MinCompare, MaxCompare)
)

// Query filters and orders a model listing.
type Query struct {
	Q        string
	Category string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// Page is one page of models.
type Page struct {
	Items []models.AIModel
	Total int64
	Page  int
	Limit int
}

// Scored is a model with its details and value score.
type Scored struct {
	Model     models.AIModel
	Detail    *models.AIModelDetail
	Pricing   *pricing.Details
	Breakdown valuescore.Breakdown
}

// Service reads the model catalog.
type Service struct {
	db *gorm.DB
}

// NewService constructs a catalog Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns a filtered, sorted page of models.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	page, limit := NormalizePage(q.Page, q.Limit, internalsettings.PageSize(internalsettings.ModelsPageSizeKey, internalsettings.DefaultModelsPageSize))

	filtered := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.AIModel{})
		if term := strings.TrimSpace(q.Q); term != "" {
			pattern := db.ContainsPattern(s.db, term)
			query = query.Where(
				"("+db.CaseInsensitiveLikeExpr(s.db, "name")+" OR "+db.CaseInsensitiveLikeExpr(s.db, "company")+")",
				pattern, pattern,
			)
		}
		if category := strings.TrimSpace(q.Category); category != "" && !strings.EqualFold(category, "all") {
			query = query.Where("category = ?", category)
		}
		return query
	}

	var total int64
	if errCount := filtered().Count(&total).Error; errCount != nil {
		return Page{}, fmt.Errorf("catalog: count models: %w", errCount)
	}

	var items []models.AIModel
	if errFind := filtered().
		Order(orderClause(q.Sort, q.Order)).
		Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; errFind != nil {
		return Page{}, fmt.Errorf("catalog: list models: %w", errFind)
	}
	return Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get loads a single model.
func (s *Service) Get(ctx context.Context, id uint64) (*models.AIModel, error) {
	var model models.AIModel
	if errFind := s.db.WithContext(ctx).First(&model, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("catalog: get model: %w", errFind)
	}
	return &model, nil
}

// Details loads the detail record of a model.
func (s *Service) Details(ctx context.Context, id uint64) (*models.AIModelDetail, error) {
	if _, errGet := s.Get(ctx, id); errGet != nil {
		return nil, errGet
	}
	var detail models.AIModelDetail
	if errFind := s.db.WithContext(ctx).Where("model_id = ?", id).First(&detail).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrDetailsNotFound
		}
		return nil, fmt.Errorf("catalog: get details: %w", errFind)
	}
	return &detail, nil
}

// Categories returns the distinct categories in name order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if errPluck := s.db.WithContext(ctx).
		Model(&models.AIModel{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; errPluck != nil {
		return nil, fmt.Errorf("catalog: categories: %w", errPluck)
	}
	return categories, nil
}

// Compare scores the requested models and orders them.
// Duplicate ids are collapsed; the result keeps between MinCompare and MaxCompare models.
func (s *Service) Compare(ctx context.Context, ids []uint64, sortBy, order string) ([]Scored, error) {
	unique := dedupe(ids)
	if len(unique) < MinCompare || len(unique) > MaxCompare {
		return nil, ErrCompareCount
	}

	var rows []models.AIModel
	if errFind := s.db.WithContext(ctx).Where("id IN ?", unique).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("catalog: compare models: %w", errFind)
	}
	byID := make(map[uint64]models.AIModel, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrModelNotFound, id)
		}
	}

	var details []models.AIModelDetail
	if errFind := s.db.WithContext(ctx).Where("model_id IN ?", unique).Find(&details).Error; errFind != nil {
		return nil, fmt.Errorf("catalog: compare details: %w", errFind)
	}
	detailByModel := make(map[uint64]*models.AIModelDetail, len(details))
	for i := range details {
		detailByModel[details[i].ModelID] = &details[i]
	}

	out := make([]Scored, 0, len(unique))
	for _, id := range unique {
		out = append(out, Score(byID[id], detailByModel[id]))
	}
	SortScored(out, sortBy, order)
	return out, nil
}

// Score computes the value score of a model with optional details.
func Score(model models.AIModel, detail *models.AIModelDetail) Scored {
	var details *pricing.Details
	if detail != nil {
		if decoded, ok := pricing.Decode(detail.PricingDetails); ok {
			details = decoded
		}
	}
	return Scored{
		Model:   model,
		Detail:  detail,
		Pricing: details,
		Breakdown: valuescore.Compute(valuescore.Input{
			Features:   model.Features,
			Popularity: model.Popularity,
			Pricing:    model.Pricing,
			Details:    details,
		}),
	}
}

// SortScored orders compared models in place. Unknown keys sort by value score.
func SortScored(items []Scored, sortBy, order string) {
	asc := strings.EqualFold(strings.TrimSpace(order), "asc")
	var compare func(a, b Scored) int
	switch strings.TrimSpace(sortBy) {
	case SortName:
		col := collate.New(language.Korean, collate.IgnoreCase)
		compare = func(a, b Scored) int { return col.CompareString(a.Model.Name, b.Model.Name) }
	case SortPopularity:
		compare = func(a, b Scored) int { return a.Model.Popularity - b.Model.Popularity }
	default:
		compare = func(a, b Scored) int {
			switch {
			case a.Breakdown.Score < b.Breakdown.Score:
				return -1
			case a.Breakdown.Score > b.Breakdown.Score:
				return 1
			default:
				return 0
			}
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		cmp := compare(items[i], items[j])
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
}

// NormalizePage clamps page to >= 1 and limit to 1..MaxPageSize.
func NormalizePage(page, limit, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = fallback
	}
	if limit > internalsettings.MaxPageSize {
		limit = internalsettings.MaxPageSize
	}
	return page, limit
}

func orderClause(sortBy, order string) string {
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(order), "asc") {
		direction = "ASC"
	}
	column := "popularity"
	switch strings.TrimSpace(sortBy) {
	case SortDate:
		column = "release_date"
	case SortName:
		column = "name"
	case SortCompany:
		column = "company"
	}
	return column + " " + direction
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
