package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/pricing"
	"github.com/vanillai/vanillai/internal/sanitize"
	"github.com/vanillai/vanillai/internal/security"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed.yaml
var defaultData []byte

// Dataset is the seed content shipped with the binary.
type Dataset struct {
	Models  []Model  `yaml:"models"`
	News    []News   `yaml:"news"`
	Authors []Author `yaml:"authors"`
	Posts   []Post   `yaml:"posts"`
}

// Model is a catalog entry with optional details.
type Model struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Company     string   `yaml:"company"`
	Pricing     string   `yaml:"pricing"`
	Features    []string `yaml:"features"`
	Popularity  int      `yaml:"popularity"`
	ReleaseDate string   `yaml:"release_date"`
	ImageURL    string   `yaml:"image_url"`
	Description string   `yaml:"description"`
	Details     *Details `yaml:"details"`
}

// Details mirrors models.AIModelDetail with raw pricing.
type Details struct {
	Overview       string         `yaml:"overview"`
	UseCases       []string       `yaml:"use_cases"`
	Strengths      []string       `yaml:"strengths"`
	Limitations    []string       `yaml:"limitations"`
	APIDocURL      string         `yaml:"api_documentation_url"`
	ExamplePrompts []string       `yaml:"example_prompts"`
	PricingDetails map[string]any `yaml:"pricing_details"`
}

// News is a seeded article.
type News struct {
	Title         string   `yaml:"title"`
	PublishedDate string   `yaml:"published_date"`
	Source        string   `yaml:"source"`
	ImageURL      string   `yaml:"image_url"`
	Excerpt       string   `yaml:"excerpt"`
	Content       string   `yaml:"content"`
	Tags          []string `yaml:"tags"`
}

// Author owns seeded community posts. Seeded authors get a random password.
type Author struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	AvatarURL string `yaml:"avatar_url"`
}

// Post is a seeded community thread.
type Post struct {
	Title   string   `yaml:"title"`
	Author  string   `yaml:"author"`
	Content string   `yaml:"content"`
	Excerpt string   `yaml:"excerpt"`
	Likes   int64    `yaml:"likes"`
	Views   int64    `yaml:"views"`
	Tags    []string `yaml:"tags"`
}

// Result counts the rows inserted by Apply.
type Result struct {
	Models  int `json:"models"`
	Details int `json:"details"`
	News    int `json:"news"`
	Authors int `json:"authors"`
	Posts   int `json:"posts"`
}

// PricingResult reports ApplyDefaultPricing for one model.
type PricingResult struct {
	ModelID uint64 `json:"model_id,omitempty"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

var errUnknownAuthor = errors.New("seed: unknown author")

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	return Parse(defaultData)
}

// Parse decodes and checks a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if errUnmarshal := yaml.Unmarshal(data, &ds); errUnmarshal != nil {
		return nil, fmt.Errorf("seed: parse: %w", errUnmarshal)
	}
	for _, m := range ds.Models {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("seed: parse: model without name")
		}
		raw, errRaw := m.pricingJSON()
		if errRaw != nil {
			return nil, errRaw
		}
		if raw == nil {
			continue
		}
		details, ok := pricing.Decode(raw)
		if !ok {
			return nil, fmt.Errorf("seed: parse: %s: pricing_details is not an object", m.Name)
		}
		if errValidate := pricing.Validate(details); errValidate != nil {
			return nil, fmt.Errorf("seed: parse: %s: %w", m.Name, errValidate)
		}
	}
	return &ds, nil
}

func (m Model) pricingJSON() (datatypes.JSON, error) {
	if m.Details == nil || len(m.Details.PricingDetails) == 0 {
		return nil, nil
	}
	raw, errMarshal := json.Marshal(m.Details.PricingDetails)
	if errMarshal != nil {
		return nil, fmt.Errorf("seed: %s: encode pricing: %w", m.Name, errMarshal)
	}
	return datatypes.JSON(raw), nil
}

// Run applies the embedded dataset.
func Run(ctx context.Context, db *gorm.DB) (Result, error) {
	ds, errLoad := Load()
	if errLoad != nil {
		return Result{}, errLoad
	}
	return Apply(ctx, db, ds)
}

// Apply inserts every dataset row whose natural key is missing.
func Apply(ctx context.Context, db *gorm.DB, ds *Dataset) (Result, error) {
	var res Result
	if db == nil {
		return res, fmt.Errorf("seed: nil db")
	}
	if ds == nil {
		return res, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	errTx := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range ds.Models {
			row := models.AIModel{
				Name:        m.Name,
				Category:    m.Category,
				Company:     m.Company,
				Pricing:     m.Pricing,
				Features:    datatypes.NewJSONSlice(nonNil(m.Features)),
				Popularity:  m.Popularity,
				ReleaseDate: m.ReleaseDate,
				Description: m.Description,
				ImageURL:    m.ImageURL,
			}
			created := tx.Where("name = ?", m.Name).Attrs(row).FirstOrCreate(&row)
			if created.Error != nil {
				return fmt.Errorf("seed: model %s: %w", m.Name, created.Error)
			}
			res.Models += int(created.RowsAffected)

			if m.Details == nil {
				continue
			}
			detail, errDetail := m.detailRow(row.ID)
			if errDetail != nil {
				return errDetail
			}
			inserted := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "model_id"}},
				DoNothing: true,
			}).Create(&detail)
			if inserted.Error != nil {
				return fmt.Errorf("seed: details %s: %w", m.Name, inserted.Error)
			}
			res.Details += int(inserted.RowsAffected)
		}

		for _, n := range ds.News {
			row := models.News{
				Title:         sanitize.Text(n.Title),
				Excerpt:       n.Excerpt,
				Content:       sanitize.HTML(n.Content),
				Source:        n.Source,
				ImageURL:      n.ImageURL,
				PublishedDate: n.PublishedDate,
				Tags:          datatypes.NewJSONSlice(nonNil(n.Tags)),
			}
			created := tx.Where("title = ?", row.Title).Attrs(row).FirstOrCreate(&row)
			if created.Error != nil {
				return fmt.Errorf("seed: news %s: %w", n.Title, created.Error)
			}
			res.News += int(created.RowsAffected)
		}

		authors := make(map[string]uint64, len(ds.Authors))
		for _, a := range ds.Authors {
			var user models.User
			errFind := tx.Where("username = ?", a.Username).First(&user).Error
			if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
				return fmt.Errorf("seed: author %s: %w", a.Username, errFind)
			}
			if errFind != nil {
				user, errFind = newAuthor(a)
				if errFind != nil {
					return errFind
				}
				if errCreate := tx.Create(&user).Error; errCreate != nil {
					return fmt.Errorf("seed: author %s: %w", a.Username, errCreate)
				}
				res.Authors++
			}
			authors[a.Username] = user.ID
		}

		for _, p := range ds.Posts {
			userID, ok := authors[p.Author]
			if !ok {
				return fmt.Errorf("%w: %s", errUnknownAuthor, p.Author)
			}
			content := sanitize.HTML(p.Content)
			excerpt := strings.TrimSpace(p.Excerpt)
			if excerpt == "" {
				excerpt = sanitize.Excerpt(sanitize.Text(content), 150)
			}
			row := models.Post{
				UserID:  userID,
				Title:   sanitize.Text(p.Title),
				Content: content,
				Excerpt: excerpt,
				Tags:    datatypes.NewJSONSlice(nonNil(p.Tags)),
				Views:   p.Views,
				Likes:   p.Likes,
			}
			created := tx.Where("title = ?", row.Title).Attrs(row).FirstOrCreate(&row)
			if created.Error != nil {
				return fmt.Errorf("seed: post %s: %w", p.Title, created.Error)
			}
			res.Posts += int(created.RowsAffected)
		}
		return nil
	})
	if errTx != nil {
		return Result{}, errTx
	}
	log.Infof("seed: inserted models=%d details=%d news=%d authors=%d posts=%d",
		res.Models, res.Details, res.News, res.Authors, res.Posts)
	return res, nil
}

// ApplyDefaultPricing rewrites pricing_details of every dataset model that
// ships pricing. Models missing from the database are reported, not created.
func ApplyDefaultPricing(ctx context.Context, db *gorm.DB, ds *Dataset) ([]PricingResult, error) {
	if db == nil {
		return nil, fmt.Errorf("seed: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ds == nil {
		loaded, errLoad := Load()
		if errLoad != nil {
			return nil, errLoad
		}
		ds = loaded
	}

	results := make([]PricingResult, 0, len(ds.Models))
	for _, m := range ds.Models {
		raw, errRaw := m.pricingJSON()
		if errRaw != nil {
			return nil, errRaw
		}
		if raw == nil {
			continue
		}
		result := PricingResult{Name: m.Name}

		var model models.AIModel
		errFind := db.WithContext(ctx).Select("id").Where("name = ?", m.Name).First(&model).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				result.Error = "model not found"
			} else {
				log.WithError(errFind).Warnf("seed: pricing lookup %s", m.Name)
				result.Error = "lookup failed"
			}
			results = append(results, result)
			continue
		}
		result.ModelID = model.ID

		detail, errDetail := m.detailRow(model.ID)
		if errDetail != nil {
			return nil, errDetail
		}
		errUpsert := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"pricing_details", "updated_at"}),
		}).Create(&detail).Error
		if errUpsert != nil {
			log.WithError(errUpsert).Warnf("seed: apply pricing %s", m.Name)
			result.Error = "update failed"
		} else {
			result.Success = true
		}
		results = append(results, result)
	}
	return results, nil
}

func (m Model) detailRow(modelID uint64) (models.AIModelDetail, error) {
	raw, errRaw := m.pricingJSON()
	if errRaw != nil {
		return models.AIModelDetail{}, errRaw
	}
	d := m.Details
	if d == nil {
		d = &Details{}
	}
	overview := strings.TrimSpace(d.Overview)
	if overview == "" {
		overview = fmt.Sprintf("%s는 %s에서 개발한 %s AI 모델입니다.", m.Name, m.Company, m.Category)
	}
	return models.AIModelDetail{
		ModelID:        modelID,
		Overview:       overview,
		UseCases:       datatypes.NewJSONSlice(nonNil(d.UseCases)),
		Strengths:      datatypes.NewJSONSlice(nonNil(d.Strengths)),
		Limitations:    datatypes.NewJSONSlice(nonNil(d.Limitations)),
		ExamplePrompts: datatypes.NewJSONSlice(nonNil(d.ExamplePrompts)),
		PricingDetails: raw,
		APIDocURL:      d.APIDocURL,
	}, nil
}

func newAuthor(a Author) (models.User, error) {
	secret, errSecret := security.GenerateRandomString(24)
	if errSecret != nil {
		return models.User{}, fmt.Errorf("seed: author %s: %w", a.Username, errSecret)
	}
	hash, errHash := security.HashPassword(secret)
	if errHash != nil {
		return models.User{}, fmt.Errorf("seed: author %s: %w", a.Username, errHash)
	}
	return models.User{
		Username:  a.Username,
		Email:     strings.ToLower(a.Email),
		Password:  hash,
		Role:      models.RoleUser,
		AvatarURL: a.AvatarURL,
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
