package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Pricing type tags stored in pricing_details.
const (
	TypeFree         = "free"
	TypeSubscription = "subscription"
	TypeUsageBased   = "usage_based"
)

// ErrInvalidPricingType is returned when pricing_type is not a known tag.
var ErrInvalidPricingType = errors.New("pricing: invalid pricing_type")

// ErrNegativePrice is returned when a submitted price is below zero.
var ErrNegativePrice = errors.New("pricing: negative price")

// Details describes the structured pricing attached to a model.
// Numeric fields are pointers; nil means the field was absent or not a number.
type Details struct {
	PricingType       string                `json:"pricing_type,omitempty"`
	Tiers             []Tier                `json:"tiers,omitempty"`
	TokenPrices       *TokenPrices          `json:"token_prices,omitempty"`
	ImagePrices       map[string]ImagePrice `json:"image_prices,omitempty"`
	FreeTier          *FreeTier             `json:"free_tier,omitempty"`
	ContextWindow     *ContextWindow        `json:"context_window,omitempty"`
	EnterpriseOptions *EnterpriseOptions    `json:"enterprise_options,omitempty"`
	PricingSummary    string                `json:"pricing_summary,omitempty"`
	AdditionalInfo    string                `json:"additional_info,omitempty"`
}

// Tier is one subscription level.
type Tier struct {
	Name        string   `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Formatted   string   `json:"formatted,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// TokenPrices holds per-million-token prices.
type TokenPrices struct {
	Input  *TokenPrice `json:"input,omitempty"`
	Output *TokenPrice `json:"output,omitempty"`
}

// TokenPrice is a single token price entry.
type TokenPrice struct {
	Price     *float64 `json:"price,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Formatted string   `json:"formatted,omitempty"`
}

// ImagePrice is the cost of one generated image for a variant.
type ImagePrice struct {
	Price      *float64 `json:"price,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Formatted  string   `json:"formatted,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
}

// FreeTier describes a free usage allowance.
type FreeTier struct {
	Available   bool   `json:"available"`
	Description string `json:"description,omitempty"`
	Limits      string `json:"limits,omitempty"`
}

// ContextWindow describes the model context size in tokens.
type ContextWindow struct {
	Size      *float64 `json:"size,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Formatted string   `json:"formatted,omitempty"`
}

// EnterpriseOptions describes enterprise contracting options.
type EnterpriseOptions struct {
	Available   bool   `json:"available"`
	Description string `json:"description,omitempty"`
	ContactURL  string `json:"contact_url,omitempty"`
}

// Decode reads stored pricing_details leniently.
// It returns ok=false when the payload is empty, null, invalid JSON or not an object.
// Fields with unexpected types are treated as absent.
func Decode(raw []byte) (*Details, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, false
	}

	d := &Details{
		PricingType:    stringOf(root.Get("pricing_type")),
		PricingSummary: stringOf(root.Get("pricing_summary")),
		AdditionalInfo: stringOf(root.Get("additional_info")),
	}

	if tiers := root.Get("tiers"); tiers.IsArray() {
		tiers.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				d.Tiers = append(d.Tiers, Tier{})
				return true
			}
			d.Tiers = append(d.Tiers, Tier{
				Name:        stringOf(item.Get("name")),
				Price:       numberOf(item.Get("price")),
				Unit:        stringOf(item.Get("unit")),
				Formatted:   stringOf(item.Get("formatted")),
				Description: stringOf(item.Get("description")),
				Features:    stringsOf(item.Get("features")),
			})
			return true
		})
	}

	if tp := root.Get("token_prices"); tp.IsObject() {
		d.TokenPrices = &TokenPrices{
			Input:  tokenPriceOf(tp.Get("input")),
			Output: tokenPriceOf(tp.Get("output")),
		}
	}

	if ip := root.Get("image_prices"); ip.IsObject() {
		d.ImagePrices = make(map[string]ImagePrice)
		ip.ForEach(func(key, item gjson.Result) bool {
			entry := ImagePrice{}
			if item.IsObject() {
				entry.Price = numberOf(item.Get("price"))
				entry.Unit = stringOf(item.Get("unit"))
				entry.Formatted = stringOf(item.Get("formatted"))
				entry.Resolution = stringOf(item.Get("resolution"))
			}
			d.ImagePrices[key.String()] = entry
			return true
		})
	}

	if ft := root.Get("free_tier"); ft.IsObject() {
		d.FreeTier = &FreeTier{
			Available:   truthy(ft.Get("available")),
			Description: stringOf(ft.Get("description")),
			Limits:      stringOf(ft.Get("limits")),
		}
	}

	if cw := root.Get("context_window"); cw.IsObject() {
		d.ContextWindow = &ContextWindow{
			Size:      numberOf(cw.Get("size")),
			Unit:      stringOf(cw.Get("unit")),
			Formatted: stringOf(cw.Get("formatted")),
		}
	}

	if eo := root.Get("enterprise_options"); eo.IsObject() {
		d.EnterpriseOptions = &EnterpriseOptions{
			Available:   truthy(eo.Get("available")),
			Description: stringOf(eo.Get("description")),
			ContactURL:  stringOf(eo.Get("contact_url")),
		}
	}

	return d, true
}

// Validate checks an admin-submitted pricing record before storage.
func Validate(d *Details) error {
	if d == nil {
		return nil
	}
	switch strings.TrimSpace(d.PricingType) {
	case "", TypeFree, TypeSubscription, TypeUsageBased:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPricingType, d.PricingType)
	}
	for i, tier := range d.Tiers {
		if negative(tier.Price) {
			return fmt.Errorf("%w: tiers[%d]", ErrNegativePrice, i)
		}
	}
	if d.TokenPrices != nil {
		if d.TokenPrices.Input != nil && negative(d.TokenPrices.Input.Price) {
			return fmt.Errorf("%w: token_prices.input", ErrNegativePrice)
		}
		if d.TokenPrices.Output != nil && negative(d.TokenPrices.Output.Price) {
			return fmt.Errorf("%w: token_prices.output", ErrNegativePrice)
		}
	}
	for name, entry := range d.ImagePrices {
		if negative(entry.Price) {
			return fmt.Errorf("%w: image_prices.%s", ErrNegativePrice, name)
		}
	}
	if d.ContextWindow != nil && negative(d.ContextWindow.Size) {
		return fmt.Errorf("%w: context_window", ErrNegativePrice)
	}
	return nil
}

// Encode marshals the details for storage.
func Encode(d *Details) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	payload, errMarshal := json.Marshal(d)
	if errMarshal != nil {
		return nil, fmt.Errorf("pricing: encode: %w", errMarshal)
	}
	return payload, nil
}

func tokenPriceOf(res gjson.Result) *TokenPrice {
	if !res.IsObject() {
		return nil
	}
	return &TokenPrice{
		Price:     numberOf(res.Get("price")),
		Unit:      stringOf(res.Get("unit")),
		Formatted: stringOf(res.Get("formatted")),
	}
}

func numberOf(res gjson.Result) *float64 {
	if res.Type != gjson.Number {
		return nil
	}
	v := res.Float()
	return &v
}

func stringOf(res gjson.Result) string {
	if res.Type != gjson.String {
		return ""
	}
	return res.String()
}

func stringsOf(res gjson.Result) []string {
	if !res.IsArray() {
		return nil
	}
	var out []string
	for _, item := range res.Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}

// truthy follows loose boolean semantics: true, non-zero numbers, non-empty strings and objects.
func truthy(res gjson.Result) bool {
	switch res.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return res.Float() != 0
	case gjson.String:
		return res.String() != ""
	case gjson.JSON:
		return true
	default:
		return false
	}
}

func negative(v *float64) bool {
	return v != nil && *v < 0
}
