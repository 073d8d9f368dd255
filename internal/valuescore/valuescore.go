// Package valuescore derives the comparison value score of an AI model from
// its feature count, popularity and pricing.
package valuescore

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vanillai/vanillai/internal/pricing"
)

// Sub-score weights.
var (
	WeightFeaturesCount = decimal.RequireFromString("0.3")
	WeightPopularity    = decimal.RequireFromString("0.3")
	WeightPricingScore  = decimal.RequireFromString("0.4")
)

const (
	// MaxScore caps the final value score.
	MaxScore = 10
	// featureSaturation is the feature count that earns the full feature sub-score.
	featureSaturation = 5
	defaultPricing    = 5
)

var (
	maxScore = decimal.NewFromInt(MaxScore)
	ten      = decimal.NewFromInt(10)
)

// Input carries the model fields the score depends on.
// Details is nil when the model has no structured pricing.
type Input struct {
	Features   []string
	Popularity int
	Pricing    string
	Details    *pricing.Details
}

// Breakdown exposes the sub-scores next to the final score.
type Breakdown struct {
	Features   float64 `json:"features"`
	Popularity float64 `json:"popularity"`
	Pricing    float64 `json:"pricing"`
	Score      float64 `json:"value_score"`
}

// Calculate returns the value score in [0, 10], rounded to one decimal.
func Calculate(in Input) float64 {
	return Compute(in).Score
}

// Compute returns the value score together with its sub-scores.
func Compute(in Input) Breakdown {
	features := featureScore(len(in.Features))
	popularity := decimal.NewFromInt(int64(in.Popularity)).Div(ten)
	pricingSub := pricingScore(in.Pricing, in.Details)

	weighted := features.Mul(WeightFeaturesCount).
		Add(popularity.Mul(WeightPopularity)).
		Add(pricingSub.Mul(WeightPricingScore))

	score := weighted.Round(1)
	if score.GreaterThan(maxScore) {
		score = maxScore
	}
	if score.IsNegative() {
		score = decimal.Zero
	}

	return Breakdown{
		Features:   features.InexactFloat64(),
		Popularity: popularity.InexactFloat64(),
		Pricing:    pricingSub.InexactFloat64(),
		Score:      score.InexactFloat64(),
	}
}

// PricingScore maps pricing to an affordability sub-score.
// Bonuses may push the result above 10.
func PricingScore(text string, details *pricing.Details) float64 {
	return pricingScore(text, details).InexactFloat64()
}

func featureScore(count int) decimal.Decimal {
	if count >= featureSaturation {
		return ten
	}
	return decimal.NewFromInt(int64(count)).Mul(ten).Div(decimal.NewFromInt(featureSaturation))
}

func pricingScore(text string, details *pricing.Details) decimal.Decimal {
	if details == nil {
		return decimal.NewFromInt(keywordScore(text))
	}

	score := decimal.NewFromInt(defaultPricing)
	switch details.PricingType {
	case pricing.TypeFree:
		score = decimal.NewFromInt(10)
	case pricing.TypeSubscription:
		if price, ok := cheapestTier(details.Tiers); ok {
			score = decimal.NewFromInt(subscriptionScore(price))
		}
	case pricing.TypeUsageBased:
		if price, ok := inputTokenPrice(details.TokenPrices); ok {
			score = decimal.NewFromInt(tokenScore(price))
		} else if mean, ok := meanImagePrice(details.ImagePrices); ok {
			score = decimal.NewFromInt(imageScore(mean))
		}
	}

	if details.FreeTier != nil && details.FreeTier.Available {
		score = score.Add(decimal.NewFromInt(2))
	}

	if size, ok := defined(contextSize(details.ContextWindow)); ok {
		if size >= 100000 {
			score = score.Add(decimal.NewFromInt(1))
		}
		if size >= 200000 {
			score = score.Add(decimal.RequireFromString("0.5"))
		}
	}
	return score
}

// keywordScore scores free-text pricing. First match wins.
func keywordScore(text string) int64 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "무료") || strings.Contains(lower, "free"):
		return 10
	case strings.Contains(lower, "구독") || strings.Contains(lower, "subscription"):
		return 6
	case strings.Contains(lower, "api") || strings.Contains(lower, "사용량"):
		return 5
	case strings.Contains(lower, "enterprise") || strings.Contains(lower, "기업"):
		return 3
	default:
		return defaultPricing
	}
}

// cheapestTier returns the lowest defined tier price, keeping the first on ties.
func cheapestTier(tiers []pricing.Tier) (float64, bool) {
	var (
		minPrice float64
		found    bool
	)
	for _, tier := range tiers {
		price, ok := defined(tier.Price)
		if !ok {
			continue
		}
		if !found || price < minPrice {
			minPrice = price
			found = true
		}
	}
	return minPrice, found
}

func subscriptionScore(price float64) int64 {
	switch {
	case price <= 10:
		return 8
	case price <= 30:
		return 6
	case price <= 60:
		return 4
	default:
		return 3
	}
}

func inputTokenPrice(tp *pricing.TokenPrices) (float64, bool) {
	if tp == nil || tp.Input == nil {
		return 0, false
	}
	return defined(tp.Input.Price)
}

func tokenScore(price float64) int64 {
	switch {
	case price < 1:
		return 9
	case price < 5:
		return 7
	case price < 10:
		return 5
	case price < 20:
		return 4
	default:
		return 3
	}
}

// meanImagePrice averages the priced image variants in key order.
func meanImagePrice(prices map[string]pricing.ImagePrice) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	keys := make([]string, 0, len(prices))
	for key := range prices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sum := decimal.Zero
	count := 0
	for _, key := range keys {
		price := prices[key].Price
		if price == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*price))
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum.Div(decimal.NewFromInt(int64(count))).InexactFloat64(), true
}

func imageScore(mean float64) int64 {
	switch {
	case mean < 0.05:
		return 8
	case mean < 0.1:
		return 6
	default:
		return 4
	}
}

func contextSize(cw *pricing.ContextWindow) *float64 {
	if cw == nil {
		return nil
	}
	return cw.Size
}

// defined reports a usable number: present and non-zero.
func defined(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}
