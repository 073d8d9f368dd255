package valuescore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanillai/vanillai/internal/pricing"
)

func f(v float64) *float64 { return &v }

func features(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "feature"
	}
	return out
}

func TestPricingScoreFreeType(t *testing.T) {
	assert.Equal(t, 10.0, PricingScore("", &pricing.Details{PricingType: pricing.TypeFree}))
}

func TestPricingScoreKeywordFallback(t *testing.T) {
	cases := map[string]float64{
		"무료":                        10,
		"Free tier available":       10,
		"월 구독제":                     6,
		"Subscription only":         6,
		"API 사용량 기반":                5,
		"Enterprise contract":       3,
		"기업용 문의":                    3,
		"$20/month":                 5,
		"":                          5,
		"무료/구독제":                    10,
		"구독제 (API 별도)":              6,
		"USAGE via API, enterprise": 5,
	}
	for text, want := range cases {
		assert.Equal(t, want, PricingScore(text, nil), text)
	}
}

func TestPricingScoreSubscriptionPicksCheapestTier(t *testing.T) {
	d := &pricing.Details{
		PricingType: pricing.TypeSubscription,
		Tiers: []pricing.Tier{
			{Name: "standard", Price: f(30)},
			{Name: "basic", Price: f(10)},
			{Name: "pro", Price: f(60)},
		},
	}
	assert.Equal(t, 8.0, PricingScore("", d))
}

func TestPricingScoreSubscriptionBreakpoints(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{5, 8}, {10, 8}, {10.01, 6}, {30, 6}, {45, 4}, {60, 4}, {60.5, 3}, {120, 3},
	}
	for _, tc := range cases {
		d := &pricing.Details{PricingType: pricing.TypeSubscription, Tiers: []pricing.Tier{{Price: f(tc.price)}}}
		assert.Equal(t, tc.want, PricingScore("", d), "price %v", tc.price)
	}
}

func TestPricingScoreSubscriptionWithoutPrices(t *testing.T) {
	empty := &pricing.Details{PricingType: pricing.TypeSubscription}
	assert.Equal(t, 5.0, PricingScore("무료", empty))

	unpriced := &pricing.Details{
		PricingType: pricing.TypeSubscription,
		Tiers:       []pricing.Tier{{Name: "a"}, {Name: "b", Price: f(0)}},
	}
	assert.Equal(t, 5.0, PricingScore("", unpriced))
}

func TestPricingScoreUsageTokenPrices(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{0.5, 9}, {1, 7}, {4.99, 7}, {5, 5}, {9.99, 5}, {10, 4}, {19.99, 4}, {20, 3}, {75, 3},
	}
	for _, tc := range cases {
		d := &pricing.Details{
			PricingType: pricing.TypeUsageBased,
			TokenPrices: &pricing.TokenPrices{Input: &pricing.TokenPrice{Price: f(tc.price)}},
		}
		assert.Equal(t, tc.want, PricingScore("", d), "price %v", tc.price)
	}
}

func TestPricingScoreUsageImagePrices(t *testing.T) {
	d := &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		ImagePrices: map[string]pricing.ImagePrice{
			"standard": {Price: f(0.04)},
			"hd":       {Price: f(0.08)},
		},
	}
	assert.Equal(t, 6.0, PricingScore("", d))

	cheap := &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		ImagePrices: map[string]pricing.ImagePrice{"standard": {Price: f(0.02)}},
	}
	assert.Equal(t, 8.0, PricingScore("", cheap))

	pricey := &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		ImagePrices: map[string]pricing.ImagePrice{"hd": {Price: f(0.12)}},
	}
	assert.Equal(t, 4.0, PricingScore("", pricey))
}

func TestPricingScoreTokenPricesTakePrecedenceOverImages(t *testing.T) {
	d := &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		TokenPrices: &pricing.TokenPrices{Input: &pricing.TokenPrice{Price: f(0.5)}},
		ImagePrices: map[string]pricing.ImagePrice{"hd": {Price: f(0.5)}},
	}
	assert.Equal(t, 9.0, PricingScore("", d))
}

func TestPricingScoreUsageWithoutPricesKeepsDefault(t *testing.T) {
	assert.Equal(t, 5.0, PricingScore("", &pricing.Details{PricingType: pricing.TypeUsageBased}))
	assert.Equal(t, 5.0, PricingScore("", &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		ImagePrices: map[string]pricing.ImagePrice{},
	}))
	assert.Equal(t, 5.0, PricingScore("", &pricing.Details{
		PricingType: pricing.TypeUsageBased,
		ImagePrices: map[string]pricing.ImagePrice{"hd": {}},
	}))
}

func TestPricingScoreUnknownTypeKeepsDefault(t *testing.T) {
	assert.Equal(t, 5.0, PricingScore("무료", &pricing.Details{}))
	assert.Equal(t, 5.0, PricingScore("", &pricing.Details{PricingType: "enterprise"}))
}

func TestPricingScoreBonuses(t *testing.T) {
	d := &pricing.Details{
		PricingType:   pricing.TypeFree,
		FreeTier:      &pricing.FreeTier{Available: true},
		ContextWindow: &pricing.ContextWindow{Size: f(250000)},
	}
	assert.Equal(t, 13.5, PricingScore("", d))

	d.ContextWindow.Size = f(128000)
	assert.Equal(t, 13.0, PricingScore("", d))

	d.ContextWindow.Size = f(32768)
	d.FreeTier.Available = false
	assert.Equal(t, 10.0, PricingScore("", d))
}

func TestCalculateFeatureSubScore(t *testing.T) {
	cases := map[int]float64{0: 0, 2: 4, 5: 10, 10: 10}
	for n, want := range cases {
		b := Compute(Input{Features: features(n), Pricing: ""})
		assert.Equal(t, want, b.Features, "features %d", n)
	}
}

func TestCalculatePopularitySubScore(t *testing.T) {
	assert.Equal(t, 9.8, Compute(Input{Popularity: 98}).Popularity)
	assert.Equal(t, 0.0, Compute(Input{Popularity: 0}).Popularity)
}

func TestCalculateEndToEnd(t *testing.T) {
	in := Input{
		Features:   features(3),
		Popularity: 90,
		Details: &pricing.Details{
			PricingType:   pricing.TypeUsageBased,
			TokenPrices:   &pricing.TokenPrices{Input: &pricing.TokenPrice{Price: f(10.0)}},
			FreeTier:      &pricing.FreeTier{Available: true},
			ContextWindow: &pricing.ContextWindow{Size: f(128000)},
		},
	}
	b := Compute(in)
	assert.Equal(t, 6.0, b.Features)
	assert.Equal(t, 9.0, b.Popularity)
	assert.Equal(t, 7.0, b.Pricing)
	assert.Equal(t, 7.3, b.Score)
	assert.Equal(t, 7.3, Calculate(in))
}

func TestCalculateIsIdempotent(t *testing.T) {
	in := Input{
		Features:   features(4),
		Popularity: 92,
		Details: &pricing.Details{
			PricingType: pricing.TypeUsageBased,
			TokenPrices: &pricing.TokenPrices{Input: &pricing.TokenPrice{Price: f(15)}},
		},
	}
	first := Calculate(in)
	require.Equal(t, first, Calculate(in))
}

func TestCalculateClampsToMax(t *testing.T) {
	in := Input{
		Features:   features(20),
		Popularity: 100,
		Details: &pricing.Details{
			PricingType:   pricing.TypeFree,
			FreeTier:      &pricing.FreeTier{Available: true},
			ContextWindow: &pricing.ContextWindow{Size: f(1000000)},
		},
	}
	assert.Equal(t, 10.0, Calculate(in))
}

func TestCalculateBoundedAcrossInputs(t *testing.T) {
	details := []*pricing.Details{
		nil,
		{PricingType: pricing.TypeFree, FreeTier: &pricing.FreeTier{Available: true}},
		{PricingType: pricing.TypeSubscription, Tiers: []pricing.Tier{{Price: f(200)}}},
		{PricingType: pricing.TypeUsageBased, ContextWindow: &pricing.ContextWindow{Size: f(300000)}},
	}
	for _, d := range details {
		for pop := 0; pop <= 100; pop += 10 {
			for n := 0; n <= 7; n++ {
				score := Calculate(Input{Features: features(n), Popularity: pop, Pricing: "api", Details: d})
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 10.0)
			}
		}
	}
}

func TestCalculateRoundsToOneDecimal(t *testing.T) {
	// 1 feature: 2*0.3=0.6; popularity 95: 9.5*0.3=2.85; subscription 8: 3.2; total 6.65.
	in := Input{
		Features:   features(1),
		Popularity: 95,
		Details:    &pricing.Details{PricingType: pricing.TypeSubscription, Tiers: []pricing.Tier{{Price: f(9)}}},
	}
	assert.Equal(t, 6.7, Calculate(in))
}
