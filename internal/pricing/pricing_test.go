package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAbsentPayloads(t *testing.T) {
	for _, raw := range []string{"", "   ", "null", "not json", `"free"`, "42", "[]"} {
		d, ok := Decode([]byte(raw))
		assert.False(t, ok, raw)
		assert.Nil(t, d, raw)
	}
}

func TestDecodeUsageBasedTokens(t *testing.T) {
	raw := `{
		"pricing_type": "usage_based",
		"token_prices": {
			"input": {"price": 10, "unit": "1M tokens", "formatted": "$10 / 1M tokens"},
			"output": {"price": 30, "unit": "1M tokens"}
		},
		"free_tier": {"available": true, "description": "limited"},
		"context_window": {"size": 128000, "unit": "tokens"},
		"pricing_summary": "pay as you go"
	}`
	d, ok := Decode([]byte(raw))
	require.True(t, ok)
	assert.Equal(t, TypeUsageBased, d.PricingType)
	require.NotNil(t, d.TokenPrices)
	require.NotNil(t, d.TokenPrices.Input)
	require.NotNil(t, d.TokenPrices.Input.Price)
	assert.Equal(t, 10.0, *d.TokenPrices.Input.Price)
	assert.Equal(t, "$10 / 1M tokens", d.TokenPrices.Input.Formatted)
	assert.Equal(t, 30.0, *d.TokenPrices.Output.Price)
	assert.True(t, d.FreeTier.Available)
	assert.Equal(t, 128000.0, *d.ContextWindow.Size)
	assert.Equal(t, "pay as you go", d.PricingSummary)
}

func TestDecodeSubscriptionTiers(t *testing.T) {
	raw := `{"pricing_type":"subscription","tiers":[
		{"name":"Basic","price":10,"features":["200 images", 3]},
		{"name":"Broken","price":"30"},
		"junk"
	]}`
	d, ok := Decode([]byte(raw))
	require.True(t, ok)
	require.Len(t, d.Tiers, 3)
	assert.Equal(t, "Basic", d.Tiers[0].Name)
	assert.Equal(t, 10.0, *d.Tiers[0].Price)
	assert.Equal(t, []string{"200 images"}, d.Tiers[0].Features)
	assert.Nil(t, d.Tiers[1].Price)
	assert.Equal(t, Tier{}, d.Tiers[2])
}

func TestDecodeImagePrices(t *testing.T) {
	raw := `{"pricing_type":"usage_based","image_prices":{
		"standard":{"price":0.04,"resolution":"1024x1024"},
		"hd":{"price":0.08},
		"odd":"x"
	}}`
	d, ok := Decode([]byte(raw))
	require.True(t, ok)
	require.Len(t, d.ImagePrices, 3)
	assert.Equal(t, 0.04, *d.ImagePrices["standard"].Price)
	assert.Equal(t, "1024x1024", d.ImagePrices["standard"].Resolution)
	assert.Nil(t, d.ImagePrices["odd"].Price)
}

func TestDecodeWrongTypesAreAbsent(t *testing.T) {
	raw := `{"pricing_type":7,"token_prices":"cheap","free_tier":{"available":"yes"},"context_window":{"size":"big"}}`
	d, ok := Decode([]byte(raw))
	require.True(t, ok)
	assert.Empty(t, d.PricingType)
	assert.Nil(t, d.TokenPrices)
	assert.True(t, d.FreeTier.Available)
	assert.Nil(t, d.ContextWindow.Size)
}

func TestDecodeEmptyObjectIsPresent(t *testing.T) {
	d, ok := Decode([]byte(`{}`))
	require.True(t, ok)
	assert.Equal(t, &Details{}, d)
}

func TestValidate(t *testing.T) {
	price := 10.0
	negativePrice := -1.0

	require.NoError(t, Validate(nil))
	require.NoError(t, Validate(&Details{PricingType: TypeSubscription, Tiers: []Tier{{Price: &price}}}))

	err := Validate(&Details{PricingType: "barter"})
	assert.True(t, errors.Is(err, ErrInvalidPricingType))

	err = Validate(&Details{Tiers: []Tier{{Price: &negativePrice}}})
	assert.True(t, errors.Is(err, ErrNegativePrice))

	err = Validate(&Details{TokenPrices: &TokenPrices{Output: &TokenPrice{Price: &negativePrice}}})
	assert.True(t, errors.Is(err, ErrNegativePrice))
}

func TestEncodeDecode(t *testing.T) {
	price := 0.5
	in := &Details{
		PricingType: TypeUsageBased,
		TokenPrices: &TokenPrices{Input: &TokenPrice{Price: &price}},
	}
	raw, err := Encode(in)
	require.NoError(t, err)
	out, ok := Decode(raw)
	require.True(t, ok)
	assert.Equal(t, 0.5, *out.TokenPrices.Input.Price)
	assert.Nil(t, out.TokenPrices.Output)
}
