package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestPreferences_Apply(t *testing.T) {
	t.Run("product view weights category by one", func(t *testing.T) {
		p := NewPreferences()
		p.Apply(EventProductView, InteractionData{Category: "Electronics"})
		p.Apply(EventProductView, InteractionData{Category: "Electronics"})

		assert.Equal(t, 2, p.Categories["Electronics"])
		assert.Empty(t, p.PriceRanges)
	})

	t.Run("cart and purchase weight category by three and bucket price", func(t *testing.T) {
		p := NewPreferences()
		p.Apply(EventAddToCart, InteractionData{Category: "Gaming", Price: ptr(59.99)})
		p.Apply(EventPurchase, InteractionData{Category: "Gaming", Price: ptr(620.0)})

		assert.Equal(t, 6, p.Categories["Gaming"])
		assert.Equal(t, 1, p.PriceRanges["50-100"])
		assert.Equal(t, 1, p.PriceRanges["500+"])
	})

	t.Run("search counts query", func(t *testing.T) {
		p := NewPreferences()
		p.Apply(EventSearch, InteractionData{Query: "headphones"})

		assert.Equal(t, 1, p.SearchTerms["headphones"])
	})

	t.Run("missing attributes and unknown events are ignored", func(t *testing.T) {
		p := &Preferences{}
		p.Apply(EventProductView, InteractionData{})
		p.Apply("wishlist", InteractionData{Category: "Books"})

		assert.Empty(t, p.Categories)
		assert.Empty(t, p.SearchTerms)
	})
}

func TestPriceBucket(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, "0-50"},
		{49.99, "0-50"},
		{50, "50-100"},
		{199.99, "100-200"},
		{200, "200-500"},
		{500, "500+"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceBucket(tt.price), "price %v", tt.price)
	}
}

func TestTags(t *testing.T) {
	assert.Equal(t, "audio,wireless", JoinTags([]string{" audio ", "", "wireless"}))
	assert.Equal(t, []string{"audio", "wireless"}, SplitTags("audio, wireless,,"))
	assert.Equal(t, []string{}, SplitTags(""))
}

func TestUpdateProductRequest(t *testing.T) {
	assert.True(t, (&UpdateProductRequest{}).IsEmpty())
	assert.False(t, (&UpdateProductRequest{Price: ptr(10.0)}).ChangesEmbeddingText())
	assert.True(t, (&UpdateProductRequest{Tags: &[]string{"x"}}).ChangesEmbeddingText())
}
