package models

import (
	"time"

	"github.com/google/uuid"
)

// Tracked interaction events.
const (
	EventProductView = "product_view"
	EventAddToCart   = "add_to_cart"
	EventPurchase    = "purchase"
	EventSearch      = "search"
)

// TrackEventRequest is the body of POST /v1/analytics/track.
type TrackEventRequest struct {
	Event     string          `json:"event" validate:"required,oneof=product_view add_to_cart purchase search"`
	Data      InteractionData `json:"data"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

// InteractionData is the event payload stored with an interaction.
type InteractionData struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Category  string     `json:"category,omitempty" validate:"omitempty,max=100,no_null_bytes"`
	Price     *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Query     string     `json:"query,omitempty" validate:"omitempty,max=500,no_null_bytes"`
}

// Interaction is a stored event.
type Interaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Event     string          `json:"event"`
	Data      InteractionData `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Preferences is the per-user document folded from interactions.
type Preferences struct {
	Categories  map[string]int `json:"categories"`
	PriceRanges map[string]int `json:"price_ranges"`
	SearchTerms map[string]int `json:"search_terms"`
}

// NewPreferences returns an empty preference document.
func NewPreferences() *Preferences {
	return &Preferences{
		Categories:  map[string]int{},
		PriceRanges: map[string]int{},
		SearchTerms: map[string]int{},
	}
}

const (
	viewWeight       = 1
	intentWeight     = 3
	priceRangeWeight = 1
	searchWeight     = 1
)

// Apply folds one event into the document. Unknown events and missing
// attributes leave it unchanged.
func (p *Preferences) Apply(event string, data InteractionData) {
	p.ensureMaps()

	switch event {
	case EventProductView:
		if data.Category != "" {
			p.Categories[data.Category] += viewWeight
		}
	case EventAddToCart, EventPurchase:
		if data.Category != "" {
			p.Categories[data.Category] += intentWeight
		}

		if data.Price != nil {
			p.PriceRanges[PriceBucket(*data.Price)] += priceRangeWeight
		}
	case EventSearch:
		if data.Query != "" {
			p.SearchTerms[data.Query] += searchWeight
		}
	}
}

func (p *Preferences) ensureMaps() {
	if p.Categories == nil {
		p.Categories = map[string]int{}
	}

	if p.PriceRanges == nil {
		p.PriceRanges = map[string]int{}
	}

	if p.SearchTerms == nil {
		p.SearchTerms = map[string]int{}
	}
}

// PriceBucket maps a price to its preference bucket label.
func PriceBucket(price float64) string {
	switch {
	case price < 50:
		return "0-50"
	case price < 100:
		return "50-100"
	case price < 200:
		return "100-200"
	case price < 500:
		return "200-500"
	default:
		return "500+"
	}
}
