package models

// SmartFilterRequest selects active products by facet. Every set facet narrows the result.
type SmartFilterRequest struct {
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=50,dive,max=100,no_null_bytes"`
	// PriceRange is [min, max] inclusive.
	PriceRange []float64 `json:"priceRange,omitempty" validate:"omitempty,len=2,ascending,dive,gte=0"`
	MinRating  float64   `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Tags       []string  `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=50,no_null_bytes"`
	Limit      int       `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// FilterOptions describes the facets available in the active catalog.
type FilterOptions struct {
	Categories []string   `json:"categories"`
	Tags       []string   `json:"tags"`
	PriceRange PriceRange `json:"priceRange"`
}

// PriceRange bounds prices; Min is floored and Max ceiled to whole units.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterFacets are the raw facet values read from the catalog.
type FilterFacets struct {
	Categories []string
	RawTags    []string
	MinPrice   float64
	MaxPrice   float64
}
