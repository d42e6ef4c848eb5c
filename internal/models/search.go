package models

import "github.com/google/uuid"

// Provenance names the search strategy (or strategies) that produced a result.
type Provenance string

const (
	ProvenanceVector   Provenance = "vector"
	ProvenanceText     Provenance = "text"
	ProvenanceFuzzy    Provenance = "fuzzy"
	ProvenanceCombined Provenance = "combined"
)

// ScoredProduct is a product returned by one retrieval strategy with that strategy's raw score.
type ScoredProduct struct {
	Product

	Score float64 `json:"score"`
}

// SearchResult is a merged hybrid-search hit.
type SearchResult struct {
	Product

	SearchScore float64    `json:"search_score"`
	SearchType  Provenance `json:"search_type"`
}

// SearchResponse is the body of GET /v1/products/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// VectorSearchRequest is the body of POST /v1/products/vector-search.
type VectorSearchRequest struct {
	Query string `json:"query" validate:"required,no_null_bytes,max=1000"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

// BlendedProduct is a vector-search hit with its component and combined scores.
type BlendedProduct struct {
	Product

	SimilarityScore float64 `json:"similarity_score"`
	TextScore       float64 `json:"text_score"`
	CombinedScore   float64 `json:"combined_score"`
}

// Recommendations is the body of GET /v1/products/{id}/recommendations.
type Recommendations struct {
	ProductID uuid.UUID `json:"product_id"`
	// Source is "similar" when embedding neighbours were used, "category" for the fallback.
	Source   string    `json:"source"`
	Products []Product `json:"products"`
}

// KeywordResponse is returned by the voice and image search endpoints.
type KeywordResponse struct {
	Keyword string `json:"keyword"`
}

// ChatRequest is the body of POST /v1/chatbot.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000,no_null_bytes"`
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Response string `json:"response"`
}
