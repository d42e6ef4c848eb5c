package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/models"
)

// Candidates are the per-strategy results fed into MergeResults. A nil slice
// means the strategy was skipped or failed.
type Candidates struct {
	Vector []models.ScoredProduct
	Text   []models.ScoredProduct
	Fuzzy  []models.ScoredProduct
}

// MergeResults combines strategy candidates into one ranked list.
//
// Vector scores are multiplied by vectorMultiplier. A text hit for a product
// already present keeps the higher score and becomes "combined". Fuzzy hits
// only fill in products no other strategy returned. The result is sorted by
// score descending (stable, so earlier strategies win ties) and capped at
// maxResults.
func MergeResults(c Candidates, vectorMultiplier float64, maxResults int) []models.SearchResult {
	merged := make([]models.SearchResult, 0, len(c.Vector)+len(c.Text)+len(c.Fuzzy))
	index := make(map[uuid.UUID]int, cap(merged))

	for _, v := range c.Vector {
		if _, ok := index[v.ID]; ok {
			continue
		}

		index[v.ID] = len(merged)
		merged = append(merged, models.SearchResult{
			Product:     v.Product,
			SearchScore: v.Score * vectorMultiplier,
			SearchType:  models.ProvenanceVector,
		})
	}

	for _, t := range c.Text {
		if i, ok := index[t.ID]; ok {
			existing := &merged[i]
			existing.SearchScore = max(existing.SearchScore, t.Score)

			if existing.SearchType == models.ProvenanceVector {
				existing.SearchType = models.ProvenanceCombined
			}

			continue
		}

		index[t.ID] = len(merged)
		merged = append(merged, models.SearchResult{
			Product:     t.Product,
			SearchScore: t.Score,
			SearchType:  models.ProvenanceText,
		})
	}

	for _, f := range c.Fuzzy {
		if _, ok := index[f.ID]; ok {
			continue
		}

		index[f.ID] = len(merged)
		merged = append(merged, models.SearchResult{
			Product:     f.Product,
			SearchScore: f.Score,
			SearchType:  models.ProvenanceFuzzy,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SearchScore > merged[j].SearchScore
	})

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}

	return merged
}
