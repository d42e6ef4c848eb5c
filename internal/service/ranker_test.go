package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/repository"
)

func scored(id uuid.UUID, name string, score float64) models.ScoredProduct {
	return models.ScoredProduct{Product: models.Product{ID: id, Name: name}, Score: score}
}

func TestMergeResults(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("vector scores are rescaled", func(t *testing.T) {
		got := MergeResults(Candidates{Vector: []models.ScoredProduct{scored(a, "A", 0.42)}}, 100, 50)

		require.Len(t, got, 1)
		assert.InDelta(t, 42, got[0].SearchScore, 1e-9)
		assert.Equal(t, models.ProvenanceVector, got[0].SearchType)
	})

	t.Run("collision keeps max and becomes combined", func(t *testing.T) {
		got := MergeResults(Candidates{
			Vector: []models.ScoredProduct{scored(a, "A", 0.9), scored(b, "B", 0.3)},
			Text:   []models.ScoredProduct{scored(a, "A", 85), scored(b, "B", 85)},
		}, 100, 50)

		require.Len(t, got, 2)
		assert.Equal(t, a, got[0].ID)
		assert.InDelta(t, 90, got[0].SearchScore, 1e-9, "vector 0.9*100 beats text 85")
		assert.Equal(t, models.ProvenanceCombined, got[0].SearchType)

		assert.Equal(t, b, got[1].ID)
		assert.InDelta(t, 85, got[1].SearchScore, 1e-9, "text 85 beats vector 0.3*100")
		assert.Equal(t, models.ProvenanceCombined, got[1].SearchType)
	})

	t.Run("fuzzy only fills absent ids", func(t *testing.T) {
		got := MergeResults(Candidates{
			Text:  []models.ScoredProduct{scored(a, "A", 70)},
			Fuzzy: []models.ScoredProduct{scored(a, "A", repository.FuzzyScore), scored(c, "C", repository.FuzzyScore)},
		}, 100, 50)

		require.Len(t, got, 2)
		assert.Equal(t, models.ProvenanceText, got[0].SearchType)
		assert.InDelta(t, 70, got[0].SearchScore, 1e-9)
		assert.Equal(t, c, got[1].ID)
		assert.Equal(t, models.ProvenanceFuzzy, got[1].SearchType)
		assert.InDelta(t, 40, got[1].SearchScore, 1e-9)
	})

	t.Run("fuzzy does not override vector", func(t *testing.T) {
		got := MergeResults(Candidates{
			Vector: []models.ScoredProduct{scored(d, "D", 0.1)},
			Fuzzy:  []models.ScoredProduct{scored(d, "D", 40)},
		}, 100, 50)

		require.Len(t, got, 1)
		assert.Equal(t, models.ProvenanceVector, got[0].SearchType)
		assert.InDelta(t, 10, got[0].SearchScore, 1e-9)
	})

	t.Run("sorted non-increasing with stable ties", func(t *testing.T) {
		got := MergeResults(Candidates{
			Vector: []models.ScoredProduct{scored(a, "A", 0.5)},
			Text:   []models.ScoredProduct{scored(b, "B", 95), scored(c, "C", 50)},
			Fuzzy:  []models.ScoredProduct{scored(d, "D", 40)},
		}, 100, 50)

		ids := make([]uuid.UUID, 0, len(got))
		for i, r := range got {
			ids = append(ids, r.ID)

			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].SearchScore, r.SearchScore)
			}
		}

		assert.Equal(t, []uuid.UUID{b, a, c, d}, ids, "vector A (50) precedes text C (50)")
	})

	t.Run("no duplicate ids", func(t *testing.T) {
		got := MergeResults(Candidates{
			Vector: []models.ScoredProduct{scored(a, "A", 0.5), scored(a, "A", 0.4)},
			Text:   []models.ScoredProduct{scored(a, "A", 60), scored(b, "B", 60), scored(b, "B", 65)},
			Fuzzy:  []models.ScoredProduct{scored(b, "B", 40)},
		}, 100, 50)

		seen := map[uuid.UUID]bool{}
		for _, r := range got {
			assert.False(t, seen[r.ID], "duplicate %s", r.Name)
			seen[r.ID] = true
		}

		require.Len(t, got, 2)
		assert.InDelta(t, 65, got[0].SearchScore, 1e-9)
		assert.Equal(t, models.ProvenanceText, got[0].SearchType)
	})

	t.Run("capped at max results", func(t *testing.T) {
		var text []models.ScoredProduct
		for i := range 80 {
			text = append(text, scored(uuid.New(), fmt.Sprintf("P%d", i), float64(100-i)))
		}

		got := MergeResults(Candidates{Text: text}, 100, 50)
		require.Len(t, got, 50)
		assert.InDelta(t, 100, got[0].SearchScore, 1e-9)
		assert.InDelta(t, 51, got[49].SearchScore, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		got := MergeResults(Candidates{}, 100, 50)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
