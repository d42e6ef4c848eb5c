package repository

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/storefront/internal/models"
)

// Text relevance ladder. The first matching rule sets the score.
const (
	scoreNameExact        = 100
	scoreNamePrefix       = 95
	scoreNameContains     = 85
	scoreCategoryExact    = 80
	scoreCategoryContains = 75
	scoreDescription      = 70
	scoreTags             = 65
	scoreVendorName       = 60
	scoreAnyToken         = 50

	// FuzzyScore is the fixed score of a fuzzy-match candidate.
	FuzzyScore = 40
)

// Blend weights of POST /v1/products/vector-search.
const (
	blendVectorWeight = 0.7
	blendTextWeight   = 0.3
)

// textScoreExpr scores a product against $1 (lowercased query), $2 (prefix
// pattern), $3 (contains pattern) and $4 (text[] of per-token contains patterns).
var textScoreExpr = fmt.Sprintf(`CASE
		WHEN LOWER(p.name) = $1 THEN %d
		WHEN LOWER(p.name) LIKE $2 THEN %d
		WHEN LOWER(p.name) LIKE $3 THEN %d
		WHEN LOWER(p.category) = $1 THEN %d
		WHEN LOWER(p.category) LIKE $3 THEN %d
		WHEN LOWER(p.description) LIKE $3 THEN %d
		WHEN LOWER(p.tags) LIKE $3 THEN %d
		WHEN LOWER(u.name) LIKE $3 THEN %d
		WHEN LOWER(p.name) LIKE ANY($4) OR LOWER(p.description) LIKE ANY($4) OR LOWER(p.category) LIKE ANY($4) THEN %d
		ELSE 0
	END`,
	scoreNameExact, scoreNamePrefix, scoreNameContains, scoreCategoryExact, scoreCategoryContains,
	scoreDescription, scoreTags, scoreVendorName, scoreAnyToken,
)

// SearchRepository runs the candidate queries behind hybrid search.
type SearchRepository struct {
	db *pgxpool.Pool
}

// NewSearchRepository creates a new search repository.
func NewSearchRepository(db *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{db: db}
}

// HasEmbeddings reports whether any product carries an embedding.
func (r *SearchRepository) HasEmbeddings(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE embedding IS NOT NULL)`,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product embeddings: %w", err)
	}

	return exists, nil
}

// VectorCandidates returns active products whose cosine distance to
// queryEmbedding is below maxDistance, closest first. Score is 1 - distance.
func (r *SearchRepository) VectorCandidates(
	ctx context.Context, queryEmbedding []float32, maxDistance float64, limit int,
) ([]models.ScoredProduct, error) {
	query := `SELECT ` + productColumns + `, (1 - (p.embedding <=> $1))::float8 AS search_score` +
		productJoins + `
		WHERE p.status = 'active' AND p.embedding IS NOT NULL AND (p.embedding <=> $1) < $2
		` + productGroupBy + `
		ORDER BY p.embedding <=> $1
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(queryEmbedding), maxDistance, limit)
	if err != nil {
		return nil, fmt.Errorf("vector candidates: %w", err)
	}

	return collectScored(rows)
}

// TextCandidates returns active products with a positive text ladder score,
// highest score first with average rating as tie-break.
func (r *SearchRepository) TextCandidates(ctx context.Context, query string, limit int) ([]models.ScoredProduct, error) {
	sql, args := buildTextSearchQuery(query, limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("text candidates: %w", err)
	}

	return collectScored(rows)
}

// FuzzyCandidates returns active products whose name, category or
// description contains query case-insensitively, best rated first.
func (r *SearchRepository) FuzzyCandidates(ctx context.Context, query string, limit int) ([]models.ScoredProduct, error) {
	sql := `SELECT ` + productColumns + fmt.Sprintf(`, %d::float8 AS search_score`, FuzzyScore) +
		productJoins + `
		WHERE p.status = 'active' AND (p.name ILIKE $1 OR p.category ILIKE $1 OR p.description ILIKE $1)
		` + productGroupBy + `
		ORDER BY avg_rating DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, sql, containsPattern(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy candidates: %w", err)
	}

	return collectScored(rows)
}

// VectorBlend ranks embedded active products by a 70/30 blend of vector
// similarity and the normalized text ladder score.
func (r *SearchRepository) VectorBlend(
	ctx context.Context, queryEmbedding []float32, query string, limit int,
) ([]models.BlendedProduct, error) {
	_, textArgs := buildTextSearchQuery(query, limit)

	sql := fmt.Sprintf(`SELECT * FROM (
		SELECT %s,
			(1 - (p.embedding <=> $5))::float8 AS similarity_score,
			(%s)::float8 AS text_score
		%s
		WHERE p.status = 'active' AND p.embedding IS NOT NULL
		%s
	) blended
	ORDER BY similarity_score * %v + text_score / 100 * %v DESC
	LIMIT $6`, productColumns, textScoreExpr, productJoins, productGroupBy, blendVectorWeight, blendTextWeight)

	args := append(textArgs[:4:4], pgvector.NewVector(queryEmbedding), limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vector blend: %w", err)
	}
	defer rows.Close()

	results := []models.BlendedProduct{}

	for rows.Next() {
		var row models.BlendedProduct

		product, err := scanProduct(rows, &row.SimilarityScore, &row.TextScore)
		if err != nil {
			return nil, fmt.Errorf("scan blended product: %w", err)
		}

		row.Product = product
		row.CombinedScore = BlendScore(row.SimilarityScore, row.TextScore)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blended products: %w", err)
	}

	return results, nil
}

// BlendScore combines a cosine similarity with a 0..100 text score.
func BlendScore(similarity, textScore float64) float64 {
	return similarity*blendVectorWeight + textScore/100*blendTextWeight
}

// searchTokens splits a lowercased query on whitespace and keeps tokens longer
// than one character.
func searchTokens(normalized string) []string {
	tokens := []string{}

	for _, f := range strings.Fields(normalized) {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}

	return tokens
}

// buildTextSearchQuery returns the text-ladder query with args
// $1 query, $2 prefix pattern, $3 contains pattern, $4 token patterns, $5 limit.
func buildTextSearchQuery(query string, limit int) (string, []any) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	tokens := searchTokens(normalized)
	tokenPatterns := make([]string, 0, len(tokens))

	for _, t := range tokens {
		tokenPatterns = append(tokenPatterns, containsPattern(t))
	}

	sql := fmt.Sprintf(`SELECT * FROM (
		SELECT %s,
			(%s)::float8 AS search_score
		%s
		WHERE p.status = 'active'
		%s
	) scored
	WHERE search_score > 0
	ORDER BY search_score DESC, avg_rating DESC
	LIMIT $5`, productColumns, textScoreExpr, productJoins, productGroupBy)

	args := []any{normalized, prefixPattern(normalized), containsPattern(normalized), tokenPatterns, limit}

	return sql, args
}
