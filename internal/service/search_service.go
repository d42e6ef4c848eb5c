package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/observability"
)

// Sentinel errors for search (used by handlers for status mapping).
var (
	ErrEmptyQuery        = errors.New("query required")
	ErrSearchUnavailable = errors.New("search failed")
)

// EmbeddingClient generates embedding vectors for text.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// SearchRepository provides the catalog queries behind hybrid search.
type SearchRepository interface {
	HasEmbeddings(ctx context.Context) (bool, error)
	VectorCandidates(ctx context.Context, queryEmbedding []float32, maxDistance float64, limit int) ([]models.ScoredProduct, error)
	TextCandidates(ctx context.Context, query string, limit int) ([]models.ScoredProduct, error)
	FuzzyCandidates(ctx context.Context, query string, limit int) ([]models.ScoredProduct, error)
}

// SearchSettings tunes hybrid search. Zero values fall back to the defaults below.
type SearchSettings struct {
	VectorMaxDistance     float64
	VectorScoreMultiplier float64
	VectorLimit           int
	TextLimit             int
	FuzzyLimit            int
	MaxResults            int
	// StrategyTimeout bounds each strategy; 0 means no per-strategy deadline.
	StrategyTimeout time.Duration
}

// DefaultSearchSettings matches the storefront's original ranking constants.
var DefaultSearchSettings = SearchSettings{
	VectorMaxDistance:     0.8,
	VectorScoreMultiplier: 100,
	VectorLimit:           30,
	TextLimit:             30,
	FuzzyLimit:            20,
	MaxResults:            50,
}

func (s SearchSettings) withDefaults() SearchSettings {
	d := DefaultSearchSettings

	if s.VectorMaxDistance > 0 {
		d.VectorMaxDistance = s.VectorMaxDistance
	}

	if s.VectorScoreMultiplier > 0 {
		d.VectorScoreMultiplier = s.VectorScoreMultiplier
	}

	if s.VectorLimit > 0 {
		d.VectorLimit = s.VectorLimit
	}

	if s.TextLimit > 0 {
		d.TextLimit = s.TextLimit
	}

	if s.FuzzyLimit > 0 {
		d.FuzzyLimit = s.FuzzyLimit
	}

	if s.MaxResults > 0 {
		d.MaxResults = s.MaxResults
	}

	d.StrategyTimeout = s.StrategyTimeout

	return d
}

// SearchService runs hybrid product search: vector, text-ladder and fuzzy
// strategies concurrently, then MergeResults.
type SearchService struct {
	repo            SearchRepository
	embeddingClient EmbeddingClient
	settings        SearchSettings
	metrics         observability.SearchMetrics
	logger          *slog.Logger
}

// SearchServiceParams configures SearchService. Metrics and Logger may be nil.
type SearchServiceParams struct {
	Repo            SearchRepository
	EmbeddingClient EmbeddingClient
	Settings        SearchSettings
	Metrics         observability.SearchMetrics
	Logger          *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		repo:            p.Repo,
		embeddingClient: p.EmbeddingClient,
		settings:        p.Settings.withDefaults(),
		metrics:         p.Metrics,
		logger:          logger,
	}
}

type strategyOutcome struct {
	results []models.ScoredProduct
	ran     bool
	err     error
}

// Search returns at most MaxResults products ranked for query. A failing
// strategy contributes nothing; ErrSearchUnavailable is returned only when
// every strategy that ran failed.
func (s *SearchService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()

	var vector, text, fuzzy strategyOutcome

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vector = s.runStrategy(gctx, observability.StrategyVector, func(ctx context.Context) ([]models.ScoredProduct, bool, error) {
			return s.vectorCandidates(ctx, query)
		})

		return nil
	})
	g.Go(func() error {
		text = s.runStrategy(gctx, observability.StrategyText, func(ctx context.Context) ([]models.ScoredProduct, bool, error) {
			res, err := s.repo.TextCandidates(ctx, query, s.settings.TextLimit)

			return res, true, err
		})

		return nil
	})
	g.Go(func() error {
		fuzzy = s.runStrategy(gctx, observability.StrategyFuzzy, func(ctx context.Context) ([]models.ScoredProduct, bool, error) {
			res, err := s.repo.FuzzyCandidates(ctx, query, s.settings.FuzzyLimit)

			return res, true, err
		})

		return nil
	})

	_ = g.Wait()

	if err := allFailed(vector, text, fuzzy); err != nil {
		s.logger.ErrorContext(ctx, "search: all strategies failed", "query_length", len(query), "error", err)

		if s.metrics != nil {
			s.metrics.RecordUnavailable(ctx)
		}

		return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}

	results := MergeResults(Candidates{
		Vector: vector.results,
		Text:   text.results,
		Fuzzy:  fuzzy.results,
	}, s.settings.VectorScoreMultiplier, s.settings.MaxResults)

	if s.metrics != nil {
		s.metrics.RecordSearch(ctx, time.Since(start), len(results))
	}

	return results, nil
}

// vectorCandidates embeds the query and runs the vector strategy. ran is false
// when no product carries an embedding.
func (s *SearchService) vectorCandidates(ctx context.Context, query string) ([]models.ScoredProduct, bool, error) {
	has, err := s.repo.HasEmbeddings(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("check embeddings: %w", err)
	}

	if !has {
		return nil, false, nil
	}

	embedding, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, true, fmt.Errorf("create embedding: %w", err)
	}

	results, err := s.repo.VectorCandidates(ctx, embedding, s.settings.VectorMaxDistance, s.settings.VectorLimit)

	return results, true, err
}

func (s *SearchService) runStrategy(
	ctx context.Context, name string, fn func(context.Context) ([]models.ScoredProduct, bool, error),
) strategyOutcome {
	if s.settings.StrategyTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.settings.StrategyTimeout)
		defer cancel()
	}

	results, ran, err := fn(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "search: strategy failed", "strategy", name, "error", err)

		if s.metrics != nil {
			s.metrics.RecordStrategyError(ctx, name)
		}

		return strategyOutcome{ran: true, err: fmt.Errorf("%s: %w", name, err)}
	}

	if ran && s.metrics != nil {
		s.metrics.RecordStrategyResults(ctx, name, len(results))
	}

	return strategyOutcome{results: results, ran: ran}
}

// allFailed returns the joined errors when every strategy that ran failed.
func allFailed(outcomes ...strategyOutcome) error {
	var errs []error

	for _, o := range outcomes {
		if !o.ran {
			continue
		}

		if o.err == nil {
			return nil
		}

		errs = append(errs, o.err)
	}

	return errors.Join(errs...)
}
