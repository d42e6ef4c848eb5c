package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/observability"
	"github.com/formbricks/storefront/internal/repository"
	"github.com/formbricks/storefront/pkg/cache"
	"github.com/formbricks/storefront/pkg/embeddings"
)

const (
	featuredLimit        = 12
	trendingLimit        = 20
	recommendationsLimit = 8
	filterOptionsTagCap  = 30
	defaultListLimit     = 50
	defaultVectorLimit   = 10
	defaultSmartLimit    = 50

	filterOptionsCacheName = "filter_options"
	filterOptionsCacheKey  = "active"

	// RecommendationSourceSimilar marks recommendations from embedding neighbours.
	RecommendationSourceSimilar = "similar"
	// RecommendationSourceCategory marks the same-category fallback.
	RecommendationSourceCategory = "category"
)

const createdMessage = "Product created successfully and is pending admin approval"

// ProductsRepository is the catalog storage used by ProductsService.
type ProductsRepository interface {
	Create(ctx context.Context, params *repository.CreateProductParams) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters *models.ListProductsFilters) ([]models.Product, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorProduct, error)
	Update(ctx context.Context, id, vendorID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error)
	NearestByProduct(ctx context.Context, id uuid.UUID, embedding []float32, limit int) ([]models.ScoredProduct, error)
	ListByCategory(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Trending(ctx context.Context, limit int) ([]models.ScoredProduct, error)
	FilterFacets(ctx context.Context) (*models.FilterFacets, error)
	SmartFilter(ctx context.Context, req *models.SmartFilterRequest, limit int) ([]models.Product, error)
}

// VectorBlendRepository ranks embedded products by blended vector and text score.
type VectorBlendRepository interface {
	VectorBlend(ctx context.Context, queryEmbedding []float32, query string, limit int) ([]models.BlendedProduct, error)
}

// EmbeddingJobEnqueuer schedules asynchronous embedding recomputation.
type EmbeddingJobEnqueuer interface {
	Enqueue(ctx context.Context, productID uuid.UUID) error
}

// ProductsService implements catalog reads and vendor writes.
type ProductsService struct {
	repo            ProductsRepository
	blendRepo       VectorBlendRepository
	embeddingClient EmbeddingClient
	enqueuer        EmbeddingJobEnqueuer
	filterOptions   *cache.LoaderCache[string, *models.FilterOptions]
	cacheMetrics    observability.CacheMetrics
	logger          *slog.Logger
}

// ProductsServiceParams configures ProductsService. Enqueuer, FilterOptionsCache,
// CacheMetrics and Logger may be nil. Without an enqueuer, edits re-embed inline.
type ProductsServiceParams struct {
	Repo               ProductsRepository
	BlendRepo          VectorBlendRepository
	EmbeddingClient    EmbeddingClient
	Enqueuer           EmbeddingJobEnqueuer
	FilterOptionsCache *cache.LoaderCache[string, *models.FilterOptions]
	CacheMetrics       observability.CacheMetrics
	Logger             *slog.Logger
}

// NewProductsService creates a ProductsService.
func NewProductsService(p ProductsServiceParams) *ProductsService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ProductsService{
		repo:            p.Repo,
		blendRepo:       p.BlendRepo,
		embeddingClient: p.EmbeddingClient,
		enqueuer:        p.Enqueuer,
		filterOptions:   p.FilterOptionsCache,
		cacheMetrics:    p.CacheMetrics,
		logger:          logger,
	}
}

// CreateProduct stores a vendor's product with status inactive and its embedding.
// An embedding failure does not fail the create; the product is stored
// without one and a recompute job is enqueued when possible.
func (s *ProductsService) CreateProduct(
	ctx context.Context, vendorID uuid.UUID, req *models.CreateProductRequest,
) (*models.CreateProductResponse, error) {
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		imageURL = models.DefaultProductImageURL
	}

	params := &repository.CreateProductParams{
		VendorID:      vendorID,
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		Category:      strings.TrimSpace(req.Category),
		Price:         *req.Price,
		StockQuantity: *req.StockQuantity,
		ImageURL:      imageURL,
		Tags:          req.Tags,
		Status:        models.ProductStatusInactive,
	}

	text := embeddings.ProductText(params.Name, params.Description, params.Category, params.Tags)

	embedding, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "create product: embedding failed, storing without", "vendor_id", vendorID, "error", err)
	} else {
		params.Embedding = embedding
	}

	product, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if params.Embedding == nil && s.enqueuer != nil {
		if err := s.enqueuer.Enqueue(ctx, product.ID); err != nil {
			s.logger.ErrorContext(ctx, "create product: enqueue embedding failed", "product_id", product.ID, "error", err)
		}
	}

	return &models.CreateProductResponse{
		Product:            *product,
		EmbeddingGenerated: params.Embedding != nil,
		Message:            createdMessage,
	}, nil
}

// UpdateProduct applies a vendor's partial update to one of their products.
// When embedded text changes, the embedding is recomputed.
func (s *ProductsService) UpdateProduct(
	ctx context.Context, vendorID, id uuid.UUID, req *models.UpdateProductRequest,
) (*models.Product, error) {
	if req.IsEmpty() {
		return nil, apperrors.NewValidationError("body", "at least one field must be provided")
	}

	product, err := s.repo.Update(ctx, id, vendorID, req)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.InvalidateFilterOptions()

	if req.ChangesEmbeddingText() {
		s.scheduleReembed(ctx, product)
	}

	return product, nil
}

func (s *ProductsService) scheduleReembed(ctx context.Context, product *models.Product) {
	if s.enqueuer != nil {
		err := s.enqueuer.Enqueue(ctx, product.ID)
		if err == nil {
			return
		}

		s.logger.WarnContext(ctx, "update product: enqueue embedding failed, recomputing inline",
			"product_id", product.ID, "error", err)
	}

	if err := s.storeEmbedding(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "update product: recompute embedding failed", "product_id", product.ID, "error", err)
	}
}

// RefreshEmbedding recomputes and stores the embedding of product id.
func (s *ProductsService) RefreshEmbedding(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}

	return s.storeEmbedding(ctx, product)
}

func (s *ProductsService) storeEmbedding(ctx context.Context, product *models.Product) error {
	text := embeddings.ProductText(product.Name, product.Description, product.Category, product.Tags)

	embedding, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("create embedding: %w", err)
	}

	if err := s.repo.SetEmbedding(ctx, product.ID, embedding); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	return nil
}

// GetProduct returns an active product.
func (s *ProductsService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if product.Status != models.ProductStatusActive {
		return nil, apperrors.NewNotFoundError("product", "product not found")
	}

	return product, nil
}

// ListProducts returns active products newest first.
func (s *ProductsService) ListProducts(ctx context.Context, filters *models.ListProductsFilters) ([]models.Product, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	}

	products, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

// ListVendorProducts returns all of a vendor's products with sales counts.
func (s *ProductsService) ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]models.VendorProduct, error) {
	products, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list vendor products: %w", err)
	}

	return products, nil
}

// Featured returns the best-selling active products.
func (s *ProductsService) Featured(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.Featured(ctx, featuredLimit)
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}

	return products, nil
}

// Trending returns active products with the most recent orders and views.
func (s *ProductsService) Trending(ctx context.Context) ([]models.ScoredProduct, error) {
	products, err := s.repo.Trending(ctx, trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("trending products: %w", err)
	}

	return products, nil
}

// Recommendations returns products similar to id: embedding neighbours when
// the product has an embedding, otherwise the best-rated products of its category.
func (s *ProductsService) Recommendations(ctx context.Context, id uuid.UUID) (*models.Recommendations, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	out := &models.Recommendations{ProductID: id, Products: []models.Product{}}

	embedding, err := s.repo.GetEmbedding(ctx, id)

	switch {
	case err == nil:
		similar, err := s.repo.NearestByProduct(ctx, id, embedding, recommendationsLimit)
		if err != nil {
			return nil, fmt.Errorf("similar products: %w", err)
		}

		out.Source = RecommendationSourceSimilar

		for _, p := range similar {
			out.Products = append(out.Products, p.Product)
		}

		return out, nil
	case errors.Is(err, repository.ErrEmbeddingNotFound):
		s.logger.DebugContext(ctx, "recommendations: no embedding, using category", "product_id", id)
	default:
		return nil, fmt.Errorf("get embedding: %w", err)
	}

	byCategory, err := s.repo.ListByCategory(ctx, product.Category, id, recommendationsLimit)
	if err != nil {
		return nil, fmt.Errorf("category products: %w", err)
	}

	out.Source = RecommendationSourceCategory
	out.Products = byCategory

	return out, nil
}

// FilterOptions returns the categories, tags and price range of the active catalog.
func (s *ProductsService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if s.filterOptions == nil {
		return s.loadFilterOptions(ctx, filterOptionsCacheKey)
	}

	opts, hit, err := s.filterOptions.GetWithStats(ctx, filterOptionsCacheKey, s.loadFilterOptions)
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, filterOptionsCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, filterOptionsCacheName)
		}
	}

	return opts, nil
}

func (s *ProductsService) loadFilterOptions(ctx context.Context, _ string) (*models.FilterOptions, error) {
	facets, err := s.repo.FilterFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("filter facets: %w", err)
	}

	return BuildFilterOptions(facets), nil
}

// BuildFilterOptions reduces raw facets: tags are split, trimmed and
// deduplicated in first-seen order up to 30, prices are floored and ceiled.
func BuildFilterOptions(facets *models.FilterFacets) *models.FilterOptions {
	seen := map[string]bool{}
	tags := []string{}

	for _, raw := range facets.RawTags {
		for _, tag := range models.SplitTags(raw) {
			if seen[tag] {
				continue
			}

			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	if len(tags) > filterOptionsTagCap {
		tags = tags[:filterOptionsTagCap]
	}

	categories := facets.Categories
	if categories == nil {
		categories = []string{}
	}

	return &models.FilterOptions{
		Categories: categories,
		Tags:       tags,
		PriceRange: models.PriceRange{
			Min: math.Floor(facets.MinPrice),
			Max: math.Ceil(facets.MaxPrice),
		},
	}
}

// InvalidateFilterOptions drops cached filter options after catalog changes.
func (s *ProductsService) InvalidateFilterOptions() {
	if s.filterOptions != nil {
		s.filterOptions.InvalidateAll()
	}
}

// SmartFilter returns active products matching the requested facets.
func (s *ProductsService) SmartFilter(ctx context.Context, req *models.SmartFilterRequest) ([]models.Product, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSmartLimit
	}

	products, err := s.repo.SmartFilter(ctx, req, limit)
	if err != nil {
		return nil, fmt.Errorf("smart filter: %w", err)
	}

	return products, nil
}

// VectorSearch ranks embedded products by 70% vector similarity and 30% text score.
func (s *ProductsService) VectorSearch(ctx context.Context, req *models.VectorSearchRequest) ([]models.BlendedProduct, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultVectorLimit
	}

	embedding, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	results, err := s.blendRepo.VectorBlend(ctx, embedding, query, limit)
	if err != nil {
		return nil, fmt.Errorf("vector blend: %w", err)
	}

	return results, nil
}
