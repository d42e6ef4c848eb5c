package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/models"
)

// ErrEmbeddingNotFound is returned when a product has no stored embedding.
var ErrEmbeddingNotFound = errors.New("embedding not found for product")

// ProductsRepository handles data access for catalog products.
type ProductsRepository struct {
	db *pgxpool.Pool
}

// NewProductsRepository creates a new products repository.
func NewProductsRepository(db *pgxpool.Pool) *ProductsRepository {
	return &ProductsRepository{db: db}
}

// CreateProductParams are the values persisted for a new product.
type CreateProductParams struct {
	VendorID      uuid.UUID
	Name          string
	Description   string
	Category      string
	Price         float64
	StockQuantity int
	ImageURL      string
	Tags          []string
	Status        models.ProductStatus
	// Embedding is stored when non-nil.
	Embedding []float32
}

// Create inserts a product and returns it with vendor name and rating.
func (r *ProductsRepository) Create(ctx context.Context, params *CreateProductParams) (*models.Product, error) {
	var embedding any
	if params.Embedding != nil {
		embedding = pgvector.NewVector(params.Embedding)
	}

	var id uuid.UUID

	err := r.db.QueryRow(ctx, `
		INSERT INTO products (vendor_id, name, description, category, price, stock_quantity, image_url, tags, status, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		params.VendorID, params.Name, params.Description, params.Category, params.Price, params.StockQuantity,
		params.ImageURL, models.JoinTags(params.Tags), string(params.Status), embedding,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a product in any status.
func (r *ProductsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + productJoins + ` WHERE p.id = $1 ` + productGroupBy

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("product", "product not found")
		}

		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// List returns active products newest first.
func (r *ProductsRepository) List(ctx context.Context, filters *models.ListProductsFilters) ([]models.Product, error) {
	query, args := buildListQuery(filters)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return collectProducts(rows)
}

func buildListQuery(filters *models.ListProductsFilters) (string, []any) {
	var args []any

	conditions := "p.status = 'active'"
	argCount := 1

	if filters.Category != "" {
		conditions += fmt.Sprintf(" AND p.category = $%d", argCount)
		args = append(args, filters.Category)
		argCount++
	}

	query := `SELECT ` + productColumns + productJoins + ` WHERE ` + conditions + ` ` + productGroupBy +
		` ORDER BY p.created_at DESC`

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filters.Offset)
	}

	return query, args
}

// ListByVendor returns every product of a vendor, in any status, with the number of order lines.
func (r *ProductsRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorProduct, error) {
	query := `SELECT ` + productColumns + `,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.product_id = p.id) AS total_sales` +
		productJoins + `
		WHERE p.vendor_id = $1
		` + productGroupBy + `
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor products: %w", err)
	}
	defer rows.Close()

	products := []models.VendorProduct{}

	for rows.Next() {
		var totalSales int64

		product, err := scanProduct(rows, &totalSales)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor product: %w", err)
		}

		products = append(products, models.VendorProduct{Product: product, TotalSales: totalSales})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendor products: %w", err)
	}

	return products, nil
}

// Update applies a partial update to a product owned by vendorID. When the
// update touches embedded text the stored embedding is cleared.
func (r *ProductsRepository) Update(
	ctx context.Context, id, vendorID uuid.UUID, req *models.UpdateProductRequest,
) (*models.Product, error) {
	query, args, hasUpdates := buildUpdateQuery(req, id, vendorID, time.Now())
	if !hasUpdates {
		product, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if product.VendorID != vendorID {
			return nil, apperrors.NewNotFoundError("product", "product not found")
		}

		return product, nil
	}

	var updatedID uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("product", "product not found")
		}

		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return r.GetByID(ctx, updatedID)
}

func buildUpdateQuery(
	req *models.UpdateProductRequest, id, vendorID uuid.UUID, updatedAt time.Time,
) (query string, args []any, hasUpdates bool) {
	var updates []string

	argCount := 1

	set := func(column string, value any) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if req.Name != nil {
		set("name", *req.Name)
	}

	if req.Description != nil {
		set("description", *req.Description)
	}

	if req.Category != nil {
		set("category", *req.Category)
	}

	if req.Price != nil {
		set("price", *req.Price)
	}

	if req.StockQuantity != nil {
		set("stock_quantity", *req.StockQuantity)
	}

	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}

	if req.Tags != nil {
		set("tags", models.JoinTags(*req.Tags))
	}

	if len(updates) == 0 {
		return "", nil, false
	}

	if req.ChangesEmbeddingText() {
		updates = append(updates, "embedding = NULL")
	}

	set("updated_at", updatedAt)

	args = append(args, id, vendorID)

	query = fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = $%d AND vendor_id = $%d
		RETURNING id`, strings.Join(updates, ", "), argCount, argCount+1)

	return query, args, true
}

// SetEmbedding stores (or with nil, clears) the embedding of a product.
func (r *ProductsRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	var value any
	if embedding != nil {
		value = pgvector.NewVector(embedding)
	}

	tag, err := r.db.Exec(ctx, `UPDATE products SET embedding = $1 WHERE id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("failed to set product embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("product", "product not found")
	}

	return nil
}

// GetEmbedding returns the stored embedding of a product or ErrEmbeddingNotFound.
func (r *ProductsRepository) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	var vec pgvector.Vector

	err := r.db.QueryRow(ctx,
		`SELECT embedding FROM products WHERE id = $1 AND embedding IS NOT NULL`, id,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmbeddingNotFound
		}

		return nil, fmt.Errorf("get product embedding: %w", err)
	}

	return vec.Slice(), nil
}

// ListIDsForEmbeddingBackfill returns IDs of products without an embedding.
func (r *ProductsRepository) ListIDsForEmbeddingBackfill(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products WHERE embedding IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list product ids for backfill: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backfill ids: %w", err)
	}

	return ids, nil
}

// NearestByProduct returns active products closest to the embedding of id, excluding id itself.
func (r *ProductsRepository) NearestByProduct(
	ctx context.Context, id uuid.UUID, embedding []float32, limit int,
) ([]models.ScoredProduct, error) {
	query := `SELECT ` + productColumns + `, (1 - (p.embedding <=> $1))::float8 AS similarity` +
		productJoins + `
		WHERE p.status = 'active' AND p.embedding IS NOT NULL AND p.id != $2
		` + productGroupBy + `
		ORDER BY p.embedding <=> $1
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), id, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest products: %w", err)
	}

	return collectScored(rows)
}

// ListByCategory returns active products of category other than excludeID, best rated first.
func (r *ProductsRepository) ListByCategory(
	ctx context.Context, category string, excludeID uuid.UUID, limit int,
) ([]models.Product, error) {
	query := `SELECT ` + productColumns + productJoins + `
		WHERE p.status = 'active' AND p.category = $1 AND p.id != $2
		` + productGroupBy + `
		ORDER BY avg_rating DESC, p.created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}

	return collectProducts(rows)
}

// Featured returns active products with the most order lines, then best rated.
func (r *ProductsRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	query := `SELECT ` + productColumns + productJoins + `
		WHERE p.status = 'active'
		` + productGroupBy + `
		ORDER BY (SELECT COUNT(*) FROM order_items oi WHERE oi.product_id = p.id) DESC, avg_rating DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}

	return collectProducts(rows)
}

// trendingWindow bounds the orders and views that count toward a trend score.
const trendingWindow = "7 days"

// Trending scores active products by recent order lines (x3) plus recent
// product views. Products with no recent activity are omitted.
func (r *ProductsRepository) Trending(ctx context.Context, limit int) ([]models.ScoredProduct, error) {
	query := `SELECT ` + productColumns + `,
			(COALESCE(ro.orders, 0) * 3 + COALESCE(rv.views, 0))::float8 AS trend_score` +
		productJoins + `
		LEFT JOIN (
			SELECT product_id, COUNT(*) AS orders FROM order_items
			WHERE created_at > NOW() - $1::interval
			GROUP BY product_id
		) ro ON ro.product_id = p.id
		LEFT JOIN (
			SELECT data->>'product_id' AS product_id, COUNT(*) AS views FROM user_interactions
			WHERE event = 'product_view' AND created_at > NOW() - $1::interval
			GROUP BY data->>'product_id'
		) rv ON rv.product_id = p.id::text
		WHERE p.status = 'active' AND (ro.orders IS NOT NULL OR rv.views IS NOT NULL)
		GROUP BY p.id, u.name, ro.orders, rv.views
		ORDER BY trend_score DESC, avg_rating DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, trendingWindow, limit)
	if err != nil {
		return nil, fmt.Errorf("trending products: %w", err)
	}

	return collectScored(rows)
}

// FilterFacets reads categories, tag strings and the price range of active products.
func (r *ProductsRepository) FilterFacets(ctx context.Context) (*models.FilterFacets, error) {
	facets := &models.FilterFacets{Categories: []string{}, RawTags: []string{}}

	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM products WHERE status = 'active' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	facets.Categories, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}

	rows, err = r.db.Query(ctx, `SELECT tags FROM products WHERE status = 'active' AND tags != '' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	facets.RawTags, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tags: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(MIN(price), 0)::float8, COALESCE(MAX(price), 0)::float8
		FROM products WHERE status = 'active'`,
	).Scan(&facets.MinPrice, &facets.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}

	return facets, nil
}

// SmartFilter returns active products matching every facet in req.
func (r *ProductsRepository) SmartFilter(
	ctx context.Context, req *models.SmartFilterRequest, limit int,
) ([]models.Product, error) {
	query, args := buildSmartFilterQuery(req, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("smart filter: %w", err)
	}

	return collectProducts(rows)
}

func buildSmartFilterQuery(req *models.SmartFilterRequest, limit int) (string, []any) {
	var args []any

	conditions := []string{"p.status = 'active'"}
	argCount := 1

	if len(req.Categories) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.category = ANY($%d)", argCount))
		args = append(args, req.Categories)
		argCount++
	}

	if len(req.PriceRange) == 2 {
		lo, hi := req.PriceRange[0], req.PriceRange[1]
		if lo > hi {
			lo, hi = hi, lo
		}

		conditions = append(conditions, fmt.Sprintf("p.price BETWEEN $%d AND $%d", argCount, argCount+1))
		args = append(args, lo, hi)
		argCount += 2
	}

	if len(req.Tags) > 0 {
		tagConditions := make([]string, 0, len(req.Tags))

		for _, tag := range req.Tags {
			tagConditions = append(tagConditions, fmt.Sprintf("p.tags ILIKE $%d", argCount))
			args = append(args, containsPattern(tag))
			argCount++
		}

		conditions = append(conditions, "("+strings.Join(tagConditions, " OR ")+")")
	}

	query := `SELECT ` + productColumns + productJoins + ` WHERE ` + strings.Join(conditions, " AND ") + ` ` + productGroupBy

	if req.MinRating > 0 {
		query += fmt.Sprintf(" HAVING COALESCE(AVG(r.rating), 0) >= $%d", argCount)
		args = append(args, req.MinRating)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY avg_rating DESC, p.created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	return query, args
}

// ListByStatus returns products in status, oldest first (moderation queue order).
func (r *ProductsRepository) ListByStatus(ctx context.Context, status models.ProductStatus) ([]models.Product, error) {
	query := `SELECT ` + productColumns + productJoins + `
		WHERE p.status = $1
		` + productGroupBy + `
		ORDER BY p.created_at ASC`

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list products by status: %w", err)
	}

	return collectProducts(rows)
}

// SetStatus moves a product to status. It returns a NotFoundError for an
// unknown id and a ConflictError when the product already has that status.
func (r *ProductsRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ProductStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET status = $1, updated_at = NOW() WHERE id = $2 AND status != $1`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set product status: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string

	err = r.db.QueryRow(ctx, `SELECT status FROM products WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("product", "product not found")
		}

		return fmt.Errorf("failed to read product status: %w", err)
	}

	return apperrors.NewConflictError("product is already " + current)
}

// AdminStats counts users, products, orders and revenue across the storefront.
func (r *ProductsRepository) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products WHERE status = 'active'),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total_amount), 0)::float8 FROM orders),
			(SELECT COUNT(*) FROM products WHERE status = 'inactive'),
			(SELECT COUNT(*) FROM users WHERE role = 'vendor')`,
	).Scan(&stats.TotalUsers, &stats.TotalProducts, &stats.TotalOrders, &stats.TotalRevenue,
		&stats.PendingProducts, &stats.ActiveVendors)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	return &stats, nil
}

// VendorStats summarizes one vendor's products, revenue, rating and orders.
func (r *ProductsRepository) VendorStats(ctx context.Context, vendorID uuid.UUID) (*models.VendorStats, error) {
	var stats models.VendorStats

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE vendor_id = $1),
			(SELECT COALESCE(SUM(oi.price * oi.quantity), 0)::float8
				FROM order_items oi JOIN products p ON p.id = oi.product_id WHERE p.vendor_id = $1),
			(SELECT COALESCE(AVG(rv.rating), 0)::float8
				FROM reviews rv JOIN products p ON p.id = rv.product_id WHERE p.vendor_id = $1),
			(SELECT COUNT(DISTINCT oi.order_id)
				FROM order_items oi JOIN products p ON p.id = oi.product_id WHERE p.vendor_id = $1)`,
		vendorID,
	).Scan(&stats.TotalProducts, &stats.TotalRevenue, &stats.AverageRating, &stats.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("vendor stats: %w", err)
	}

	return &stats, nil
}
