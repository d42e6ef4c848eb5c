package repository

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/formbricks/storefront/internal/models"
)

// productColumns selects a product joined with its vendor name and average rating.
// Queries using it must include productJoins and GROUP BY p.id, u.name.
const productColumns = `
	p.id, p.vendor_id, u.name AS vendor_name, p.name, p.description, p.category,
	p.price::float8 AS price, p.stock_quantity, COALESCE(p.image_url, '') AS image_url,
	p.tags, p.status, (p.embedding IS NOT NULL) AS has_embedding, p.created_at, p.updated_at,
	COALESCE(AVG(r.rating), 0)::float8 AS avg_rating`

const productJoins = `
	FROM products p
	JOIN users u ON u.id = p.vendor_id
	LEFT JOIN reviews r ON r.product_id = p.id`

const productGroupBy = `GROUP BY p.id, u.name`

// scanProduct scans productColumns followed by any extra destinations.
func scanProduct(row pgx.Row, extra ...any) (models.Product, error) {
	var (
		product models.Product
		tags    string
		status  string
	)

	dest := make([]any, 0, 15+len(extra))
	dest = append(dest,
		&product.ID, &product.VendorID, &product.VendorName, &product.Name, &product.Description, &product.Category,
		&product.Price, &product.StockQuantity, &product.ImageURL,
		&tags, &status, &product.HasEmbedding, &product.CreatedAt, &product.UpdatedAt,
		&product.AvgRating,
	)
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return models.Product{}, err
	}

	product.Tags = models.SplitTags(tags)
	product.Status = models.ProductStatus(status)

	return product, nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := []models.Product{}

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}

// collectScored scans rows of productColumns followed by one float8 score column.
func collectScored(rows pgx.Rows) ([]models.ScoredProduct, error) {
	defer rows.Close()

	results := []models.ScoredProduct{}

	for rows.Next() {
		var score float64

		product, err := scanProduct(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan scored product: %w", err)
		}

		results = append(results, models.ScoredProduct{Product: product, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scored products: %w", err)
	}

	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a LIKE pattern matching s anywhere, with wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// prefixPattern returns a LIKE pattern matching values starting with s.
func prefixPattern(s string) string {
	return likeEscaper.Replace(s) + "%"
}
