package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is the sellable backing a subscription type.
type Product struct {
	ProductID string
	Name      string
}

// Catalog resolves the product configured for a subscription type within
// a company.
type Catalog interface {
	Product(ctx context.Context, companyID string, subType Type) (Product, error)
}

// MemoryCatalog is a fixed in-memory catalog for tests and dev mode.
type MemoryCatalog struct {
	products map[Type]Product
}

// NewMemoryCatalog builds a catalog over a static type-to-product map.
func NewMemoryCatalog(products map[Type]Product) *MemoryCatalog {
	return &MemoryCatalog{products: products}
}

// Product resolves the product for a subscription type.
func (c *MemoryCatalog) Product(_ context.Context, _ string, subType Type) (Product, error) {
	p, ok := c.products[subType]
	if !ok {
		return Product{}, fmt.Errorf("%w: no product for type %q", ErrInvalidType, subType)
	}
	return p, nil
}

// PostgresCatalog reads subscription products from PostgreSQL.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

// NewPostgresCatalog builds a Postgres-backed catalog.
func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Product resolves the product for a subscription type.
func (c *PostgresCatalog) Product(ctx context.Context, companyID string, subType Type) (Product, error) {
	row := c.db.QueryRow(ctx, `SELECT product_id, name FROM subscription_products
        WHERE company_id = $1 AND type = $2`, companyID, subType)
	var p Product
	if err := row.Scan(&p.ProductID, &p.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: no product for type %q", ErrInvalidType, subType)
		}
		return Product{}, err
	}
	return p, nil
}
