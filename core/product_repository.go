package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is a catalog entry. Delete is soft: IsActive=false hides it from
// public listings while keeping the row.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"imageUrl"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductFilter narrows public listings. Search matches name or description,
// case-insensitive.
type ProductFilter struct {
	Category string
	Search   string
}

// ProductInput carries the fields accepted on create.
type ProductInput struct {
	Name        string
	Description *string
	Price       float64
	Category    string
	ImageURL    *string
	Stock       int
}

// ProductPatch carries optional updates; nil fields keep the current value.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	ImageURL    *string
	Stock       *int
	IsActive    *bool
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	Deactivate(ctx context.Context, id string) (*Product, error)
	Count(ctx context.Context) (int, error)
}

// PgProductRepository implements ProductRepository using pgxpool.
type PgProductRepository struct {
	db *pgxpool.Pool
}

func NewPgProductRepository(db *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{db: db}
}

const productColumns = `id, name, description, price, category, image_url, stock, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns active products newest first, optionally filtered by category
// and a case-insensitive search over name and description.
func (r *PgProductRepository) List(ctx context.Context, filter ProductFilter) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE is_active`
	args := []any{}
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, c)
		q += ` AND category=$1`
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		q += ` AND (name ILIKE $` + n + ` OR description ILIKE $` + n + `)`
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r *PgProductRepository) Get(ctx context.Context, id string) (*Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	return scanProduct(r.db.QueryRow(ctx, q, id))
}

func (r *PgProductRepository) Create(ctx context.Context, in ProductInput) (*Product, error) {
	const q = `
INSERT INTO products (id, name, description, price, category, image_url, stock)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q, NewID(), strings.TrimSpace(in.Name), in.Description, in.Price, strings.TrimSpace(in.Category), in.ImageURL, in.Stock))
}

// Update applies a partial patch: fetch current, overlay given fields, write back.
func (r *PgProductRepository) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		current.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		current.Description = patch.Description
	}
	if patch.Price != nil {
		current.Price = *patch.Price
	}
	if patch.Category != nil {
		current.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.ImageURL != nil {
		current.ImageURL = patch.ImageURL
	}
	if patch.Stock != nil {
		current.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		current.IsActive = *patch.IsActive
	}

	const q = `
UPDATE products
SET name=$1, description=$2, price=$3, category=$4, image_url=$5, stock=$6, is_active=$7, updated_at=now()
WHERE id=$8
RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q, current.Name, current.Description, current.Price, current.Category, current.ImageURL, current.Stock, current.IsActive, id))
}

// Deactivate soft-deletes a product and returns the updated row.
func (r *PgProductRepository) Deactivate(ctx context.Context, id string) (*Product, error) {
	const q = `UPDATE products SET is_active=FALSE, updated_at=now() WHERE id=$1 RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q, id))
}

func (r *PgProductRepository) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM products`
	var total int
	if err := r.db.QueryRow(ctx, q).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
