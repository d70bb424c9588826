package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"modelgallery/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id, name, category, price::text, COALESCE(image_url, ''), COALESCE(model_url, '')`

// List returns products whose name or category contains query, case-insensitively.
// An empty query lists everything.
func (r *postgresRepo) List(ctx context.Context, query string) ([]domain.ProductRecord, error) {
	q := `
SELECT ` + selectColumns + `
FROM products
WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
ORDER BY id
`
	query = escapeLike(strings.TrimSpace(query))
	rows, err := r.pool.Query(ctx, q, query)
	if err != nil {
		r.logger.Printf("product repo: list query=%q error=%v", query, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.ProductRecord{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows query=%q error=%v", query, err)
		return nil, err
	}
	r.logger.Printf("product repo: list query=%q count=%d", query, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.ProductRecord, error) {
	q := `
SELECT ` + selectColumns + `
FROM products
WHERE id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%d error=%v", id, err)
		return nil, err
	}
	r.logger.Printf("product repo: get id=%d name=%s", id, p.Name)
	return &p, nil
}

// Upsert inserts a product, or updates it when ID is set and already exists.
// A zero ID lets the database assign one.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.ProductRecord) (*domain.ProductRecord, error) {
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("product repo: negative price for %q", p.Name)
	}
	const q = `
INSERT INTO products (id, name, category, price, image_url, model_url)
VALUES (COALESCE(NULLIF($1, 0), nextval('products_id_seq')), $2, $3, $4::numeric, NULLIF($5, ''), NULLIF($6, ''))
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    price = EXCLUDED.price,
    image_url = EXCLUDED.image_url,
    model_url = EXCLUDED.model_url
RETURNING id
`
	res := p
	err := r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Category, p.Price.String(), p.ImageURL, p.ModelURL).Scan(&res.ID)
	if err != nil {
		r.logger.Printf("product repo: upsert name=%s id=%d error=%v", p.Name, p.ID, err)
		return nil, err
	}
	if p.ID != 0 {
		// Explicit ids bypass the sequence; keep it ahead of them.
		const bump = `SELECT setval('products_id_seq', GREATEST((SELECT MAX(id) FROM products), 1))`
		if _, err := r.pool.Exec(ctx, bump); err != nil {
			r.logger.Printf("product repo: bump sequence id=%d error=%v", p.ID, err)
			return nil, err
		}
	}
	r.logger.Printf("product repo: upserted name=%s id=%d", res.Name, res.ID)
	return &res, nil
}

func scanProduct(row pgx.Row) (domain.ProductRecord, error) {
	var (
		p     domain.ProductRecord
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &price, &p.ImageURL, &p.ModelURL); err != nil {
		return domain.ProductRecord{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.ProductRecord{}, fmt.Errorf("product repo: parse price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
