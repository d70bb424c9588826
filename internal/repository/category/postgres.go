package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"modelgallery/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// List groups products by category name, ignoring case and surrounding
// whitespace. Products without a category are not counted.
func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT MIN(btrim(category)) AS name, COUNT(*)
FROM products
WHERE btrim(category) <> ''
GROUP BY lower(btrim(category))
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Name, &c.Products); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
