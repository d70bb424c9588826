package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"modelgallery/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash, display_name)
VALUES ($1, $2, NULLIF($3, ''))
RETURNING id::text, email, password_hash, COALESCE(display_name, ''), created_at
`
	out, err := scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash, u.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: create email=%s error=%v", u.Email, err)
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s", out.ID)
	return out, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, COALESCE(display_name, ''), created_at
FROM users
WHERE email = $1
`
	return r.get(ctx, q, strings.ToLower(strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, COALESCE(display_name, ''), created_at
FROM users
WHERE id = $1::uuid
`
	return r.get(ctx, q, id)
}

func (r *postgresRepo) get(ctx context.Context, q, arg string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("user repo: get key=%s error=%v", arg, err)
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
