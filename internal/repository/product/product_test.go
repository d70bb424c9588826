package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"modelgallery/internal/domain"
	"modelgallery/internal/migrate"
)

func TestPostgres_UpsertGetAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)

	chair, err := repo.Upsert(ctx, domain.ProductRecord{
		Name:     "Lounge Chair",
		Category: "Furniture",
		Price:    decimal.RequireFromString("349.00"),
		ImageURL: "https://cdn.example.com/chair.jpg",
		ModelURL: "https://cdn.example.com/chair.glb",
	})
	if err != nil {
		t.Fatalf("Upsert chair: %v", err)
	}
	if chair.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if _, err := repo.Upsert(ctx, domain.ProductRecord{ID: 50, Name: "Desk Lamp", Category: "Lighting", Price: decimal.NewFromInt(40)}); err != nil {
		t.Fatalf("Upsert lamp: %v", err)
	}

	got, err := repo.GetByID(ctx, chair.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Lounge Chair" || !got.Price.Equal(decimal.RequireFromString("349")) || got.ModelURL != chair.ModelURL {
		t.Fatalf("unexpected product %+v", got)
	}

	lamp, err := repo.GetByID(ctx, 50)
	if err != nil {
		t.Fatalf("GetByID lamp: %v", err)
	}
	if lamp.ImageURL != "" || lamp.ModelURL != "" || lamp.Complete() {
		t.Fatalf("expected incomplete lamp, got %+v", lamp)
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
	lighting, err := repo.List(ctx, "LIGHT")
	if err != nil {
		t.Fatalf("List lighting: %v", err)
	}
	if len(lighting) != 1 || lighting[0].ID != 50 {
		t.Fatalf("unexpected search result %+v", lighting)
	}
	none, err := repo.List(ctx, "%")
	if err != nil {
		t.Fatalf("List wildcard: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("wildcard must be matched literally, got %+v", none)
	}

	next, err := repo.Upsert(ctx, domain.ProductRecord{Name: "Rug", Category: "Decor"})
	if err != nil {
		t.Fatalf("Upsert after explicit id: %v", err)
	}
	if next.ID <= 50 {
		t.Fatalf("sequence not advanced past explicit id, got %d", next.ID)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_UpsertRejectsNegativePrice(t *testing.T) {
	repo := NewPostgres(nil, nil)
	if _, err := repo.Upsert(context.Background(), domain.ProductRecord{Name: "x", Price: decimal.NewFromInt(-1)}); err == nil {
		t.Fatalf("expected negative price to be rejected")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE tokens, users, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
