// Package seed installs a demo account and a small gallery for manual testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"
	"modelgallery/internal/domain"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "Gallery123"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.ProductRecord) (*domain.ProductRecord, error)
}

type AccountCreator interface {
	Signup(ctx context.Context, email, password, displayName string) (*domain.User, error)
}

type productSeed struct {
	ID       int64
	Name     string
	Category string
	Price    string
	Image    string
	Model    string
}

// The gallery deliberately covers every viewer path: certified models, an
// entry without a model locator and one whose model file does not exist.
var products = []productSeed{
	{ID: 1, Name: "Desk Lamp", Category: "Lighting", Price: "49.90", Image: "images/desk-lamp.jpg", Model: "models/desk-lamp.glb"},
	{ID: 2, Name: "Lounge Chair", Category: "Furniture", Price: "349.00", Image: "images/lounge-chair.jpg", Model: "models/lounge-chair.glb"},
	{ID: 3, Name: "Ceramic Vase", Category: "Decor", Price: "24.50", Image: "images/ceramic-vase.jpg"},
	{ID: 4, Name: "Wall Clock", Category: "Decor", Price: "39.99", Image: "images/wall-clock.jpg", Model: "models/missing/wall-clock.glb"},
}

// Apply is idempotent: products upsert by id and an existing demo account is kept.
func Apply(ctx context.Context, writer ProductWriter, accounts AccountCreator, assetBase string, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if _, err := accounts.Signup(ctx, DemoEmail, DemoPassword, "Demo Viewer"); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("ensure demo user: %w", err)
		}
		logger.Printf("seed: demo user %s already present", DemoEmail)
	}

	for _, p := range products {
		rec, err := p.record(assetBase)
		if err != nil {
			return err
		}
		if _, err := writer.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	logger.Printf("seed: %d products upserted", len(products))
	return nil
}

func (p productSeed) record(assetBase string) (domain.ProductRecord, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return domain.ProductRecord{}, fmt.Errorf("seed price for %s: %w", p.Name, err)
	}
	return domain.ProductRecord{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    price,
		ImageURL: assetURL(assetBase, p.Image),
		ModelURL: assetURL(assetBase, p.Model),
	}, nil
}

func assetURL(base, path string) string {
	if path == "" {
		return ""
	}
	return base + "/" + path
}
