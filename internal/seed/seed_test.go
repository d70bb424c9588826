package seed

import (
	"context"
	"errors"
	"testing"

	"modelgallery/internal/domain"
)

type memoryProducts struct {
	byID map[int64]domain.ProductRecord
}

func (m *memoryProducts) Upsert(_ context.Context, p domain.ProductRecord) (*domain.ProductRecord, error) {
	m.byID[p.ID] = p
	return &p, nil
}

type memoryAccounts struct {
	emails map[string]bool
	err    error
}

func (m *memoryAccounts) Signup(_ context.Context, email, _ string, _ string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.emails[email] {
		return nil, domain.ErrAlreadyExists
	}
	m.emails[email] = true
	return &domain.User{ID: "demo", Email: email}, nil
}

func TestApply_IsIdempotent(t *testing.T) {
	products := &memoryProducts{byID: map[int64]domain.ProductRecord{}}
	accounts := &memoryAccounts{emails: map[string]bool{}}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Apply(ctx, products, accounts, "https://cdn.example.com", nil); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}
	if len(products.byID) != 4 || !accounts.emails[DemoEmail] {
		t.Fatalf("unexpected seed result: %d products, accounts=%v", len(products.byID), accounts.emails)
	}
}

func TestApply_CoversViewerPaths(t *testing.T) {
	products := &memoryProducts{byID: map[int64]domain.ProductRecord{}}
	if err := Apply(context.Background(), products, &memoryAccounts{emails: map[string]bool{}}, "https://cdn.example.com", nil); err != nil {
		t.Fatalf("apply: %v", err)
	}

	lamp := products.byID[1]
	if lamp.ModelURL != "https://cdn.example.com/models/desk-lamp.glb" || !lamp.Complete() {
		t.Fatalf("unexpected lamp %+v", lamp)
	}
	if lamp.Price.StringFixed(2) != "49.90" {
		t.Fatalf("unexpected lamp price %s", lamp.Price)
	}
	if vase := products.byID[3]; vase.Complete() {
		t.Fatalf("vase should be incomplete: %+v", vase)
	}
	if clock := products.byID[4]; !domain.HasModelLocator(clock.ModelURL) {
		t.Fatalf("clock should carry a (broken) model locator: %+v", clock)
	}
}

func TestApply_SignupFailure(t *testing.T) {
	products := &memoryProducts{byID: map[int64]domain.ProductRecord{}}
	err := Apply(context.Background(), products, &memoryAccounts{err: errors.New("db down")}, "", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(products.byID) != 0 {
		t.Fatalf("no products expected after signup failure")
	}
}
