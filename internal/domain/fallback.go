package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fallback holds the placeholder product shown whenever a real model cannot be
// certified. It is built once at startup and never mutated; every accessor
// returns a copy.
type Fallback struct {
	record ProductRecord
}

var fallbackPrice = decimal.RequireFromString("99.99")

// NewFallback builds the placeholder record from the asset base URL. The
// placeholder image and model must be verified at deployment time; they are
// never validated at runtime.
func NewFallback(assetBase string) Fallback {
	base := strings.TrimRight(assetBase, "/")
	return Fallback{record: ProductRecord{
		Name:     "Sample Product",
		Category: "General",
		Price:    fallbackPrice,
		ImageURL: base + "/images/fallback.jpg",
		ModelURL: base + "/models/fallback.glb",
	}}
}

// For returns the full placeholder record carrying the requested product id.
func (f Fallback) For(id int64) ProductRecord {
	rec := f.record
	rec.ID = id
	return rec
}

// ImageURL returns the placeholder preview image locator.
func (f Fallback) ImageURL() string { return f.record.ImageURL }

// ModelURL returns the placeholder model locator.
func (f Fallback) ModelURL() string { return f.record.ModelURL }

// Fill keeps every real field of rec and substitutes placeholder values for the
// missing ones. A zero price is a real price and is kept.
func (f Fallback) Fill(rec ProductRecord) ProductRecord {
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = f.record.Name
	}
	if strings.TrimSpace(rec.Category) == "" {
		rec.Category = f.record.Category
	}
	if strings.TrimSpace(rec.ImageURL) == "" {
		rec.ImageURL = f.record.ImageURL
	}
	if strings.TrimSpace(rec.ModelURL) == "" {
		rec.ModelURL = f.record.ModelURL
	}
	return rec
}

// WithFallbackModel keeps the real metadata of rec, fills missing fields and
// always swaps the model for the placeholder model. Unlike Fill, a zero price
// is replaced too: the whole record is presented as the placeholder showcase.
func (f Fallback) WithFallbackModel(rec ProductRecord) ProductRecord {
	rec = f.Fill(rec)
	if rec.Price.IsZero() {
		rec.Price = f.record.Price
	}
	rec.ModelURL = f.record.ModelURL
	return rec
}
