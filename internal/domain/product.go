package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ModelExtension is the canonical suffix of binary glTF model locators.
const ModelExtension = ".glb"

func init() {
	// The catalog API and the browser gallery both expect price as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductRecord is a catalog product as served by GET /api/products/{id}.
type ProductRecord struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	ModelURL string          `json:"model_url"`
}

// Complete reports whether both the preview image and the model locator are present.
func (p ProductRecord) Complete() bool {
	return strings.TrimSpace(p.ImageURL) != "" && strings.TrimSpace(p.ModelURL) != ""
}

// HasModelLocator reports whether locator is syntactically eligible for validation.
func HasModelLocator(locator string) bool {
	return locator != "" && strings.HasSuffix(locator, ModelExtension)
}
