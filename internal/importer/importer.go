// Package importer loads gallery catalogs from CSV or YAML files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"modelgallery/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.ProductRecord) (*domain.ProductRecord, error)
}

// Format names a catalog file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown catalog format for %q", path)
	}
}

// Run imports every product in r and returns how many were written.
func Run(ctx context.Context, format Format, r io.Reader, writer ProductWriter) (int, error) {
	switch format {
	case FormatCSV:
		return NewCSVImporter(r, writer).Run(ctx)
	case FormatYAML:
		return NewYAMLImporter(r, writer).Run(ctx)
	default:
		return 0, fmt.Errorf("unsupported catalog format %q", format)
	}
}

// row is one catalog entry before validation.
type row struct {
	ID       string
	Name     string
	Category string
	Price    string
	ImageURL string
	ModelURL string
}

// record validates a row. Missing image or model locators are accepted:
// the viewer falls back for incomplete products.
func (r row) record() (domain.ProductRecord, error) {
	var rec domain.ProductRecord
	if r.ID != "" {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil || id <= 0 {
			return rec, fmt.Errorf("invalid id %q", r.ID)
		}
		rec.ID = id
	}
	rec.Name = strings.TrimSpace(r.Name)
	if rec.Name == "" {
		return rec, errors.New("name is required")
	}
	rec.Category = strings.TrimSpace(r.Category)

	price := strings.TrimSpace(r.Price)
	if price == "" {
		return rec, fmt.Errorf("price is required for %q", rec.Name)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return rec, fmt.Errorf("invalid price %q for %q", price, rec.Name)
	}
	if d.IsNegative() {
		return rec, fmt.Errorf("negative price for %q", rec.Name)
	}
	rec.Price = d.Round(2)

	rec.ImageURL = strings.TrimSpace(r.ImageURL)
	rec.ModelURL = strings.TrimSpace(r.ModelURL)
	if rec.ModelURL != "" && !domain.HasModelLocator(rec.ModelURL) {
		return rec, fmt.Errorf("model_url for %q must end with %s", rec.Name, domain.ModelExtension)
	}
	return rec, nil
}

func save(ctx context.Context, writer ProductWriter, r row, line int) error {
	rec, err := r.record()
	if err != nil {
		return fmt.Errorf("entry %d: %w", line, err)
	}
	if _, err := writer.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert product %q: %w", rec.Name, err)
	}
	return nil
}

// CSVImporter reads catalogs with the header
// id,name,category,price,image_url,model_url. Column order is free and id
// may be omitted.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
}

func NewCSVImporter(r io.Reader, writer ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: writer}
}

// Run parses rows and upserts one product per non-blank row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("read headers: name column missing")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		r := row{
			ID:       pick(record, index, "id"),
			Name:     pick(record, index, "name"),
			Category: pick(record, index, "category"),
			Price:    pick(record, index, "price"),
			ImageURL: pick(record, index, "image_url"),
			ModelURL: pick(record, index, "model_url"),
		}
		if err := save(ctx, i.writer, r, line); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// YAMLImporter reads catalogs shaped as
//
//	products:
//	  - id: 1
//	    name: Desk Lamp
//	    price: 49.90
//	    model_url: https://cdn.example.com/models/lamp.glb
type YAMLImporter struct {
	reader io.Reader
	writer ProductWriter
}

type yamlCatalog struct {
	Products []yamlProduct `yaml:"products"`
}

// Price is kept as a raw node so 49.90 is not rounded through float64.
type yamlProduct struct {
	ID       int64     `yaml:"id"`
	Name     string    `yaml:"name"`
	Category string    `yaml:"category"`
	Price    yaml.Node `yaml:"price"`
	ImageURL string    `yaml:"image_url"`
	ModelURL string    `yaml:"model_url"`
}

func NewYAMLImporter(r io.Reader, writer ProductWriter) *YAMLImporter {
	return &YAMLImporter{reader: r, writer: writer}
}

func (i *YAMLImporter) Run(ctx context.Context) (int, error) {
	var catalog yamlCatalog
	dec := yaml.NewDecoder(i.reader)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("decode yaml: %w", err)
	}

	imported := 0
	for n, p := range catalog.Products {
		r := row{
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price.Value,
			ImageURL: p.ImageURL,
			ModelURL: p.ModelURL,
		}
		if p.ID != 0 {
			r.ID = strconv.FormatInt(p.ID, 10)
		}
		if err := save(ctx, i.writer, r, n+1); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
