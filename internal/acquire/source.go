package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"modelgallery/internal/domain"
)

const maxProductBody = 1 << 20

// ProductSource retrieves a single product record from the catalog API.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64, credential string) (*domain.ProductRecord, error)
}

// StatusError reports a non-2xx, non-401 catalog response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch product: %s", e.Status)
}

// HTTPSource calls GET {base}/api/products/{id} with a bearer credential.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSource) GetProduct(ctx context.Context, id int64, credential string) (*domain.ProductRecord, error) {
	url := fmt.Sprintf("%s/api/products/%d", s.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch product %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var rec domain.ProductRecord
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxProductBody))
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode product %d: empty body", id)
		}
		return nil, fmt.Errorf("decode product %d: %w", id, err)
	}
	return &rec, nil
}
