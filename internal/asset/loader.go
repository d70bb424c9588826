package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/qmuntal/gltf"
)

// Loader preloads a model through the rendering library so that corrupt or
// truncated payloads with a valid header are rejected before display.
type Loader interface {
	Load(ctx context.Context, locator string) error
}

// GLTFLoader downloads a GLB container and decodes it with qmuntal/gltf.
type GLTFLoader struct {
	client   *http.Client
	maxBytes int64
}

// NewGLTFLoader returns a loader that refuses payloads larger than maxBytes.
func NewGLTFLoader(client *http.Client, maxBytes int64) *GLTFLoader {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &GLTFLoader{client: client, maxBytes: maxBytes}
}

func (l *GLTFLoader) Load(ctx context.Context, locator string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return fmt.Errorf("model exceeds %d bytes", l.maxBytes)
	}
	if h, err := ParseHeader(data); err != nil {
		return err
	} else if h.Length != 0 && int64(h.Length) != int64(len(data)) {
		return fmt.Errorf("declared length %d, got %d bytes", h.Length, len(data))
	}

	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return fmt.Errorf("decode glb: %w", err)
	}
	return nil
}
