// Package asset certifies that a model locator points at a fetchable, well-formed
// binary glTF file without trusting the HTTP status alone.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"modelgallery/internal/domain"
)

// Default per-step deadlines, used when New is given a non-positive timeout.
// The shared certification run outlives its callers, so it always needs one.
const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultLoadTimeout  = 30 * time.Second
)

// Validator runs the five certification checks against a model locator.
type Validator struct {
	client       *http.Client
	loader       Loader
	probeTimeout time.Duration
	loadTimeout  time.Duration
	logger       *log.Logger
	group        singleflight.Group
}

// New builds a Validator. A nil loader falls back to a GLTFLoader sharing client.
func New(client *http.Client, loader Loader, probeTimeout, loadTimeout time.Duration, logger *log.Logger) *Validator {
	if client == nil {
		client = http.DefaultClient
	}
	if loader == nil {
		loader = NewGLTFLoader(client, 0)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	return &Validator{
		client:       client,
		loader:       loader,
		probeTimeout: probeTimeout,
		loadTimeout:  loadTimeout,
		logger:       logger,
	}
}

// Validate reports whether locator passes every check. It never returns an
// error: any failure, including ctx cancellation, yields false. Concurrent
// calls for the same locator share one certification run.
func (v *Validator) Validate(ctx context.Context, locator string) bool {
	if !domain.HasModelLocator(locator) {
		v.logger.Printf("asset validator: reject url=%q reason=malformed locator", locator)
		return false
	}

	ch := v.group.DoChan(locator, func() (interface{}, error) {
		// Shared by all waiters, so one caller giving up must not fail the others.
		err := v.certify(context.WithoutCancel(ctx), locator)
		if err != nil {
			v.logger.Printf("asset validator: reject url=%s reason=%v", locator, err)
			return false, nil
		}
		v.logger.Printf("asset validator: certified url=%s", locator)
		return true, nil
	})
	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

func (v *Validator) certify(ctx context.Context, locator string) error {
	if err := v.probeHead(ctx, locator); err != nil {
		return err
	}
	prefix, err := v.probeRange(ctx, locator)
	if err != nil {
		return err
	}
	// Only the signature is decisive here; the loader checks version and length.
	if len(prefix) < len(Magic) {
		return ErrShortHeader
	}
	if !HasMagic(prefix) {
		return ErrBadMagic
	}

	loadCtx, cancel := context.WithTimeout(ctx, v.loadTimeout)
	defer cancel()
	if err := v.loader.Load(loadCtx, locator); err != nil {
		return fmt.Errorf("preload: %w", err)
	}
	return nil
}

func (v *Validator) probeHead(ctx context.Context, locator string) error {
	ctx, cancel := context.WithTimeout(ctx, v.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, locator, nil)
	if err != nil {
		return fmt.Errorf("head: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("head: %w", err)
	}
	resp.Body.Close()
	if !success(resp.StatusCode) {
		return fmt.Errorf("head: status %d", resp.StatusCode)
	}
	return nil
}

func (v *Validator) probeRange(ctx context.Context, locator string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, v.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", HeaderSize-1))
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	defer resp.Body.Close()
	if !success(resp.StatusCode) {
		return nil, fmt.Errorf("range: status %d", resp.StatusCode)
	}

	// Servers that ignore Range send the whole file; only the prefix is read.
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("range: read: %w", err)
	}
	return buf[:n], nil
}

func success(status int) bool {
	return status >= 200 && status <= 299
}
