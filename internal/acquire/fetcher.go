// Package acquire fetches a product record and certifies its model, retrying
// only network-layer faults and degrading to a placeholder otherwise.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"modelgallery/internal/domain"
)

// Certifier decides whether a model locator is displayable.
type Certifier interface {
	Validate(ctx context.Context, locator string) bool
}

// Policy bounds the attempt loop. The delay is constant between attempts.
type Policy struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
}

// DefaultPolicy is three attempts of ten seconds each, one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, AttemptTimeout: 10 * time.Second, RetryDelay: time.Second}
}

// Budget is the longest a Fetch can spend in the attempt loop.
func (p Policy) Budget() time.Duration {
	if p.MaxRetries <= 0 {
		return 0
	}
	return time.Duration(p.MaxRetries)*p.AttemptTimeout + time.Duration(p.MaxRetries-1)*p.RetryDelay
}

// Fetcher is stateless across calls; one instance serves every viewer session.
type Fetcher struct {
	source    ProductSource
	certifier Certifier
	fallback  domain.Fallback
	policy    Policy
	clock     Clock
	logger    *log.Logger
}

func New(source ProductSource, certifier Certifier, fallback domain.Fallback, policy Policy, logger *log.Logger) *Fetcher {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Fetcher{
		source:    source,
		certifier: certifier,
		fallback:  fallback,
		policy:    policy,
		clock:     SystemClock{},
		logger:    logger,
	}
}

// WithClock swaps the clock used for the timeout race and the retry delay.
func (f *Fetcher) WithClock(c Clock) *Fetcher {
	f.clock = c
	return f
}

// Fetch always terminates and always returns a record. Only Certified results
// carry the real model; every other outcome carries placeholder values for
// whatever could not be obtained, plus a diagnostic in Err.
func (f *Fetcher) Fetch(ctx context.Context, id int64, credential string) Result {
	start := f.clock.Now()
	budget := f.policy.Budget()
	var (
		attempts []Attempt
		lastErr  error
	)

	for ordinal := 1; ordinal <= f.policy.MaxRetries; ordinal++ {
		if err := ctx.Err(); err != nil {
			return f.cancelled(id, err, attempts)
		}
		remaining := budget - f.clock.Now().Sub(start)

		rec, err := f.attempt(ctx, id, credential)
		if err == nil {
			attempts = append(attempts, Attempt{Ordinal: ordinal, Remaining: remaining})
			res := f.settle(ctx, id, *rec, attempts)
			res.Attempts[len(res.Attempts)-1].Outcome = res.Outcome
			res.Attempts[len(res.Attempts)-1].Err = res.Err
			return res
		}

		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			attempts = append(attempts, Attempt{Ordinal: ordinal, Remaining: remaining, Outcome: AuthExpired, Err: err})
			f.logger.Printf("acquire: product_id=%d auth expired on attempt %d", id, ordinal)
			return Result{Record: f.fallback.For(id), Outcome: AuthExpired, Err: err, Attempts: attempts}
		case ctx.Err() != nil:
			return f.cancelled(id, ctx.Err(), attempts)
		}

		kind := NetworkError
		if errors.Is(err, ErrTimeout) {
			kind = Timeout
		}
		attempts = append(attempts, Attempt{Ordinal: ordinal, Remaining: remaining, Outcome: kind, Err: err})
		lastErr = err
		f.logger.Printf("acquire: product_id=%d attempt %d/%d failed kind=%s error=%v", id, ordinal, f.policy.MaxRetries, kind, err)

		if ordinal < f.policy.MaxRetries {
			select {
			case <-f.clock.After(f.policy.RetryDelay):
			case <-ctx.Done():
				return f.cancelled(id, ctx.Err(), attempts)
			}
		}
	}

	f.logger.Printf("acquire: product_id=%d retries exhausted, using fallback: %v", id, lastErr)
	return Result{Record: f.fallback.For(id), Outcome: RetriesExhausted, Err: lastErr, Attempts: attempts}
}

// settle classifies a payload the API did return. None of these outcomes are
// retried: the same request would produce the same content.
func (f *Fetcher) settle(ctx context.Context, id int64, rec domain.ProductRecord, attempts []Attempt) Result {
	if rec.ID == 0 {
		rec.ID = id
	}
	if !rec.Complete() {
		f.logger.Printf("acquire: product_id=%d incomplete data image=%q model=%q, using fallback", id, rec.ImageURL, rec.ModelURL)
		return Result{
			Record:   f.fallback.Fill(rec),
			Outcome:  IncompleteData,
			Err:      ErrIncompleteData,
			Attempts: attempts,
		}
	}

	if f.certifier.Validate(ctx, rec.ModelURL) {
		return Result{Record: rec, Certified: true, Outcome: Certified, Attempts: attempts}
	}
	if err := ctx.Err(); err != nil {
		return f.cancelled(id, err, attempts)
	}
	f.logger.Printf("acquire: product_id=%d model validation failed url=%s, using fallback", id, rec.ModelURL)
	return Result{
		Record:   f.fallback.WithFallbackModel(rec),
		Outcome:  CertificationFailed,
		Err:      fmt.Errorf("%w: %s", ErrCertificationFailed, rec.ModelURL),
		Attempts: attempts,
	}
}

// attempt races one API call against the per-attempt timer. The losing call
// is abandoned and its context cancelled.
func (f *Fetcher) attempt(ctx context.Context, id int64, credential string) (*domain.ProductRecord, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	type reply struct {
		rec *domain.ProductRecord
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		rec, err := f.source.GetProduct(actx, id, credential)
		ch <- reply{rec: rec, err: err}
	}()

	var timer <-chan time.Time
	if f.policy.AttemptTimeout > 0 {
		timer = f.clock.After(f.policy.AttemptTimeout)
	}

	select {
	case r := <-ch:
		if r.err == nil && r.rec == nil {
			return nil, errors.New("empty product response")
		}
		return r.rec, r.err
	case <-timer:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Fetcher) cancelled(id int64, err error, attempts []Attempt) Result {
	return Result{Record: f.fallback.For(id), Outcome: Cancelled, Err: err, Attempts: attempts}
}
