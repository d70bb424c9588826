package acquire

import (
	"errors"
	"time"

	"modelgallery/internal/domain"
)

// Kind classifies how an attempt or a whole acquisition ended.
type Kind int

const (
	Certified Kind = iota
	Timeout
	NetworkError
	AuthExpired
	IncompleteData
	CertificationFailed
	RetriesExhausted
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Certified:
		return "certified"
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network_error"
	case AuthExpired:
		return "auth_expired"
	case IncompleteData:
		return "incomplete_data"
	case CertificationFailed:
		return "certification_failed"
	case RetriesExhausted:
		return "retries_exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Transient reports whether the kind is a network-layer fault worth retrying.
func (k Kind) Transient() bool {
	return k == Timeout || k == NetworkError
}

var (
	ErrTimeout             = errors.New("API request timed out")
	ErrIncompleteData      = errors.New("incomplete product data")
	ErrCertificationFailed = errors.New("model validation failed")
)

// Attempt records one trip through the attempt loop.
type Attempt struct {
	Ordinal   int
	Remaining time.Duration
	Outcome   Kind
	Err       error
}

// Result is what Fetch hands back: always a displayable record, plus its provenance.
type Result struct {
	Record    domain.ProductRecord
	Certified bool
	Outcome   Kind
	Err       error
	Attempts  []Attempt
}

// Message returns the diagnostic string for the caller, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
