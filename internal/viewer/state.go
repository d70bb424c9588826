package viewer

import (
	"fmt"

	"modelgallery/internal/domain"
)

// Phase is the controller's position in Idle → Loading → {Ready, Degraded}.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Degraded
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name in JSON state payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, candidate := range []Phase{Idle, Loading, Ready, Degraded} {
		if candidate.String() == string(b) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown viewer phase %q", b)
}

// State is the externally observable viewer state. Values returned by the
// controller are copies; mutating them has no effect on the session.
type State struct {
	Phase         Phase                 `json:"phase"`
	ProductID     int64                 `json:"product_id"`
	Record        *domain.ProductRecord `json:"record"`
	AssetReady    bool                  `json:"asset_ready"`
	Loading       bool                  `json:"loading"`
	LastError     *string               `json:"last_error"`
	Outcome       string                `json:"outcome,omitempty"`
	LoginRequired bool                  `json:"login_required"`
	Generation    uint64                `json:"generation"`
}

func (s State) clone() State {
	out := s
	if s.Record != nil {
		rec := *s.Record
		out.Record = &rec
	}
	if s.LastError != nil {
		msg := *s.LastError
		out.LastError = &msg
	}
	return out
}
