package domain

import "fmt"

// RejectCode enumerates every reason a gate can refuse a request.
type RejectCode int

const (
	RejectNone RejectCode = iota
	RejectMissingStopLoss
	RejectMissingSymbol
	RejectInvalidSide
	RejectForbiddenRemoval
	RejectIllegalMove
	RejectZoneBlocked
	RejectGammaBlocked
)

// Reason is a structured rejection. Its String form carries the literal
// prefixes downstream systems match on (REJECTED, FORBIDDEN, ILLEGAL_MOVE,
// LIMIT_BLOCKED), so the prefixes must not change.
type Reason struct {
	Code RejectCode

	// populated depending on Code
	Side      string
	Price     float64
	CurrentSL float64
	NewSL     float64
	Zone      *Zone
}

func (r Reason) String() string {
	switch r.Code {
	case RejectNone:
		return ""
	case RejectMissingStopLoss:
		return "REJECTED: Mandatory Stop Loss is missing or invalid"
	case RejectMissingSymbol:
		return "REJECTED: symbol is required"
	case RejectInvalidSide:
		return fmt.Sprintf("REJECTED: invalid side %q", r.Side)
	case RejectForbiddenRemoval:
		return "FORBIDDEN: attempted SL removal"
	case RejectIllegalMove:
		return fmt.Sprintf("ILLEGAL_MOVE: %s stop loss %.5f -> %.5f increases risk", r.Side, r.CurrentSL, r.NewSL)
	case RejectZoneBlocked:
		if r.Zone == nil {
			return fmt.Sprintf("LIMIT_BLOCKED: %s at %.5f", r.Side, r.Price)
		}
		return fmt.Sprintf("LIMIT_BLOCKED: %s at %.5f into %s zone [%.5f, %.5f]",
			r.Side, r.Price, r.Zone.Kind, r.Zone.PriceLow, r.Zone.PriceHigh)
	case RejectGammaBlocked:
		return fmt.Sprintf("LIMIT_BLOCKED: %s at %.5f in short gamma regime", r.Side, r.Price)
	default:
		return fmt.Sprintf("REJECTED: unknown code %d", int(r.Code))
	}
}

// Label is a short metric/log-friendly name for the code.
func (c RejectCode) Label() string {
	switch c {
	case RejectNone:
		return "none"
	case RejectMissingStopLoss:
		return "missing_stop_loss"
	case RejectMissingSymbol:
		return "missing_symbol"
	case RejectInvalidSide:
		return "invalid_side"
	case RejectForbiddenRemoval:
		return "forbidden_removal"
	case RejectIllegalMove:
		return "illegal_move"
	case RejectZoneBlocked:
		return "zone_blocked"
	case RejectGammaBlocked:
		return "gamma_blocked"
	default:
		return "unknown"
	}
}

// PolicyViolation reports whether the code is a compliance event that must
// be logged at a higher severity (SL tampering, zone-crossing signals).
func (c RejectCode) PolicyViolation() bool {
	switch c {
	case RejectForbiddenRemoval, RejectIllegalMove, RejectZoneBlocked, RejectGammaBlocked:
		return true
	}
	return false
}

// Verdict is the tagged accept/reject result every gate returns.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

// Accept returns an accepting verdict.
func Accept() Verdict {
	return Verdict{Accepted: true}
}

// Reject returns a rejecting verdict carrying r.
func Reject(r Reason) Verdict {
	return Verdict{Reason: r}
}

func (v Verdict) String() string {
	if v.Accepted {
		return "ACCEPTED"
	}
	return v.Reason.String()
}
