package risk

import (
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/google/uuid"
)

// OrderValidator is the last completeness check before submission.
// Checks run in order and the first failure wins.
type OrderValidator struct {
	now func() time.Time
}

// NewOrderValidator returns a validator stamping positions with time.Now.
func NewOrderValidator() *OrderValidator {
	return &OrderValidator{now: time.Now}
}

// Validate checks, in order: stop loss present and > 0, symbol non-empty,
// side LONG or SHORT.
func (v *OrderValidator) Validate(o domain.Order) domain.Verdict {
	if o.StopLoss == nil || !(*o.StopLoss > 0) || math.IsInf(*o.StopLoss, 0) {
		return domain.Reject(domain.Reason{Code: domain.RejectMissingStopLoss})
	}
	if strings.TrimSpace(o.Symbol) == "" {
		return domain.Reject(domain.Reason{Code: domain.RejectMissingSymbol})
	}
	if !o.Side.Valid() {
		return domain.Reject(domain.Reason{Code: domain.RejectInvalidSide, Side: string(o.Side)})
	}
	return domain.Accept()
}

// Open validates o and, if accepted, creates the Position it opens.
func (v *OrderValidator) Open(o domain.Order) (*Position, domain.Verdict) {
	verdict := v.Validate(o)
	if !verdict.Accepted {
		return nil, verdict
	}

	p := &Position{
		ID:         uuid.New().String(),
		Symbol:     o.Symbol,
		Side:       o.Side,
		EntryPrice: o.EntryPrice,
		OpenedAt:   v.now().UTC(),

		InitialStopLoss: *o.StopLoss,
		stopLoss:        *o.StopLoss,
	}
	if o.TakeProfit != nil {
		tp := *o.TakeProfit
		p.TakeProfit = &tp
	}
	return p, verdict
}
