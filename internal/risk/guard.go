package risk

import (
	"github.com/alejandrodnm/riskgate/internal/domain"
)

// StopLossGuard is the only path through which a stop loss may change.
// It allows removal never and movement only in the risk-reducing direction.
type StopLossGuard struct{}

// NewStopLossGuard returns a guard.
func NewStopLossGuard() *StopLossGuard {
	return &StopLossGuard{}
}

// ValidateModification decides whether currentSL may become newSL.
// A nil or non-positive newSL is a removal attempt. LONG requires
// newSL >= currentSL, SHORT requires newSL <= currentSL.
func (g *StopLossGuard) ValidateModification(currentSL float64, newSL *float64, side domain.PositionSide, entryPrice float64) domain.Verdict {
	if newSL == nil || !(*newSL > 0) {
		return domain.Reject(domain.Reason{Code: domain.RejectForbiddenRemoval, Side: string(side), CurrentSL: currentSL})
	}
	illegal := domain.Reject(domain.Reason{
		Code:      domain.RejectIllegalMove,
		Side:      string(side),
		CurrentSL: currentSL,
		NewSL:     *newSL,
	})
	switch side {
	case domain.Long:
		if *newSL < currentSL {
			return illegal
		}
	case domain.Short:
		if *newSL > currentSL {
			return illegal
		}
	default:
		return domain.Reject(domain.Reason{Code: domain.RejectInvalidSide, Side: string(side)})
	}
	return domain.Accept()
}

// Apply validates and, if accepted, writes newSL to p atomically with the
// check so two concurrent requests cannot both pass against a stale value.
func (g *StopLossGuard) Apply(p *Position, newSL *float64) domain.Verdict {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := g.ValidateModification(p.stopLoss, newSL, p.Side, p.EntryPrice)
	if v.Accepted {
		p.stopLoss = *newSL
	}
	return v
}
