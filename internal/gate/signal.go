// Package gate validates trade signals against liquidity zones and dealer
// gamma positioning before they reach order submission.
package gate

import (
	"github.com/alejandrodnm/riskgate/internal/domain"
)

// DefaultTolerance suits FX-scale instruments (5 pips).
const DefaultTolerance = 0.0005

// Tolerances maps symbols to an absolute price buffer via their instrument class.
type Tolerances struct {
	Default     float64
	ByClass     map[string]float64 // class -> absolute distance
	Instruments map[string]string  // symbol -> class
}

// For returns the tolerance configured for symbol's class, or Default.
func (t Tolerances) For(symbol string) float64 {
	if class, ok := t.Instruments[symbol]; ok {
		if v, ok := t.ByClass[class]; ok {
			return v
		}
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultTolerance
}

// Signal is a candidate trade direction at a price.
type Signal struct {
	Symbol string
	Side   domain.SignalSide
	Price  float64
}

// SignalGate rejects signals that would trade into an opposing active zone.
// It holds no mutable state.
type SignalGate struct {
	tolerances      Tolerances
	blockShortGamma bool
}

// NewSignalGate creates a gate. When blockShortGamma is set, signals are also
// rejected while the symbol's latest snapshot is SHORT_GAMMA.
func NewSignalGate(tol Tolerances, blockShortGamma bool) *SignalGate {
	return &SignalGate{tolerances: tol, blockShortGamma: blockShortGamma}
}

// Validate decides on sig given the nearest active supply and demand zones
// (nil when none exists). BUY is blocked when price >= supply.PriceLow - tol;
// SELL is blocked when price <= demand.PriceHigh + tol.
func (g *SignalGate) Validate(sig Signal, nearestSupply, nearestDemand *domain.Zone) domain.Verdict {
	return Validate(sig, g.tolerances.For(sig.Symbol), nearestSupply, nearestDemand)
}

// ValidateWithGamma applies the zone check and then, if enabled, the gamma
// regime filter. A nil snapshot never blocks.
func (g *SignalGate) ValidateWithGamma(sig Signal, nearestSupply, nearestDemand *domain.Zone, snap *domain.GEXSnapshot) domain.Verdict {
	v := g.Validate(sig, nearestSupply, nearestDemand)
	if !v.Accepted || !g.blockShortGamma || snap == nil {
		return v
	}
	if snap.Regime == domain.ShortGamma {
		return domain.Reject(domain.Reason{
			Code:  domain.RejectGammaBlocked,
			Side:  string(sig.Side),
			Price: sig.Price,
		})
	}
	return v
}

// Validate is the pure zone check with an explicit tolerance. A side other
// than BUY or SELL is rejected.
func Validate(sig Signal, tolerance float64, nearestSupply, nearestDemand *domain.Zone) domain.Verdict {
	switch sig.Side {
	case domain.SignalBuy:
		if nearestSupply != nil && sig.Price >= nearestSupply.PriceLow-tolerance {
			return blocked(sig, nearestSupply)
		}
	case domain.SignalSell:
		if nearestDemand != nil && sig.Price <= nearestDemand.PriceHigh+tolerance {
			return blocked(sig, nearestDemand)
		}
	default:
		return domain.Reject(domain.Reason{
			Code:  domain.RejectInvalidSide,
			Side:  string(sig.Side),
			Price: sig.Price,
		})
	}
	return domain.Accept()
}

func blocked(sig Signal, z *domain.Zone) domain.Verdict {
	zone := *z
	return domain.Reject(domain.Reason{
		Code:  domain.RejectZoneBlocked,
		Side:  string(sig.Side),
		Price: sig.Price,
		Zone:  &zone,
	})
}
