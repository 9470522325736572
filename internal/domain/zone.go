package domain

import "fmt"

// ZoneKind distinguishes latent demand (below price) from latent supply (above price).
type ZoneKind string

const (
	ZoneDemand ZoneKind = "DEMAND"
	ZoneSupply ZoneKind = "SUPPLY"
)

// Zone is a liquidity zone (order block): the range of the candle that
// preceded an impulse move. PriceLow <= PriceHigh always holds.
// Mitigated is monotonic; once set it is never cleared.
type Zone struct {
	ID           string
	Symbol       string
	Kind         ZoneKind
	PriceLow     float64
	PriceHigh    float64
	Strength     float64 // impulse body / average prior range
	CreatedIndex int     // index of the impulse candle that produced the zone
	Mitigated    bool
}

// Contains reports whether price lies inside the zone bounds.
func (z Zone) Contains(price float64) bool {
	return price >= z.PriceLow && price <= z.PriceHigh
}

// Distance returns how far price is from the nearest zone bound, 0 if inside.
func (z Zone) Distance(price float64) float64 {
	switch {
	case price < z.PriceLow:
		return z.PriceLow - price
	case price > z.PriceHigh:
		return price - z.PriceHigh
	default:
		return 0
	}
}

func (z Zone) String() string {
	return fmt.Sprintf("%s %s [%.5f, %.5f]", z.Symbol, z.Kind, z.PriceLow, z.PriceHigh)
}
