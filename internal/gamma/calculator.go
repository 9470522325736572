// Package gamma aggregates options-chain snapshots into dealer gamma exposure.
package gamma

import (
	"math"
	"sort"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// ContractMultiplier is the fixed number of shares per contract.
const ContractMultiplier = 100

// Compute aggregates chain into a GEXSnapshot.
//
// Each contract contributes gamma*OI*100, positive for calls and negative for
// puts. The flip price is the strike whose accumulated signed GEX is closest
// to zero; strikes are scanned ascending and only a strictly smaller value
// replaces the current pick, so ties resolve to the lowest strike.
// A zero total counts as SHORT_GAMMA. An empty chain yields a zero snapshot
// flipping at spot.
func Compute(spot float64, chain []domain.OptionContract) domain.GEXSnapshot {
	snap := domain.GEXSnapshot{
		SpotPrice:      spot,
		GammaFlipPrice: spot,
		Regime:         domain.ShortGamma,
		ByStrike:       make(map[float64]float64),
	}
	if len(chain) == 0 {
		return snap
	}

	for _, c := range chain {
		gex := c.Gamma * c.OpenInterest * ContractMultiplier
		switch c.Type {
		case domain.Call:
			snap.CallGEX += gex
			snap.TotalGEX += gex
			snap.ByStrike[c.Strike] += gex
		case domain.Put:
			snap.PutGEX -= gex
			snap.TotalGEX -= gex
			snap.ByStrike[c.Strike] -= gex
		}
	}

	strikes := make([]float64, 0, len(snap.ByStrike))
	for k := range snap.ByStrike {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	best := math.Inf(1)
	for _, k := range strikes {
		if v := math.Abs(snap.ByStrike[k]); v < best {
			best = v
			snap.GammaFlipPrice = k
		}
	}

	if snap.TotalGEX > 0 {
		snap.Regime = domain.LongGamma
	}
	return snap
}
