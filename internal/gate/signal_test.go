package gate_test

import (
	"strings"
	"testing"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTolerances_For(t *testing.T) {
	tol := gate.Tolerances{
		Default:     0.0005,
		ByClass:     map[string]float64{"index": 2.5},
		Instruments: map[string]string{"SPX": "index", "EURUSD": "fx"},
	}
	assert.Equal(t, 2.5, tol.For("SPX"))
	assert.Equal(t, 0.0005, tol.For("EURUSD"), "unknown class falls back to default")
	assert.Equal(t, 0.0005, tol.For("GBPUSD"))
	assert.Equal(t, gate.DefaultTolerance, gate.Tolerances{}.For("X"))
}

func TestSignalGate_Validate(t *testing.T) {
	supply := &domain.Zone{Kind: domain.ZoneSupply, PriceLow: 1.1000, PriceHigh: 1.1020}
	demand := &domain.Zone{Kind: domain.ZoneDemand, PriceLow: 1.0900, PriceHigh: 1.0920}
	g := gate.NewSignalGate(gate.Tolerances{Default: 0.0005}, false)

	tests := []struct {
		name     string
		sig      gate.Signal
		supply   *domain.Zone
		demand   *domain.Zone
		accepted bool
	}{
		{"buy well below supply", gate.Signal{Side: domain.SignalBuy, Price: 1.0980}, supply, demand, true},
		{"buy inside tolerance", gate.Signal{Side: domain.SignalBuy, Price: 1.0996}, supply, demand, false},
		{"buy inside zone", gate.Signal{Side: domain.SignalBuy, Price: 1.1010}, supply, demand, false},
		{"buy no supply", gate.Signal{Side: domain.SignalBuy, Price: 1.2000}, nil, demand, true},
		{"sell well above demand", gate.Signal{Side: domain.SignalSell, Price: 1.0940}, supply, demand, true},
		{"sell inside tolerance", gate.Signal{Side: domain.SignalSell, Price: 1.0924}, supply, demand, false},
		{"sell no demand", gate.Signal{Side: domain.SignalSell, Price: 1.0000}, supply, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.Validate(tt.sig, tt.supply, tt.demand)
			assert.Equal(t, tt.accepted, v.Accepted, v.String())
			if !tt.accepted {
				assert.Equal(t, domain.RejectZoneBlocked, v.Reason.Code)
				assert.True(t, strings.HasPrefix(v.String(), "LIMIT_BLOCKED:"), v.String())
			}
		})
	}
}

func TestSignalGate_RejectionCopiesZone(t *testing.T) {
	supply := &domain.Zone{ID: "z1", Kind: domain.ZoneSupply, PriceLow: 10, PriceHigh: 11}
	v := gate.Validate(gate.Signal{Side: domain.SignalBuy, Price: 10.5}, 0, supply, nil)
	require.False(t, v.Accepted)

	supply.ID = "mutated"
	assert.Equal(t, "z1", v.Reason.Zone.ID)
}

func TestSignalGate_RejectsUnknownSide(t *testing.T) {
	g := gate.NewSignalGate(gate.Tolerances{}, true)
	for _, side := range []domain.SignalSide{"HOLD", "", "buy"} {
		v := g.ValidateWithGamma(gate.Signal{Side: side, Price: 1.1}, nil, nil, nil)
		require.False(t, v.Accepted, "side %q", side)
		assert.Equal(t, domain.RejectInvalidSide, v.Reason.Code)
		assert.Equal(t, string(side), v.Reason.Side)
		assert.True(t, strings.HasPrefix(v.String(), "REJECTED:"), v.String())
	}
}

func TestSignalGate_GammaFilter(t *testing.T) {
	short := &domain.GEXSnapshot{Regime: domain.ShortGamma}
	long := &domain.GEXSnapshot{Regime: domain.LongGamma}
	sig := gate.Signal{Symbol: "SPX", Side: domain.SignalBuy, Price: 5000}

	off := gate.NewSignalGate(gate.Tolerances{}, false)
	assert.True(t, off.ValidateWithGamma(sig, nil, nil, short).Accepted)

	on := gate.NewSignalGate(gate.Tolerances{}, true)
	v := on.ValidateWithGamma(sig, nil, nil, short)
	require.False(t, v.Accepted)
	assert.Equal(t, domain.RejectGammaBlocked, v.Reason.Code)
	assert.True(t, strings.HasPrefix(v.String(), "LIMIT_BLOCKED:"))

	assert.True(t, on.ValidateWithGamma(sig, nil, nil, long).Accepted)
	assert.True(t, on.ValidateWithGamma(sig, nil, nil, nil).Accepted)
}
