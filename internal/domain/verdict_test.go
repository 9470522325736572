package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

func TestReason_LiteralPrefixes(t *testing.T) {
	zone := &domain.Zone{Kind: domain.ZoneSupply, PriceLow: 1.1, PriceHigh: 1.2}
	cases := []struct {
		reason domain.Reason
		prefix string
	}{
		{domain.Reason{Code: domain.RejectMissingStopLoss}, "REJECTED: Mandatory Stop Loss is missing or invalid"},
		{domain.Reason{Code: domain.RejectMissingSymbol}, "REJECTED:"},
		{domain.Reason{Code: domain.RejectInvalidSide, Side: "UP"}, "REJECTED:"},
		{domain.Reason{Code: domain.RejectForbiddenRemoval}, "FORBIDDEN: attempted SL removal"},
		{domain.Reason{Code: domain.RejectIllegalMove, Side: "LONG", CurrentSL: 1.1, NewSL: 1.0}, "ILLEGAL_MOVE"},
		{domain.Reason{Code: domain.RejectZoneBlocked, Side: "BUY", Price: 1.15, Zone: zone}, "LIMIT_BLOCKED"},
		{domain.Reason{Code: domain.RejectGammaBlocked, Side: "BUY", Price: 1.15}, "LIMIT_BLOCKED"},
	}
	for _, tc := range cases {
		t.Run(tc.reason.Code.Label(), func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tc.reason.String(), tc.prefix), tc.reason.String())
		})
	}
}

func TestReason_ZoneBlockedNamesZone(t *testing.T) {
	r := domain.Reason{
		Code:  domain.RejectZoneBlocked,
		Side:  "BUY",
		Price: 1.15,
		Zone:  &domain.Zone{Kind: domain.ZoneSupply, PriceLow: 1.1, PriceHigh: 1.2},
	}
	assert.Equal(t, "LIMIT_BLOCKED: BUY at 1.15000 into SUPPLY zone [1.10000, 1.20000]", r.String())
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, "ACCEPTED", domain.Accept().String())

	v := domain.Reject(domain.Reason{Code: domain.RejectForbiddenRemoval})
	assert.False(t, v.Accepted)
	assert.Equal(t, "FORBIDDEN: attempted SL removal", v.String())
}

func TestRejectCode_PolicyViolation(t *testing.T) {
	assert.True(t, domain.RejectForbiddenRemoval.PolicyViolation())
	assert.True(t, domain.RejectIllegalMove.PolicyViolation())
	assert.True(t, domain.RejectZoneBlocked.PolicyViolation())
	assert.False(t, domain.RejectMissingStopLoss.PolicyViolation())
	assert.False(t, domain.RejectNone.PolicyViolation())
}

func TestZone_ContainsAndDistance(t *testing.T) {
	z := domain.Zone{PriceLow: 10, PriceHigh: 12}
	assert.True(t, z.Contains(11))
	assert.False(t, z.Contains(12.5))
	assert.Equal(t, 0.0, z.Distance(11))
	assert.Equal(t, 2.0, z.Distance(8))
	assert.Equal(t, 3.0, z.Distance(15))
}

func TestSignalSide_PositionSide(t *testing.T) {
	assert.Equal(t, domain.Long, domain.SignalBuy.PositionSide())
	assert.Equal(t, domain.Short, domain.SignalSell.PositionSide())
	assert.True(t, domain.Short.Valid())
	assert.False(t, domain.PositionSide("FLAT").Valid())
}
