package risk_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopLossGuard_ValidateModification(t *testing.T) {
	g := risk.NewStopLossGuard()

	tests := []struct {
		name    string
		current float64
		newSL   *float64
		side    domain.PositionSide
		entry   float64
		prefix  string
	}{
		{"removal nil", 1.0800, nil, domain.Long, 1.0850, "FORBIDDEN"},
		{"removal zero", 1.0800, domain.Price(0), domain.Long, 1.0850, "FORBIDDEN"},
		{"removal negative", 1.2600, domain.Price(-1), domain.Short, 1.2500, "FORBIDDEN"},
		{"long widen", 1.0800, domain.Price(1.0700), domain.Long, 1.0850, "ILLEGAL_MOVE"},
		{"long tighten", 1.0800, domain.Price(1.0830), domain.Long, 1.0850, ""},
		{"long to breakeven", 1.0800, domain.Price(1.0850), domain.Long, 1.0850, ""},
		{"long beyond entry", 1.0800, domain.Price(1.0900), domain.Long, 1.0850, ""},
		{"long unchanged", 1.0800, domain.Price(1.0800), domain.Long, 1.0850, ""},
		{"short widen", 1.2600, domain.Price(1.2700), domain.Short, 1.2500, "ILLEGAL_MOVE"},
		{"short tighten", 1.2600, domain.Price(1.2550), domain.Short, 1.2500, ""},
		{"bad side", 1.2600, domain.Price(1.2550), "FLAT", 1.2500, "REJECTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.ValidateModification(tt.current, tt.newSL, tt.side, tt.entry)
			if tt.prefix == "" {
				assert.True(t, v.Accepted, v.String())
				return
			}
			require.False(t, v.Accepted)
			assert.True(t, strings.HasPrefix(v.String(), tt.prefix+":"), v.String())
		})
	}
}

func TestStopLossGuard_Apply(t *testing.T) {
	p, _ := risk.NewOrderValidator().Open(order("EURUSD", domain.Long, 1.0850, domain.Price(1.0800)))
	g := risk.NewStopLossGuard()

	v := g.Apply(p, domain.Price(1.0700))
	assert.Equal(t, domain.RejectIllegalMove, v.Reason.Code)
	assert.Equal(t, 1.0800, p.StopLoss())

	v = g.Apply(p, nil)
	assert.Equal(t, domain.RejectForbiddenRemoval, v.Reason.Code)
	assert.Equal(t, 1.0800, p.StopLoss())

	v = g.Apply(p, domain.Price(1.0840))
	assert.True(t, v.Accepted)
	assert.Equal(t, 1.0840, p.StopLoss())
}

func TestStopLossGuard_ApplyConcurrentIsMonotonic(t *testing.T) {
	p, _ := risk.NewOrderValidator().Open(order("X", domain.Short, 100, domain.Price(110)))
	g := risk.NewStopLossGuard()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// alternating tighten / widen requests
			g.Apply(p, domain.Price(110-float64(i%10)+float64(i%3)))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, p.StopLoss(), 110.0)
	assert.Greater(t, p.StopLoss(), 0.0)
}
