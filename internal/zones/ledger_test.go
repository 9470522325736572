package zones_test

import (
	"sync"
	"testing"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demand(low, high float64) domain.Zone {
	return domain.Zone{Kind: domain.ZoneDemand, PriceLow: low, PriceHigh: high}
}

func supply(low, high float64) domain.Zone {
	return domain.Zone{Kind: domain.ZoneSupply, PriceLow: low, PriceHigh: high}
}

func TestLedger_AddAssignsIDAndNormalisesBounds(t *testing.T) {
	l := zones.NewLedger()
	z := l.Add("EURUSD", supply(1.2, 1.1))

	assert.NotEmpty(t, z.ID)
	assert.Equal(t, "EURUSD", z.Symbol)
	assert.Equal(t, 1.1, z.PriceLow)
	assert.Equal(t, 1.2, z.PriceHigh)
}

func TestLedger_MitigationIsMonotonic(t *testing.T) {
	l := zones.NewLedger()
	l.Add("EURUSD", demand(1.0800, 1.0820))

	flipped := l.MitigateCheck("EURUSD", 1.0790)
	require.Len(t, flipped, 1)
	assert.True(t, l.Zones("EURUSD")[0].Mitigated)

	// same breaching price again: no new flips, still mitigated
	assert.Empty(t, l.MitigateCheck("EURUSD", 1.0790))
	assert.True(t, l.Zones("EURUSD")[0].Mitigated)

	// back inside the original range never resets it
	assert.Empty(t, l.MitigateCheck("EURUSD", 1.0810))
	assert.True(t, l.Zones("EURUSD")[0].Mitigated)
	assert.Empty(t, l.Active("EURUSD"))
}

func TestLedger_MitigationRules(t *testing.T) {
	l := zones.NewLedger()
	l.Add("X", demand(10, 11))
	l.Add("X", supply(20, 21))

	assert.Empty(t, l.MitigateCheck("X", 10), "touching the demand low is not mitigation")
	assert.Empty(t, l.MitigateCheck("X", 21), "touching the supply high is not mitigation")

	flipped := l.MitigateCheck("X", 21.5)
	require.Len(t, flipped, 1)
	assert.Equal(t, domain.ZoneSupply, flipped[0].Kind)

	flipped = l.MitigateCheck("X", 9.9)
	require.Len(t, flipped, 1)
	assert.Equal(t, domain.ZoneDemand, flipped[0].Kind)
}

func TestLedger_MitigateUnknownSymbol(t *testing.T) {
	assert.Empty(t, zones.NewLedger().MitigateCheck("NOPE", 1))
}

func TestLedger_NearestActive(t *testing.T) {
	l := zones.NewLedger()
	far := l.Add("X", supply(120, 121))
	near := l.Add("X", supply(105, 106))
	l.Add("X", demand(90, 91))

	z, ok := l.NearestActive("X", domain.SignalBuy, 100)
	require.True(t, ok)
	assert.Equal(t, near.ID, z.ID)

	l.MitigateCheck("X", 110) // retires the near supply only
	z, ok = l.NearestActive("X", domain.SignalBuy, 100)
	require.True(t, ok)
	assert.Equal(t, far.ID, z.ID)

	z, ok = l.NearestActive("X", domain.SignalSell, 100)
	require.True(t, ok)
	assert.Equal(t, domain.ZoneDemand, z.Kind)

	_, ok = l.NearestActive("Y", domain.SignalBuy, 100)
	assert.False(t, ok)
}

func TestLedger_ConcurrentChecks(t *testing.T) {
	l := zones.NewLedger()
	for i := 0; i < 50; i++ {
		l.Add("X", demand(float64(100+i), float64(101+i)))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := len(l.MitigateCheck("X", 50))
				l.NearestActive("X", domain.SignalSell, 120)
				mu.Lock()
				total += n
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// every zone flipped exactly once across all goroutines
	assert.Equal(t, 50, total)
	assert.Empty(t, l.Active("X"))
}

func TestLedger_Restore(t *testing.T) {
	l := zones.NewLedger()
	l.Restore([]domain.Zone{
		{ID: "a", Symbol: "X", Kind: domain.ZoneSupply, PriceLow: 1, PriceHigh: 2, Mitigated: true},
		{ID: "b", Symbol: "X", Kind: domain.ZoneSupply, PriceLow: 3, PriceHigh: 4},
	})

	z, ok := l.NearestActive("X", domain.SignalBuy, 0)
	require.True(t, ok)
	assert.Equal(t, "b", z.ID)
	assert.ElementsMatch(t, []string{"X"}, l.Symbols())
}

func TestLedger_InsertIsIdempotentByID(t *testing.T) {
	l := zones.NewLedger()
	l.Restore([]domain.Zone{
		{ID: "a", Symbol: "X", Kind: domain.ZoneDemand, PriceLow: 1, PriceHigh: 2, Mitigated: true},
	})

	z, added := l.Insert("X", domain.Zone{ID: "a", Kind: domain.ZoneDemand, PriceLow: 1, PriceHigh: 2})
	assert.False(t, added)
	assert.True(t, z.Mitigated, "stored zone wins over the re-detected one")

	l.Restore([]domain.Zone{{ID: "a", Symbol: "X", Kind: domain.ZoneDemand, PriceLow: 1, PriceHigh: 2}})
	assert.Len(t, l.Zones("X"), 1)

	_, added = l.Insert("X", domain.Zone{ID: "b", Kind: domain.ZoneSupply, PriceLow: 3, PriceHigh: 4})
	assert.True(t, added)
	assert.Len(t, l.Zones("X"), 2)
}
