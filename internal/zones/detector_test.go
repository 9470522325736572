package zones_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func bar(i int, open, high, low, close float64) domain.Candle {
	return domain.Candle{
		Symbol:    "EURUSD",
		Timestamp: t0.Add(time.Duration(i) * time.Minute),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
	}
}

// quietThenImpulse builds n small candles (range 1, body 0.2) followed by one
// candle with the given open/close.
func quietThenImpulse(n int, open, close float64) []domain.Candle {
	var cs []domain.Candle
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*0.1
		cs = append(cs, bar(i, base, base+0.5, base-0.5, base+0.2))
	}
	high, low := max(open, close), min(open, close)
	cs = append(cs, bar(n, open, high+0.1, low-0.1, close))
	return cs
}

func TestDetector_SingleImpulseProducesOneZone(t *testing.T) {
	for _, mult := range []float64{0.5, 1, 2, 3, 4} {
		cs := quietThenImpulse(5, 100.6, 105.6)
		d := zones.NewDetector(zones.DetectorConfig{ATRMultiplier: mult})

		got := d.Detect(cs)
		require.Len(t, got, 1, "multiplier %.1f", mult)

		prev := cs[len(cs)-2]
		assert.Equal(t, prev.Low, got[0].PriceLow)
		assert.Equal(t, prev.High, got[0].PriceHigh)
		assert.Equal(t, domain.ZoneDemand, got[0].Kind)
		assert.Equal(t, 5, got[0].CreatedIndex)
		assert.False(t, got[0].Mitigated)
	}
}

func TestDetector_BearishImpulseIsSupply(t *testing.T) {
	cs := quietThenImpulse(4, 100.4, 95.0)
	got := zones.NewDetector(zones.DetectorConfig{}).Detect(cs)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ZoneSupply, got[0].Kind)
	assert.InDelta(t, 5.4/1.0, got[0].Strength, 1e-9)
}

func TestDetector_TooFewCandles(t *testing.T) {
	d := zones.NewDetector(zones.DetectorConfig{})
	assert.Empty(t, d.Detect(nil))
	assert.Empty(t, d.Detect([]domain.Candle{bar(0, 1, 2, 0, 1.5)}))
}

func TestDetector_FlatHistoryEmitsNothing(t *testing.T) {
	cs := []domain.Candle{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 100, 100, 100),
		bar(2, 100, 101, 100, 101),
	}
	assert.Empty(t, zones.NewDetector(zones.DetectorConfig{}).Detect(cs))
}

func TestDetector_NoLookahead(t *testing.T) {
	cs := quietThenImpulse(5, 100.6, 105.6)
	d := zones.NewDetector(zones.DetectorConfig{})
	before := d.Detect(cs)

	// a huge trailing candle must not change what was found before it
	extended := append(append([]domain.Candle{}, cs...), bar(6, 105, 150, 60, 70))
	after := d.Detect(extended)

	require.GreaterOrEqual(t, len(after), len(before))
	assert.Equal(t, before[0].PriceLow, after[0].PriceLow)
	assert.Equal(t, before[0].CreatedIndex, after[0].CreatedIndex)
}

func TestDetector_MinLookbackDefersDetection(t *testing.T) {
	// impulse at index 2, but five prior candles are required
	cs := quietThenImpulse(2, 100.2, 104)
	assert.Len(t, zones.NewDetector(zones.DetectorConfig{}).Detect(cs), 1)
	assert.Empty(t, zones.NewDetector(zones.DetectorConfig{MinLookback: 5}).Detect(cs))
}

func TestDetector_AllStopsWhenConsumerBreaks(t *testing.T) {
	cs := quietThenImpulse(3, 100.3, 104)
	cs = append(cs, bar(4, 104, 104.5, 103.5, 104.2), bar(5, 104.2, 104.4, 90, 90.1))
	d := zones.NewDetector(zones.DetectorConfig{})
	require.Len(t, d.Detect(cs), 2)

	n := 0
	for range d.All(cs) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestStream_MatchesBatchDetection(t *testing.T) {
	cs := quietThenImpulse(5, 100.6, 105.6)
	for i := 0; i < 6; i++ {
		base := 105.6 + float64(i)*0.1
		cs = append(cs, bar(len(cs), base, base+0.5, base-0.5, base+0.2))
	}
	last := cs[len(cs)-1].Close
	cs = append(cs, bar(len(cs), last, last+0.1, last-12.1, last-12))

	d := zones.NewDetector(zones.DetectorConfig{ATRMultiplier: 2})
	batch := d.Detect(cs)
	require.Len(t, batch, 2)

	s := d.NewStream()
	var streamed []domain.Zone
	for _, c := range cs {
		if z, ok := s.Push(c); ok {
			streamed = append(streamed, z)
		}
	}
	assert.Equal(t, batch, streamed)
	assert.Equal(t, len(cs), s.Len())
	assert.Equal(t, domain.ZoneSupply, streamed[1].Kind)
}

func TestStream_SplitFeedMatchesSingleFeed(t *testing.T) {
	cs := quietThenImpulse(8, 101, 107)
	d := zones.NewDetector(zones.DetectorConfig{})

	whole := d.NewStream()
	var a []domain.Zone
	for _, c := range cs {
		if z, ok := whole.Push(c); ok {
			a = append(a, z)
		}
	}

	// same candles fed as two batches through one stream
	split := d.NewStream()
	var b []domain.Zone
	for _, batch := range [][]domain.Candle{cs[:4], cs[4:]} {
		for _, c := range batch {
			if z, ok := split.Push(c); ok {
				b = append(b, z)
			}
		}
	}
	require.Len(t, a, 1)
	assert.Equal(t, a, b)
}
