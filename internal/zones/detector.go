// Package zones detects liquidity zones in candle series and tracks their
// mitigation state per symbol.
package zones

import (
	"iter"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

const (
	DefaultATRMultiplier = 3.0
	DefaultMinLookback   = 1
)

// DetectorConfig tunes impulse detection.
type DetectorConfig struct {
	ATRMultiplier float64 // impulse threshold as a multiple of the average prior range
	MinLookback   int     // prior candles required before a candle can be an impulse
}

// Detector proposes zones from an ordered candle series. It never mutates
// zones and never reads candles after the one being classified.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector returns a Detector; non-positive settings fall back to defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.ATRMultiplier <= 0 {
		cfg.ATRMultiplier = DefaultATRMultiplier
	}
	if cfg.MinLookback < 1 {
		cfg.MinLookback = DefaultMinLookback
	}
	return &Detector{cfg: cfg}
}

// All yields the zones found in candles, in index order.
//
// For candle i the average range is taken over candles[0:i] only. When that
// average is zero (flat history) no impulse is reported: a zero threshold
// would classify every non-doji candle as an impulse.
func (d *Detector) All(candles []domain.Candle) iter.Seq[domain.Zone] {
	return func(yield func(domain.Zone) bool) {
		s := d.NewStream()
		for _, c := range candles {
			if z, ok := s.Push(c); ok && !yield(z) {
				return
			}
		}
	}
}

// Stream is an incremental Detector over one symbol's candles. It keeps only
// the previous candle and the running range sum, so each Push is O(1).
// A Stream is not safe for concurrent use.
type Stream struct {
	d        *Detector
	prev     domain.Candle
	n        int
	rangeSum float64
}

// NewStream starts an empty stream.
func (d *Detector) NewStream() *Stream {
	return &Stream{d: d}
}

// Len is the number of candles pushed so far; the next Push gets index Len().
func (s *Stream) Len() int { return s.n }

// Push classifies c as candle Len() and returns the zone it creates, if any.
func (s *Stream) Push(c domain.Candle) (domain.Zone, bool) {
	i := s.n
	s.n++
	prev := s.prev
	s.prev = c
	if i == 0 {
		return domain.Zone{}, false
	}

	s.rangeSum += prev.Range()
	if i < s.d.cfg.MinLookback {
		return domain.Zone{}, false
	}
	avgRange := s.rangeSum / float64(i)
	if avgRange <= 0 {
		return domain.Zone{}, false
	}
	body := c.Body()
	if body < avgRange*s.d.cfg.ATRMultiplier {
		return domain.Zone{}, false
	}
	return zoneFrom(prev, c, i, body/avgRange), true
}

// Detect collects All into a slice.
func (d *Detector) Detect(candles []domain.Candle) []domain.Zone {
	var out []domain.Zone
	for z := range d.All(candles) {
		out = append(out, z)
	}
	return out
}

func zoneFrom(base, impulse domain.Candle, index int, strength float64) domain.Zone {
	kind := domain.ZoneSupply
	if impulse.Bullish() {
		kind = domain.ZoneDemand
	}
	low, high := base.Low, base.High
	if low > high {
		low, high = high, low
	}
	symbol := impulse.Symbol
	if symbol == "" {
		symbol = base.Symbol
	}
	return domain.Zone{
		Symbol:       symbol,
		Kind:         kind,
		PriceLow:     low,
		PriceHigh:    high,
		Strength:     strength,
		CreatedIndex: index,
	}
}
