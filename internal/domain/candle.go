package domain

import "time"

// Candle is one OHLC bar. Candles are immutable once produced and are
// consumed in strictly increasing timestamp order per symbol.
type Candle struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// Range returns high - low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}
