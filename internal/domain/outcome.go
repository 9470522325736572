package domain

import "time"

// TradeOutcome is created exactly once per closed position.
type TradeOutcome struct {
	PositionID string
	Symbol     string
	Direction  PositionSide
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	RMultiple  float64
	ClosedAt   time.Time
}

// EdgeStatistics summarises a finite series of R-multiples.
type EdgeStatistics struct {
	Trades        int
	WinRate       float64
	AvgWinR       float64
	AvgLossR      float64 // <= 0
	Expectancy    float64
	OutliersFound int
}
