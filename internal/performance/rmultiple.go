// Package performance scores closed trades in R-multiples and separates
// reproducible edge from outlier luck.
package performance

import (
	"math"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// InvalidStopR is returned when the stop sits on the wrong side of entry.
const InvalidStopR = -1.0

// RMultiple returns profit as a multiple of initial risk.
// Zero risk (entry == stop) returns 0; a stop on the wrong side of entry for
// the direction returns InvalidStopR.
func RMultiple(entry, exit, stopLoss float64, direction domain.PositionSide) float64 {
	if entry == stopLoss {
		return 0
	}

	var risk, reward float64
	switch direction {
	case domain.Long:
		risk = entry - stopLoss
		reward = exit - entry
	case domain.Short:
		risk = stopLoss - entry
		reward = entry - exit
	default:
		return InvalidStopR
	}
	if risk <= 0 {
		return InvalidStopR
	}
	return reward / math.Abs(risk)
}

// NewOutcome builds the immutable outcome record for a closed position.
func NewOutcome(positionID, symbol string, direction domain.PositionSide, entry, exit, stopLoss float64, closedAt time.Time) domain.TradeOutcome {
	return domain.TradeOutcome{
		PositionID: positionID,
		Symbol:     symbol,
		Direction:  direction,
		EntryPrice: entry,
		ExitPrice:  exit,
		StopLoss:   stopLoss,
		RMultiple:  RMultiple(entry, exit, stopLoss, direction),
		ClosedAt:   closedAt,
	}
}

// Expectancy is the probability-weighted average R per trade. avgLossR may
// be given signed or unsigned.
func Expectancy(winRate, avgWinR, avgLossR float64) float64 {
	return winRate*avgWinR - (1-winRate)*math.Abs(avgLossR)
}
