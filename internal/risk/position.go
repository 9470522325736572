// Package risk enforces the stop-loss policy on orders and open positions.
package risk

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// Status is the lifecycle state of a Position.
type Status int32

const (
	StatusOpen Status = iota
	StatusClosing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusClosing:
		return "CLOSING"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Position is an open trade. It is only created by OrderValidator.Open, so its
// stop loss is always positive, and the stop loss only changes through
// StopLossGuard.Apply.
type Position struct {
	ID         string
	Symbol     string
	Side       domain.PositionSide
	EntryPrice float64
	TakeProfit *float64
	OpenedAt   time.Time

	// InitialStopLoss is the stop at entry; it defines 1R for the trade.
	InitialStopLoss float64

	mu       sync.RWMutex
	stopLoss float64

	status atomic.Int32
}

// StopLoss returns the current stop loss.
func (p *Position) StopLoss() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopLoss
}

// Status returns the lifecycle state.
func (p *Position) Status() Status {
	return Status(p.status.Load())
}

// beginClose moves OPEN -> CLOSING and reports whether this caller won.
func (p *Position) beginClose() bool {
	return p.status.CompareAndSwap(int32(StatusOpen), int32(StatusClosing))
}

// abortClose returns a CLOSING position to OPEN so a later check can retry.
func (p *Position) abortClose() {
	p.status.CompareAndSwap(int32(StatusClosing), int32(StatusOpen))
}

// MarkClosed moves the position to its terminal state. It returns false if
// the position was already closed.
func (p *Position) MarkClosed() bool {
	for {
		cur := p.status.Load()
		if Status(cur) == StatusClosed {
			return false
		}
		if p.status.CompareAndSwap(cur, int32(StatusClosed)) {
			return true
		}
	}
}
