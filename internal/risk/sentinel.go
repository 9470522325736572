package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/observability"
	"github.com/alejandrodnm/riskgate/internal/ports"
)

// Breached reports whether price has reached the stop: LONG at or below,
// SHORT at or above.
func Breached(side domain.PositionSide, stopLoss, price float64) bool {
	switch side {
	case domain.Long:
		return price <= stopLoss
	case domain.Short:
		return price >= stopLoss
	}
	return false
}

// Sentinel watches open positions for stop-loss breaches and emits one kill
// event plus one critical alert per breach.
type Sentinel struct {
	kills   ports.KillPublisher
	alerts  ports.AlertNotifier
	metrics *observability.Metrics
	now     func() time.Time
}

// NewSentinel wires a Sentinel. alerts and metrics may be nil.
func NewSentinel(kills ports.KillPublisher, alerts ports.AlertNotifier, metrics *observability.Metrics) *Sentinel {
	return &Sentinel{kills: kills, alerts: alerts, metrics: metrics, now: time.Now}
}

// Check tests p against price and returns whether the stop is breached.
//
// Only the caller that moves p from OPEN to CLOSING emits; later checks on
// the same breach return true without emitting. If publishing fails the
// position goes back to OPEN so the next tick retries with the same
// idempotency key.
func (s *Sentinel) Check(ctx context.Context, p *Position, price float64) bool {
	s.metrics.SentinelCheck()

	if p.Status() == StatusClosed {
		return false
	}
	sl := p.StopLoss()
	if !Breached(p.Side, sl, price) {
		return false
	}
	if !p.beginClose() {
		return true
	}

	event := domain.KillEvent{
		IdempotencyKey: domain.KillKey(p.Symbol, domain.ReasonSLBreach, p.ID),
		PositionID:     p.ID,
		Symbol:         p.Symbol,
		Action:         domain.KillClose,
		Reason:         domain.ReasonSLBreach,
		Price:          price,
		EmittedAt:      s.now().UTC(),
	}

	slog.Error("stop loss breached",
		"symbol", p.Symbol,
		"position_id", p.ID,
		"side", p.Side,
		"stop_loss", sl,
		"price", price,
	)

	err := s.kills.PublishKill(ctx, event)
	s.metrics.Kill(err)
	if err != nil {
		slog.Error("kill publish failed, will retry on next check",
			"position_id", p.ID,
			"key", event.IdempotencyKey,
			"err", err,
		)
		p.abortClose()
		return true
	}

	if s.alerts != nil {
		alert := domain.Alert{
			Title:    "Stop loss breached: " + p.Symbol,
			Message:  fmt.Sprintf("%s %s position %s hit stop %.5f at %.5f; kill sent", p.Side, p.Symbol, p.ID, sl, price),
			Severity: domain.SeverityCritical,
		}
		if err := s.alerts.NotifyAlert(ctx, alert); err != nil {
			slog.Warn("alert delivery failed", "position_id", p.ID, "err", err)
		}
	}
	return true
}
