// Package observability provides Prometheus metrics and audit logging for
// gate decisions and sentinel activity.
package observability

import (
	"log/slog"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps unit tests free of registries.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	ZonesDetected     *prometheus.CounterVec
	ZonesMitigated    prometheus.Counter
	SentinelChecks    prometheus.Counter
	KillsEmitted      prometheus.Counter
	KillPublishErrors prometheus.Counter
	TradesClosed      *prometheus.CounterVec
}

// NewMetrics registers every collector on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "riskgate"
	}
	f := promauto.With(reg)

	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Gate decisions by gate, result and rejection code",
		}, []string{"gate", "result", "code"}),
		ZonesDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_detected_total",
			Help:      "Zones added to the ledger by kind",
		}, []string{"kind"}),
		ZonesMitigated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_mitigated_total",
			Help:      "Zones flipped to mitigated",
		}),
		SentinelChecks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentinel_checks_total",
			Help:      "Stop-loss breach checks performed",
		}),
		KillsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kills_emitted_total",
			Help:      "Kill events published",
		}),
		KillPublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kill_publish_errors_total",
			Help:      "Kill events that failed to publish and will be retried",
		}),
		TradesClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_closed_total",
			Help:      "Closed trades by result",
		}, []string{"result"}),
	}
}

// Record counts a gate decision and logs it. Routine rejections log at Info,
// policy violations at Warn so they stand out in the audit trail.
func (m *Metrics) Record(gate string, v domain.Verdict, attrs ...any) {
	if m != nil {
		result := "accepted"
		if !v.Accepted {
			result = "rejected"
		}
		m.Decisions.WithLabelValues(gate, result, v.Reason.Code.Label()).Inc()
	}

	if v.Accepted {
		slog.Debug("gate accepted", append([]any{"gate", gate}, attrs...)...)
		return
	}
	args := append([]any{"gate", gate, "reason", v.Reason.String()}, attrs...)
	if v.Reason.Code.PolicyViolation() {
		slog.Warn("policy violation", args...)
		return
	}
	slog.Info("gate rejected", args...)
}

// ZoneDetected counts a new zone.
func (m *Metrics) ZoneDetected(kind domain.ZoneKind) {
	if m == nil {
		return
	}
	m.ZonesDetected.WithLabelValues(string(kind)).Inc()
}

// ZoneMitigated counts n mitigations.
func (m *Metrics) ZoneMitigated(n int) {
	if m == nil || n == 0 {
		return
	}
	m.ZonesMitigated.Add(float64(n))
}

// SentinelCheck counts one breach check.
func (m *Metrics) SentinelCheck() {
	if m == nil {
		return
	}
	m.SentinelChecks.Inc()
}

// Kill counts a kill publish attempt by outcome.
func (m *Metrics) Kill(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.KillPublishErrors.Inc()
		return
	}
	m.KillsEmitted.Inc()
}

// TradeClosed counts a closed trade as win, loss or scratch.
func (m *Metrics) TradeClosed(r float64) {
	if m == nil {
		return
	}
	result := "scratch"
	switch {
	case r > 0:
		result = "win"
	case r < 0:
		result = "loss"
	}
	m.TradesClosed.WithLabelValues(result).Inc()
}
