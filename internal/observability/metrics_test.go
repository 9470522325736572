package observability_test

import (
	"errors"
	"testing"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry(), "test")

	m.Record("order", domain.Accept())
	m.Record("order", domain.Reject(domain.Reason{Code: domain.RejectMissingStopLoss}))
	m.Record("order", domain.Reject(domain.Reason{Code: domain.RejectMissingStopLoss}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("order", "accepted", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("order", "rejected", "missing_stop_loss")))
}

func TestMetrics_Counters(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry(), "")

	m.Kill(nil)
	m.Kill(errors.New("bus down"))
	m.ZoneMitigated(3)
	m.ZoneDetected(domain.ZoneSupply)
	m.TradeClosed(2)
	m.TradeClosed(-1)
	m.TradeClosed(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.KillsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KillPublishErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ZonesMitigated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ZonesDetected.WithLabelValues("SUPPLY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesClosed.WithLabelValues("scratch")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.Record("signal", domain.Reject(domain.Reason{Code: domain.RejectZoneBlocked}))
		m.Kill(nil)
		m.ZoneDetected(domain.ZoneDemand)
		m.ZoneMitigated(1)
		m.SentinelCheck()
		m.TradeClosed(1)
	})
}
