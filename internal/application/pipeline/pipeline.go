// Package pipeline wires the signal-quality and risk-enforcement components
// into one flow: candles feed the zone ledger, signals pass the gate, orders
// pass the validator, ticks drive mitigation and the stop-loss sentinel, and
// closed trades feed the auditor and the survival projection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/gamma"
	"github.com/alejandrodnm/riskgate/internal/gate"
	"github.com/alejandrodnm/riskgate/internal/observability"
	"github.com/alejandrodnm/riskgate/internal/performance"
	"github.com/alejandrodnm/riskgate/internal/ports"
	"github.com/alejandrodnm/riskgate/internal/risk"
	"github.com/alejandrodnm/riskgate/internal/survival"
	"github.com/alejandrodnm/riskgate/internal/zones"
	"github.com/google/uuid"
)

var (
	// ErrUnknownPosition is returned for a position ID the pipeline never opened.
	ErrUnknownPosition = errors.New("unknown position")

	// ErrAlreadyClosed is returned when closing a position twice.
	ErrAlreadyClosed = errors.New("position already closed")

	// ErrOutOfOrder is returned when candle timestamps are not strictly increasing.
	ErrOutOfOrder = errors.New("candles out of order")
)

// Config agrupa los parámetros de todos los componentes.
type Config struct {
	Zones           zones.DetectorConfig
	Tolerances      gate.Tolerances
	BlockShortGamma bool
	OutlierCap      float64

	// Survival supplies equity, risk per trade and horizon; the edge fields
	// are replaced by the audited base edge in Project.
	Survival        survival.Params
	Trials          int
	Seed            uint64
	SurvivalWorkers int

	SentinelWorkers int
}

// Deps are the external collaborators. Kills is required; the rest may be nil.
type Deps struct {
	Kills   ports.KillPublisher
	Alerts  ports.AlertNotifier
	Journal ports.TradeJournal
	Zones   ports.ZoneStore
	Metrics *observability.Metrics
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	detector  *zones.Detector
	ledger    *zones.Ledger
	gate      *gate.SignalGate
	validator *risk.OrderValidator
	guard     *risk.StopLossGuard
	sentinel  *risk.Sentinel
	journal   ports.TradeJournal
	zoneStore ports.ZoneStore
	metrics   *observability.Metrics
	now       func() time.Time

	feedMu sync.Mutex
	feeds  map[string]*feed

	mu        sync.RWMutex
	chains    map[string]domain.GEXSnapshot
	positions map[string]*risk.Position
	outcomes  []domain.TradeOutcome
	// pending son outcomes cerrados que el journal aún no aceptó.
	pending map[string]domain.TradeOutcome
}

// feed is the per-symbol ingest state: the streaming detector and the last
// accepted timestamp. Candles themselves are not retained.
type feed struct {
	stream *zones.Stream
	last   time.Time
}

// New crea un Pipeline con la configuración y colaboradores dados.
func New(cfg Config, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		detector:  zones.NewDetector(cfg.Zones),
		ledger:    zones.NewLedger(),
		gate:      gate.NewSignalGate(cfg.Tolerances, cfg.BlockShortGamma),
		validator: risk.NewOrderValidator(),
		guard:     risk.NewStopLossGuard(),
		sentinel:  risk.NewSentinel(deps.Kills, deps.Alerts, deps.Metrics),
		journal:   deps.Journal,
		zoneStore: deps.Zones,
		metrics:   deps.Metrics,
		now:       time.Now,
		feeds:     make(map[string]*feed),
		chains:    make(map[string]domain.GEXSnapshot),
		positions: make(map[string]*risk.Position),
		pending:   make(map[string]domain.TradeOutcome),
	}
}

// Ledger exposes the zone ledger for reporting.
func (p *Pipeline) Ledger() *zones.Ledger { return p.ledger }

// Restore reloads persisted zones into the ledger. Candle history is not
// persisted, so only candles newer than the restart should be ingested.
func (p *Pipeline) Restore(ctx context.Context) (int, error) {
	if p.zoneStore == nil {
		return 0, nil
	}
	zs, err := p.zoneStore.LoadZones(ctx)
	if err != nil {
		return 0, fmt.Errorf("pipeline.Restore: %w", err)
	}
	p.ledger.Restore(zs)
	slog.Info("zones restored", "count", len(zs))
	return len(zs), nil
}

// IngestCandles feeds candles to the symbol's streaming detector. For each
// new candle in order, zones are first mitigated against its close, then a
// zone whose impulse is that candle is added. Re-ingesting known candles is
// rejected with ErrOutOfOrder and leaves the state unchanged. Zones already
// in the ledger (for example restored from the store) are not re-added.
func (p *Pipeline) IngestCandles(ctx context.Context, symbol string, candles []domain.Candle) ([]domain.Zone, error) {
	if len(candles) == 0 {
		return nil, nil
	}

	p.feedMu.Lock()
	defer p.feedMu.Unlock()

	f, ok := p.feeds[symbol]
	if !ok {
		f = &feed{stream: p.detector.NewStream()}
	}
	last := f.last
	for i, c := range candles {
		if !last.IsZero() && !c.Timestamp.After(last) {
			return nil, fmt.Errorf("pipeline.IngestCandles: %s candle %d at %s not after %s: %w",
				symbol, i, c.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339), ErrOutOfOrder)
		}
		last = c.Timestamp
	}
	p.feeds[symbol] = f

	var added []domain.Zone
	var errs []error
	for _, c := range candles {
		c.Symbol = symbol
		f.last = c.Timestamp
		errs = append(errs, p.mitigate(ctx, symbol, c.Close))

		z, ok := f.stream.Push(c)
		if !ok {
			continue
		}
		z.ID = zoneID(symbol, c.Timestamp, z.Kind)
		z, fresh := p.ledger.Insert(symbol, z)
		if !fresh {
			continue
		}
		added = append(added, z)
		p.metrics.ZoneDetected(z.Kind)
		if p.zoneStore != nil {
			if err := p.zoneStore.SaveZone(ctx, z); err != nil {
				errs = append(errs, fmt.Errorf("pipeline.IngestCandles: save zone: %w", err))
			}
		}
	}

	slog.Debug("candles ingested",
		"symbol", symbol,
		"candles", len(candles),
		"seen", f.stream.Len(),
		"zones_added", len(added),
	)
	return added, errors.Join(errs...)
}

// zoneID is stable for a given impulse candle, so replaying the same candles
// into a fresh pipeline persists no duplicate zones.
func zoneID(symbol string, impulseAt time.Time, kind domain.ZoneKind) string {
	name := fmt.Sprintf("riskgate:zone:%s:%d:%s", symbol, impulseAt.UnixNano(), kind)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// mitigate flips zones breached by price and persists the flips.
func (p *Pipeline) mitigate(ctx context.Context, symbol string, price float64) error {
	hit := p.ledger.MitigateCheck(symbol, price)
	if len(hit) == 0 {
		return nil
	}
	p.metrics.ZoneMitigated(len(hit))
	for _, z := range hit {
		slog.Info("zone mitigated", "symbol", symbol, "zone_id", z.ID, "kind", z.Kind, "price", price)
	}
	if p.zoneStore == nil {
		return nil
	}
	var errs []error
	at := p.now().UTC()
	for _, z := range hit {
		if err := p.zoneStore.MarkZoneMitigated(ctx, z.ID, at); err != nil {
			errs = append(errs, fmt.Errorf("pipeline.mitigate: %w", err))
		}
	}
	return errors.Join(errs...)
}

// UpdateChain recomputes and stores the gamma snapshot for symbol.
func (p *Pipeline) UpdateChain(symbol string, spot float64, chain []domain.OptionContract) domain.GEXSnapshot {
	snap := gamma.Compute(spot, chain)
	p.mu.Lock()
	p.chains[symbol] = snap
	p.mu.Unlock()

	slog.Debug("gamma snapshot updated",
		"symbol", symbol,
		"total_gex", snap.TotalGEX,
		"flip", snap.GammaFlipPrice,
		"regime", snap.Regime,
	)
	return snap
}

// Snapshot returns the latest gamma snapshot for symbol.
func (p *Pipeline) Snapshot(symbol string) (domain.GEXSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.chains[symbol]
	return s, ok
}

// EvaluateSignal checks a signal against the nearest active zones and, when
// enabled, the gamma regime.
func (p *Pipeline) EvaluateSignal(symbol string, side domain.SignalSide, price float64) domain.Verdict {
	var supply, demand *domain.Zone
	if z, ok := p.ledger.NearestActive(symbol, domain.SignalBuy, price); ok {
		supply = &z
	}
	if z, ok := p.ledger.NearestActive(symbol, domain.SignalSell, price); ok {
		demand = &z
	}

	var snap *domain.GEXSnapshot
	if s, ok := p.Snapshot(symbol); ok {
		snap = &s
	}

	sig := gate.Signal{Symbol: symbol, Side: side, Price: price}
	v := p.gate.ValidateWithGamma(sig, supply, demand, snap)
	p.metrics.Record("signal", v, "symbol", symbol, "side", side, "price", price)
	return v
}

// SubmitOrder validates o and, if accepted, opens a position tracked by the
// sentinel.
func (p *Pipeline) SubmitOrder(o domain.Order) (*risk.Position, domain.Verdict) {
	pos, v := p.validator.Open(o)
	p.metrics.Record("order", v, "symbol", o.Symbol, "side", o.Side)
	if pos == nil {
		return nil, v
	}

	p.mu.Lock()
	p.positions[pos.ID] = pos
	p.mu.Unlock()

	slog.Info("position opened",
		"position_id", pos.ID,
		"symbol", pos.Symbol,
		"side", pos.Side,
		"entry", pos.EntryPrice,
		"stop_loss", pos.StopLoss(),
	)
	return pos, v
}

// Position returns a tracked position by ID.
func (p *Pipeline) Position(id string) (*risk.Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[id]
	return pos, ok
}

// OpenPositions returns positions not yet closed for symbol, or for every
// symbol when symbol is empty.
func (p *Pipeline) OpenPositions(symbol string) []*risk.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*risk.Position
	for _, pos := range p.positions {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		if pos.Status() != risk.StatusClosed {
			out = append(out, pos)
		}
	}
	return out
}

// ModifyStopLoss routes a stop-loss change through the guard. Positions that
// are closing or closed keep their stop.
func (p *Pipeline) ModifyStopLoss(id string, newSL *float64) (domain.Verdict, error) {
	pos, ok := p.Position(id)
	if !ok {
		return domain.Verdict{}, fmt.Errorf("pipeline.ModifyStopLoss: %s: %w", id, ErrUnknownPosition)
	}
	if pos.Status() != risk.StatusOpen {
		return domain.Verdict{}, fmt.Errorf("pipeline.ModifyStopLoss: %s is %s: %w", id, pos.Status(), ErrAlreadyClosed)
	}
	before := pos.StopLoss()
	v := p.guard.Apply(pos, newSL)
	p.metrics.Record("sl_guard", v, "position_id", id, "symbol", pos.Symbol, "current_sl", before)
	return v, nil
}

// OnTick mitigates zones at price and runs the sentinel over the symbol's
// open positions. It returns the positions whose stop was breached.
func (p *Pipeline) OnTick(ctx context.Context, symbol string, price float64) ([]*risk.Position, error) {
	err := p.mitigate(ctx, symbol, price)
	open := p.OpenPositions(symbol)
	if len(open) == 0 {
		return nil, err
	}
	breached := p.sentinel.CheckAll(ctx, open, map[string]float64{symbol: price}, p.cfg.SentinelWorkers)
	return breached, err
}

// ClosePosition finalizes a position at exit and records exactly one
// outcome for it. R is measured against the initial stop.
//
// If the journal rejects the outcome, the position stays closed and the
// outcome is kept pending: Outcomes still reports it, and calling
// ClosePosition again retries the write and returns the original outcome.
func (p *Pipeline) ClosePosition(ctx context.Context, id string, exit float64) (domain.TradeOutcome, error) {
	pos, ok := p.Position(id)
	if !ok {
		return domain.TradeOutcome{}, fmt.Errorf("pipeline.ClosePosition: %s: %w", id, ErrUnknownPosition)
	}
	if !pos.MarkClosed() {
		p.mu.RLock()
		out, pending := p.pending[id]
		p.mu.RUnlock()
		if !pending {
			return domain.TradeOutcome{}, fmt.Errorf("pipeline.ClosePosition: %s: %w", id, ErrAlreadyClosed)
		}
		return out, p.persist(ctx, out)
	}

	out := performance.NewOutcome(pos.ID, pos.Symbol, pos.Side, pos.EntryPrice, exit, pos.InitialStopLoss, p.now().UTC())
	p.mu.Lock()
	p.outcomes = append(p.outcomes, out)
	if p.journal != nil {
		p.pending[out.PositionID] = out
	}
	p.mu.Unlock()
	p.metrics.TradeClosed(out.RMultiple)

	slog.Info("position closed",
		"position_id", pos.ID,
		"symbol", pos.Symbol,
		"exit", exit,
		"r_multiple", out.RMultiple,
	)
	return out, p.persist(ctx, out)
}

// persist writes a pending outcome to the journal and clears it on success.
func (p *Pipeline) persist(ctx context.Context, out domain.TradeOutcome) error {
	if p.journal == nil {
		return nil
	}
	err := p.journal.SaveOutcome(ctx, out)
	if err != nil && !errors.Is(err, ports.ErrDuplicateOutcome) {
		slog.Warn("outcome not journaled, kept pending",
			"position_id", out.PositionID,
			"error", err,
		)
		return fmt.Errorf("pipeline.ClosePosition: %w", err)
	}
	p.mu.Lock()
	delete(p.pending, out.PositionID)
	p.mu.Unlock()
	return nil
}

// FlushOutcomes retries every pending journal write. It returns the joined
// errors of the writes that still failed.
func (p *Pipeline) FlushOutcomes(ctx context.Context) error {
	p.mu.RLock()
	outs := make([]domain.TradeOutcome, 0, len(p.pending))
	for _, o := range p.pending {
		outs = append(outs, o)
	}
	p.mu.RUnlock()

	var errs []error
	for _, o := range outs {
		errs = append(errs, p.persist(ctx, o))
	}
	return errors.Join(errs...)
}

// Outcomes returns every closed trade: the journal when configured, plus
// outcomes it has not accepted yet; otherwise the outcomes closed by this
// process.
func (p *Pipeline) Outcomes(ctx context.Context) ([]domain.TradeOutcome, error) {
	if p.journal == nil {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return append([]domain.TradeOutcome(nil), p.outcomes...), nil
	}

	outs, err := p.journal.Outcomes(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("pipeline.Outcomes: %w", err)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.pending) == 0 {
		return outs, nil
	}
	seen := make(map[string]bool, len(outs))
	for _, o := range outs {
		seen[o.PositionID] = true
	}
	for _, o := range p.outcomes {
		if _, ok := p.pending[o.PositionID]; ok && !seen[o.PositionID] {
			outs = append(outs, o)
		}
	}
	return outs, nil
}

// Audit computes raw and outlier-capped edge over all closed trades.
func (p *Pipeline) Audit(ctx context.Context) (performance.Attribution, error) {
	outs, err := p.Outcomes(ctx)
	if err != nil {
		return performance.Attribution{}, err
	}
	a := performance.Attribute(performance.RValues(outs), p.cfg.OutlierCap)
	slog.Info("performance audited",
		"trades", a.Raw.Trades,
		"raw_expectancy", a.Raw.Expectancy,
		"base_expectancy", a.Base.Expectancy,
		"outliers", len(a.Outliers),
	)
	return a, nil
}

// Project runs survival trials on the audited base edge, so outlier wins do
// not inflate the projection.
func (p *Pipeline) Project(ctx context.Context) (survival.Params, survival.Summary, error) {
	a, err := p.Audit(ctx)
	if err != nil {
		return survival.Params{}, survival.Summary{}, err
	}
	params := p.cfg.Survival
	params.WinRate = a.Base.WinRate
	params.AvgWinR = a.Base.AvgWinR
	params.AvgLossR = a.Base.AvgLossR

	sum, err := survival.RunTrials(ctx, params, p.cfg.Trials, p.cfg.Seed, p.cfg.SurvivalWorkers)
	if err != nil {
		return params, survival.Summary{}, fmt.Errorf("pipeline.Project: %w", err)
	}
	if sum.RuinProbability > 0 {
		slog.Warn("survival projection shows ruin risk",
			"ruin_probability", sum.RuinProbability,
			"trials", sum.Trials,
		)
	}
	return params, sum, nil
}
