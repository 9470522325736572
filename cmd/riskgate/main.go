package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/riskgate/config"
	"github.com/alejandrodnm/riskgate/internal/adapters/notify"
	"github.com/alejandrodnm/riskgate/internal/adapters/storage"
	"github.com/alejandrodnm/riskgate/internal/application/pipeline"
	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/gate"
	"github.com/alejandrodnm/riskgate/internal/observability"
	"github.com/alejandrodnm/riskgate/internal/ports"
	"github.com/alejandrodnm/riskgate/internal/survival"
	"github.com/alejandrodnm/riskgate/internal/zones"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	candlesPath := flag.String("candles", "", "CSV of candles (symbol,timestamp,open,high,low,close) to replay")
	audit := flag.Bool("audit", false, "print edge statistics and a survival projection from the trade journal")
	kills := flag.Bool("kills", false, "list kill events not yet acknowledged in the outbox")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	if *candlesPath == "" && !*audit && !*kills {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	setupLogger(cfg.Log)

	slog.Info("riskgate starting",
		"config", *configPath,
		"candles", *candlesPath,
		"audit", *audit,
		"dsn", cfg.Storage.DSN,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg, "riskgate")

	console := notify.NewConsole()
	alerts := notify.Multi{console}
	if cfg.Alerts.WebhookURL != "" {
		alerts = append(alerts, notify.NewWebhook(cfg.Alerts.WebhookURL, cfg.Alerts.RatePerSec, cfg.Alerts.Burst))
	}

	p := pipeline.New(pipelineConfig(cfg), pipeline.Deps{
		Kills:   store,
		Alerts:  alerts,
		Journal: store,
		Zones:   store,
		Metrics: metrics,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// zonas de ejecuciones anteriores; el replay no las duplica
	if _, err := p.Restore(ctx); err != nil {
		slog.Warn("zone restore failed, starting with an empty ledger", "err", err)
	}

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		srv = serveMetrics(cfg.Metrics.Addr, reg)
	}

	if *candlesPath != "" {
		if err := runReplay(ctx, p, console, *candlesPath); err != nil {
			slog.Error("replay failed", "err", err, "path", *candlesPath)
			os.Exit(1)
		}
	}
	if *audit {
		if err := runAudit(ctx, p, console); err != nil {
			slog.Error("audit failed", "err", err)
			os.Exit(1)
		}
	}
	if *kills {
		if err := printPendingKills(ctx, store, alerts); err != nil {
			slog.Error("listing kills failed", "err", err)
			os.Exit(1)
		}
	}

	if srv != nil {
		slog.Info("serving metrics until interrupted", "addr", cfg.Metrics.Addr)
		<-ctx.Done()
		shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
		defer c()
		_ = srv.Shutdown(shutdownCtx)
	}

	slog.Info("riskgate stopped cleanly")
}

// loadConfig tolera que falte el archivo por defecto y usa los defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		Zones: zones.DetectorConfig{
			ATRMultiplier: cfg.Zones.ATRMultiplier,
			MinLookback:   cfg.Zones.MinLookback,
		},
		Tolerances: gate.Tolerances{
			Default:     cfg.Gate.DefaultTolerance,
			ByClass:     cfg.Gate.Tolerances,
			Instruments: cfg.Gate.Instruments,
		},
		BlockShortGamma: cfg.Gate.BlockShortGamma,
		OutlierCap:      cfg.Auditor.OutlierCap,
		Survival: survival.Params{
			InitialEquity:   cfg.Survival.InitialEquity,
			RiskPerTradePct: cfg.Survival.RiskPerTradePct,
			NumTrades:       cfg.Survival.NumTrades,
		},
		Trials:          cfg.Survival.Trials,
		Seed:            cfg.Survival.Seed,
		SurvivalWorkers: cfg.Survival.Workers,
		SentinelWorkers: cfg.Sentinel.Workers,
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	return srv
}

func runReplay(ctx context.Context, p *pipeline.Pipeline, console *notify.Console, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bySymbol, err := readCandles(f)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		added, err := p.IngestCandles(ctx, s, bySymbol[s])
		if err != nil {
			return err
		}
		slog.Info("replayed candles", "symbol", s, "candles", len(bySymbol[s]), "zones", len(added))
		console.PrintZones(s, p.Ledger().Zones(s))
	}
	return nil
}

func runAudit(ctx context.Context, p *pipeline.Pipeline, console *notify.Console) error {
	a, err := p.Audit(ctx)
	if err != nil {
		return err
	}
	console.PrintAudit(a)
	if a.Raw.Trades == 0 {
		return nil
	}
	params, sum, err := p.Project(ctx)
	if err != nil {
		return err
	}
	console.PrintSurvival(params, sum)
	return nil
}

type killOutbox interface {
	PendingKills(ctx context.Context) ([]domain.KillEvent, error)
}

func printPendingKills(ctx context.Context, outbox killOutbox, alerts ports.AlertNotifier) error {
	pending, err := outbox.PendingKills(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info("kill outbox empty")
		return nil
	}
	var errs []error
	for _, e := range pending {
		err := alerts.NotifyAlert(ctx, domain.Alert{
			Title:    "Pending kill " + e.IdempotencyKey,
			Message:  fmt.Sprintf("%s %s at %.5f emitted %s", e.Action, e.Symbol, e.Price, e.EmittedAt.Format(time.RFC3339)),
			Severity: domain.SeverityWarning,
		})
		if err != nil {
			slog.Warn("pending kill alert failed", "key", e.IdempotencyKey, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("alerted %d of %d pending kills: %w", len(pending)-len(errs), len(pending), errors.Join(errs...))
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
