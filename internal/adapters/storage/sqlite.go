package storage

// sqlite.go — persistencia local del pipeline de riesgo.
//
// Tablas:
//   - `trade_outcomes`: una fila por posición cerrada (append-only, PK position_id).
//   - `kill_events`: outbox de kills. PK = idempotency key, así un kill repetido
//     por reintentos del sentinel se descarta en el consumidor.
//   - `zones`: snapshot del ledger de zonas para arrancar en caliente.
//   - Prune al arrancar: kills entregados > 30d.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/riskgate/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trade_outcomes (
    position_id  TEXT PRIMARY KEY,
    symbol       TEXT    NOT NULL,
    direction    TEXT    NOT NULL,
    entry_price  REAL    NOT NULL,
    exit_price   REAL    NOT NULL,
    stop_loss    REAL    NOT NULL,
    r_multiple   REAL    NOT NULL,
    closed_at_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kill_events (
    idempotency_key TEXT PRIMARY KEY,
    position_id     TEXT    NOT NULL,
    symbol          TEXT    NOT NULL,
    action          TEXT    NOT NULL,
    reason          TEXT    NOT NULL,
    price           REAL    NOT NULL DEFAULT 0,
    emitted_at_ns   INTEGER NOT NULL,
    delivered_at_ns INTEGER
);

CREATE TABLE IF NOT EXISTS zones (
    id               TEXT PRIMARY KEY,
    symbol           TEXT    NOT NULL,
    kind             TEXT    NOT NULL,
    price_low        REAL    NOT NULL,
    price_high       REAL    NOT NULL,
    strength         REAL    NOT NULL DEFAULT 0,
    created_index    INTEGER NOT NULL DEFAULT 0,
    mitigated        INTEGER NOT NULL DEFAULT 0,
    mitigated_at_ns  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_outcomes_closed ON trade_outcomes(closed_at_ns);
CREATE INDEX IF NOT EXISTS idx_kills_pending   ON kill_events(delivered_at_ns);
CREATE INDEX IF NOT EXISTS idx_zones_symbol    ON zones(symbol);
`

const retentionKills = 30 * 24 * time.Hour // kills entregados: 30 días

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateOutcome is returned when a position already has an outcome.
	ErrDuplicateOutcome = ports.ErrDuplicateOutcome
)

// SQLiteStorage implementa ports.TradeJournal, ports.ZoneStore y
// ports.KillPublisher usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db, now: time.Now}
	s.pruneOld(context.Background())
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina kills ya entregados para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := s.now().Add(-retentionKills).UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM kill_events WHERE delivered_at_ns IS NOT NULL AND delivered_at_ns < ?`, cutoff)
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
