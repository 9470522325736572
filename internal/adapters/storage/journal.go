package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// SaveOutcome appends the outcome of a closed position. A second outcome for
// the same position returns ErrDuplicateOutcome.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, o domain.TradeOutcome) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trade_outcomes
			(position_id, symbol, direction, entry_price, exit_price, stop_loss, r_multiple, closed_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.PositionID, o.Symbol, string(o.Direction), o.EntryPrice, o.ExitPrice,
		o.StopLoss, o.RMultiple, o.ClosedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOutcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.SaveOutcome: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage.SaveOutcome: %s: %w", o.PositionID, ErrDuplicateOutcome)
	}
	return nil
}

// Outcomes devuelve los trades cerrados en [from, to], más antiguos primero.
// Un from/to cero deja ese extremo abierto.
func (s *SQLiteStorage) Outcomes(ctx context.Context, from, to time.Time) ([]domain.TradeOutcome, error) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !from.IsZero() {
		lo = from.UTC().UnixNano()
	}
	if !to.IsZero() {
		hi = to.UTC().UnixNano()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, symbol, direction, entry_price, exit_price, stop_loss, r_multiple, closed_at_ns
		FROM trade_outcomes
		WHERE closed_at_ns BETWEEN ? AND ?
		ORDER BY closed_at_ns ASC, position_id ASC
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("storage.Outcomes: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeOutcome
	for rows.Next() {
		var o domain.TradeOutcome
		var dir string
		var closedNs int64
		if err := rows.Scan(&o.PositionID, &o.Symbol, &dir, &o.EntryPrice, &o.ExitPrice,
			&o.StopLoss, &o.RMultiple, &closedNs); err != nil {
			return nil, fmt.Errorf("storage.Outcomes: scan row: %w", err)
		}
		o.Direction = domain.PositionSide(dir)
		o.ClosedAt = fromNanos(closedNs)
		out = append(out, o)
	}
	return out, rows.Err()
}
