package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// PublishKill graba el kill en el outbox. Un kill con una idempotency key ya
// vista se ignora sin error: el sentinel puede reintentar.
func (s *SQLiteStorage) PublishKill(ctx context.Context, e domain.KillEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO kill_events
			(idempotency_key, position_id, symbol, action, reason, price, emitted_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.IdempotencyKey, e.PositionID, e.Symbol, string(e.Action), e.Reason,
		e.Price, e.EmittedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage.PublishKill: %s: %w", e.IdempotencyKey, err)
	}
	return nil
}

// PendingKills returns kills not yet acknowledged by the relay, oldest first.
func (s *SQLiteStorage) PendingKills(ctx context.Context) ([]domain.KillEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idempotency_key, position_id, symbol, action, reason, price, emitted_at_ns
		FROM kill_events
		WHERE delivered_at_ns IS NULL
		ORDER BY emitted_at_ns ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.PendingKills: query: %w", err)
	}
	defer rows.Close()

	var out []domain.KillEvent
	for rows.Next() {
		var e domain.KillEvent
		var action string
		var emittedNs int64
		if err := rows.Scan(&e.IdempotencyKey, &e.PositionID, &e.Symbol, &action,
			&e.Reason, &e.Price, &emittedNs); err != nil {
			return nil, fmt.Errorf("storage.PendingKills: scan row: %w", err)
		}
		e.Action = domain.KillAction(action)
		e.EmittedAt = fromNanos(emittedNs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AckKill marks a kill as delivered. Acking twice is a no-op.
func (s *SQLiteStorage) AckKill(ctx context.Context, key string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE kill_events SET delivered_at_ns = COALESCE(delivered_at_ns, ?)
		WHERE idempotency_key = ?`, at.UTC().UnixNano(), key)
	if err != nil {
		return fmt.Errorf("storage.AckKill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.AckKill: %s: %w", key, ErrNotFound)
	}
	return nil
}
