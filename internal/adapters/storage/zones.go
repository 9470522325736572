package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// SaveZone persiste una zona nueva. Zones are never rewritten except for the
// mitigated flag, so a repeated save keeps the stored row.
func (s *SQLiteStorage) SaveZone(ctx context.Context, z domain.Zone) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO zones
			(id, symbol, kind, price_low, price_high, strength, created_index, mitigated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		z.ID, z.Symbol, string(z.Kind), z.PriceLow, z.PriceHigh, z.Strength,
		z.CreatedIndex, boolToInt(z.Mitigated),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveZone: %s: %w", z.ID, err)
	}
	return nil
}

// MarkZoneMitigated sets the mitigated flag. The flag is never cleared and the
// first mitigation time is kept.
func (s *SQLiteStorage) MarkZoneMitigated(ctx context.Context, zoneID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE zones SET mitigated = 1, mitigated_at_ns = COALESCE(mitigated_at_ns, ?)
		WHERE id = ?`, at.UTC().UnixNano(), zoneID)
	if err != nil {
		return fmt.Errorf("storage.MarkZoneMitigated: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.MarkZoneMitigated: %s: %w", zoneID, ErrNotFound)
	}
	return nil
}

// LoadZones devuelve todas las zonas en orden de detección por símbolo.
func (s *SQLiteStorage) LoadZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, kind, price_low, price_high, strength, created_index, mitigated
		FROM zones
		ORDER BY symbol ASC, created_index ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadZones: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Zone
	for rows.Next() {
		var z domain.Zone
		var kind string
		var mitigated int
		if err := rows.Scan(&z.ID, &z.Symbol, &kind, &z.PriceLow, &z.PriceHigh,
			&z.Strength, &z.CreatedIndex, &mitigated); err != nil {
			return nil, fmt.Errorf("storage.LoadZones: scan row: %w", err)
		}
		z.Kind = domain.ZoneKind(kind)
		z.Mitigated = mitigated == 1
		out = append(out, z)
	}
	return out, rows.Err()
}
