package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// ErrDuplicateOutcome is returned by SaveOutcome when the position already
// has an outcome.
var ErrDuplicateOutcome = errors.New("duplicate outcome: position already closed")

// TradeJournal persists closed-trade outcomes. Outcomes are append-only:
// saving a second outcome for the same position returns ErrDuplicateOutcome.
type TradeJournal interface {
	SaveOutcome(ctx context.Context, outcome domain.TradeOutcome) error

	// Outcomes returns outcomes closed within [from, to], oldest first.
	// A zero from/to leaves that side unbounded.
	Outcomes(ctx context.Context, from, to time.Time) ([]domain.TradeOutcome, error)
}

// ZoneStore snapshots the zone ledger so it survives restarts.
type ZoneStore interface {
	SaveZone(ctx context.Context, zone domain.Zone) error
	MarkZoneMitigated(ctx context.Context, zoneID string, at time.Time) error
	LoadZones(ctx context.Context) ([]domain.Zone, error)
}
