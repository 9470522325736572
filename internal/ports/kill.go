package ports

import (
	"context"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// KillPublisher delivers kill events to the execution side. Delivery is
// at-least-once; consumers dedupe on KillEvent.IdempotencyKey.
type KillPublisher interface {
	PublishKill(ctx context.Context, event domain.KillEvent) error
}
