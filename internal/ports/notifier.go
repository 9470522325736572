package ports

import (
	"context"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// AlertNotifier hands critical alerts to whatever channel the operator uses.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert domain.Alert) error
}
