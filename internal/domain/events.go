package domain

import "time"

// KillAction is the instruction carried by a kill event.
type KillAction string

const KillClose KillAction = "CLOSE"

// Kill reasons.
const (
	ReasonSLBreach = "SL_BREACH"
)

// KillEvent instructs execution to close a position. IdempotencyKey is
// stable for a given breach so consumers can drop duplicates.
type KillEvent struct {
	IdempotencyKey string
	PositionID     string
	Symbol         string
	Action         KillAction
	Reason         string
	Price          float64
	EmittedAt      time.Time
}

// KillKey builds the idempotency key for a kill event.
func KillKey(symbol, reason, positionID string) string {
	return symbol + ":" + reason + ":" + positionID
}

// Severity of an alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is delivered to the external notification collaborator.
type Alert struct {
	Title    string
	Message  string
	Severity Severity
}
