package domain

// SignalSide is the direction of a proposed trade signal.
type SignalSide string

const (
	SignalBuy  SignalSide = "BUY"
	SignalSell SignalSide = "SELL"
)

// PositionSide is the direction of an order or open position.
type PositionSide string

const (
	Long  PositionSide = "LONG"
	Short PositionSide = "SHORT"
)

// Valid reports whether s is LONG or SHORT.
func (s PositionSide) Valid() bool {
	return s == Long || s == Short
}

// PositionSide maps a signal direction to the side of the position it would open.
func (s SignalSide) PositionSide() PositionSide {
	if s == SignalSell {
		return Short
	}
	return Long
}
