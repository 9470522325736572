package domain

// Order is a trade submission awaiting validation. StopLoss and TakeProfit
// are pointers because "absent" is distinct from zero on the wire.
type Order struct {
	Symbol     string
	Side       PositionSide
	EntryPrice float64
	StopLoss   *float64
	TakeProfit *float64
}

// Price returns a pointer to v, handy for building orders and SL requests.
func Price(v float64) *float64 {
	return &v
}
