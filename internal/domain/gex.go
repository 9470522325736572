package domain

// OptionType is CALL or PUT.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// OptionContract is one row of an options-chain snapshot.
type OptionContract struct {
	Strike       float64
	Gamma        float64
	OpenInterest float64
	Type         OptionType
}

// GammaRegime classifies dealer positioning.
type GammaRegime string

const (
	LongGamma  GammaRegime = "LONG_GAMMA"
	ShortGamma GammaRegime = "SHORT_GAMMA"
)

// GEXSnapshot is the aggregate gamma exposure of one chain snapshot.
// It is derived and replaced wholesale on every new snapshot.
type GEXSnapshot struct {
	SpotPrice      float64
	CallGEX        float64
	PutGEX         float64 // signed, <= 0
	TotalGEX       float64
	GammaFlipPrice float64
	Regime         GammaRegime
	ByStrike       map[float64]float64
}
