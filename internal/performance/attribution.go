package performance

import "github.com/alejandrodnm/riskgate/internal/domain"

// DefaultOutlierCap is the R above which a win counts as an outlier.
const DefaultOutlierCap = 10.0

// Attribution compares raw edge with edge after capping outlier wins.
type Attribution struct {
	Base     domain.EdgeStatistics // computed on the capped series
	Raw      domain.EdgeStatistics // computed on the series as given
	Outliers []float64             // original values that exceeded the cap
	Cap      float64
}

// OutlierShare is the fraction of raw expectancy explained by outliers.
// It is 0 when raw expectancy is not positive.
func (a Attribution) OutlierShare() float64 {
	if a.Raw.Expectancy <= 0 {
		return 0
	}
	share := (a.Raw.Expectancy - a.Base.Expectancy) / a.Raw.Expectancy
	return max(0, min(1, share))
}

// Attribute caps every positive R at outlierCap (losses are never capped),
// recomputes the statistics on the capped series and reports which values
// were capped. A non-positive cap falls back to DefaultOutlierCap.
func Attribute(rs []float64, outlierCap float64) Attribution {
	if outlierCap <= 0 {
		outlierCap = DefaultOutlierCap
	}

	capped := make([]float64, len(rs))
	var outliers []float64
	for i, r := range rs {
		if r > outlierCap {
			outliers = append(outliers, r)
			capped[i] = outlierCap
			continue
		}
		capped[i] = r
	}

	base := Stats(capped)
	base.OutliersFound = len(outliers)
	return Attribution{
		Base:     base,
		Raw:      Stats(rs),
		Outliers: outliers,
		Cap:      outlierCap,
	}
}

// Stats computes edge statistics. Wins are R > 0, losses R < 0; scratches
// (R == 0) count toward the trade total only. An empty series is all zeros.
func Stats(rs []float64) domain.EdgeStatistics {
	st := domain.EdgeStatistics{Trades: len(rs)}
	if len(rs) == 0 {
		return st
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, r := range rs {
		switch {
		case r > 0:
			wins++
			winSum += r
		case r < 0:
			losses++
			lossSum += r
		}
	}

	st.WinRate = float64(wins) / float64(len(rs))
	if wins > 0 {
		st.AvgWinR = winSum / float64(wins)
	}
	if losses > 0 {
		st.AvgLossR = lossSum / float64(losses)
	}
	st.Expectancy = Expectancy(st.WinRate, st.AvgWinR, st.AvgLossR)
	return st
}

// RValues extracts the R-multiples from outcomes in order.
func RValues(outcomes []domain.TradeOutcome) []float64 {
	rs := make([]float64, len(outcomes))
	for i, o := range outcomes {
		rs[i] = o.RMultiple
	}
	return rs
}
