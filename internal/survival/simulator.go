// Package survival projects long-run equity from edge statistics with a
// Monte-Carlo walk of win/loss outcomes.
package survival

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RuinFraction is the share of initial equity at or below which a run is ruined.
const RuinFraction = 0.5

// Params describes one simulated trading career.
type Params struct {
	WinRate         float64
	AvgWinR         float64
	AvgLossR        float64 // sign ignored
	InitialEquity   float64
	RiskPerTradePct float64 // fraction of current equity risked per trade, e.g. 0.01
	NumTrades       int
}

// Result is the outcome of one run.
type Result struct {
	FinalEquity     float64
	MaxDrawdownPct  float64 // peak-to-trough, as a fraction of the peak
	RuinOccurred    bool
	TradesCompleted int
}

// Simulate walks NumTrades Bernoulli outcomes drawn from rng. It stops early
// once equity falls to RuinFraction of the initial equity.
func Simulate(p Params, rng *rand.Rand) Result {
	equity := p.InitialEquity
	peak := equity
	ruinLevel := RuinFraction * p.InitialEquity
	lossR := math.Abs(p.AvgLossR)

	res := Result{FinalEquity: equity}
	for i := 0; i < p.NumTrades; i++ {
		riskAmount := equity * p.RiskPerTradePct
		if rng.Float64() < p.WinRate {
			equity += riskAmount * p.AvgWinR
		} else {
			equity -= riskAmount * lossR
		}
		res.TradesCompleted++

		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > res.MaxDrawdownPct {
				res.MaxDrawdownPct = dd
			}
		}
		if equity <= ruinLevel {
			res.RuinOccurred = true
			break
		}
	}
	res.FinalEquity = equity
	return res
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Summary aggregates many independent runs.
type Summary struct {
	Trials            int
	Ruined            int
	RuinProbability   float64
	MedianFinalEquity float64
	MeanFinalEquity   float64
	WorstDrawdownPct  float64
	Results           []Result
}

// RunTrials runs trials independent simulations in parallel. Trial i uses
// seed+i, so the summary is reproducible regardless of scheduling.
// workers <= 0 uses NumCPU.
func RunTrials(ctx context.Context, p Params, trials int, seed uint64, workers int) (Summary, error) {
	if trials <= 0 {
		return Summary{}, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < trials; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Simulate(p, NewRand(seed+uint64(i)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summarize(results), nil
}

func summarize(results []Result) Summary {
	s := Summary{Trials: len(results), Results: results}
	finals := make([]float64, len(results))
	var sum float64
	for i, r := range results {
		finals[i] = r.FinalEquity
		sum += r.FinalEquity
		if r.RuinOccurred {
			s.Ruined++
		}
		if r.MaxDrawdownPct > s.WorstDrawdownPct {
			s.WorstDrawdownPct = r.MaxDrawdownPct
		}
	}
	sort.Float64s(finals)
	n := len(finals)
	if n%2 == 1 {
		s.MedianFinalEquity = finals[n/2]
	} else {
		s.MedianFinalEquity = (finals[n/2-1] + finals[n/2]) / 2
	}
	s.MeanFinalEquity = sum / float64(n)
	s.RuinProbability = float64(s.Ruined) / float64(n)
	return s
}
