package risk

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// CheckAll runs Check for every position in parallel and returns the
// breached ones. prices is keyed by symbol; positions without a price are
// skipped. workers <= 0 uses NumCPU*2.
//
// Positions are independent, so ordering between workers does not matter;
// the only shared state is each position's own status flag.
func (s *Sentinel) CheckAll(ctx context.Context, positions []*Position, prices map[string]float64, workers int) []*Position {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type work struct {
		pos   *Position
		price float64
	}

	workCh := make(chan work, len(positions))
	resultCh := make(chan *Position, len(positions))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if ctx.Err() != nil {
					continue
				}
				if s.Check(ctx, w.pos, w.price) {
					resultCh <- w.pos
				}
			}
		}()
	}

	queued := 0
	for _, p := range positions {
		price, ok := prices[p.Symbol]
		if !ok {
			continue
		}
		workCh <- work{pos: p, price: price}
		queued++
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var breached []*Position
	for p := range resultCh {
		breached = append(breached, p)
	}

	slog.Debug("sentinel sweep complete",
		"positions_queued", queued,
		"breached", len(breached),
		"workers", workers,
	)
	return breached
}
