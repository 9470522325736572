package zones

import (
	"math"
	"sync"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/google/uuid"
)

// symbolZones holds one symbol's zones behind its own lock so checks on
// different symbols never contend.
type symbolZones struct {
	mu    sync.RWMutex
	zones []domain.Zone
}

// Ledger owns every zone. Zones are appended and mitigated, never deleted.
type Ledger struct {
	mu      sync.RWMutex
	symbols map[string]*symbolZones
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{symbols: make(map[string]*symbolZones)}
}

func (l *Ledger) bucket(symbol string, create bool) *symbolZones {
	l.mu.RLock()
	b, ok := l.symbols[symbol]
	l.mu.RUnlock()
	if ok || !create {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.symbols[symbol]; !ok {
		b = &symbolZones{}
		l.symbols[symbol] = b
	}
	return b
}

// Add appends zone under symbol and returns it with its assigned ID.
// Inverted bounds are normalised so PriceLow <= PriceHigh.
// A zone whose ID is already recorded is not appended again; the stored zone
// is returned instead.
func (l *Ledger) Add(symbol string, zone domain.Zone) domain.Zone {
	z, _ := l.Insert(symbol, zone)
	return z
}

// Insert is Add that also reports whether the zone was new.
func (l *Ledger) Insert(symbol string, zone domain.Zone) (domain.Zone, bool) {
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	zone.Symbol = symbol
	if zone.PriceLow > zone.PriceHigh {
		zone.PriceLow, zone.PriceHigh = zone.PriceHigh, zone.PriceLow
	}

	b := l.bucket(symbol, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(zone.ID); i >= 0 {
		return b.zones[i], false
	}
	b.zones = append(b.zones, zone)
	return zone, true
}

// index returns the position of id in b.zones or -1. Caller holds b.mu.
func (b *symbolZones) index(id string) int {
	for i := range b.zones {
		if b.zones[i].ID == id {
			return i
		}
	}
	return -1
}

// MitigateCheck flips every active zone that price has traded through and
// returns the zones mitigated by this call. A DEMAND zone is mitigated when
// price < PriceLow, a SUPPLY zone when price > PriceHigh. Already mitigated
// zones are skipped, so repeated calls are no-ops.
func (l *Ledger) MitigateCheck(symbol string, price float64) []domain.Zone {
	b := l.bucket(symbol, false)
	if b == nil {
		return nil
	}

	// fast path: most ticks mitigate nothing
	b.mu.RLock()
	hit := false
	for _, z := range b.zones {
		if breaches(z, price) {
			hit = true
			break
		}
	}
	b.mu.RUnlock()
	if !hit {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var flipped []domain.Zone
	for i := range b.zones {
		if breaches(b.zones[i], price) {
			b.zones[i].Mitigated = true
			flipped = append(flipped, b.zones[i])
		}
	}
	return flipped
}

func breaches(z domain.Zone, price float64) bool {
	if z.Mitigated {
		return false
	}
	switch z.Kind {
	case domain.ZoneDemand:
		return price < z.PriceLow
	case domain.ZoneSupply:
		return price > z.PriceHigh
	}
	return false
}

// NearestActive returns the closest non-mitigated zone that opposes side:
// SUPPLY for BUY checks, DEMAND for SELL checks.
func (l *Ledger) NearestActive(symbol string, side domain.SignalSide, price float64) (domain.Zone, bool) {
	kind := domain.ZoneSupply
	if side == domain.SignalSell {
		kind = domain.ZoneDemand
	}

	b := l.bucket(symbol, false)
	if b == nil {
		return domain.Zone{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var (
		best  domain.Zone
		found bool
		dist  = math.Inf(1)
	)
	for _, z := range b.zones {
		if z.Mitigated || z.Kind != kind {
			continue
		}
		if d := z.Distance(price); d < dist {
			best, dist, found = z, d, true
		}
	}
	return best, found
}

// Zones returns a copy of every zone recorded for symbol.
func (l *Ledger) Zones(symbol string) []domain.Zone {
	b := l.bucket(symbol, false)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Zone, len(b.zones))
	copy(out, b.zones)
	return out
}

// Active returns the non-mitigated zones for symbol.
func (l *Ledger) Active(symbol string) []domain.Zone {
	var out []domain.Zone
	for _, z := range l.Zones(symbol) {
		if !z.Mitigated {
			out = append(out, z)
		}
	}
	return out
}

// Restore loads previously persisted zones, keeping their IDs and
// mitigation state. Used to warm the ledger at startup.
func (l *Ledger) Restore(zones []domain.Zone) {
	for _, z := range zones {
		b := l.bucket(z.Symbol, true)
		b.mu.Lock()
		if z.ID == "" || b.index(z.ID) < 0 {
			b.zones = append(b.zones, z)
		}
		b.mu.Unlock()
	}
}

// Symbols lists every symbol with at least one zone.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.symbols))
	for s := range l.symbols {
		out = append(out, s)
	}
	return out
}
