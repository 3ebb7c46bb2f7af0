package exchange

import (
	"fmt"
	"sync"
)

// Registry is the single source of truth for the instrument set and prices.
// Reads hand out value copies, so callers never observe a torn price.
type Registry struct {
	mu          sync.RWMutex
	instruments map[string]*Instrument
}

// NewRegistry seeds a registry. Entries with an empty symbol or a
// non-positive price are rejected.
func NewRegistry(seed []Instrument) (*Registry, error) {
	r := &Registry{instruments: make(map[string]*Instrument, len(seed))}
	for _, in := range seed {
		if in.Symbol == "" || in.Price < PriceFloor {
			return nil, fmt.Errorf("seed instrument %q: bad entry", in.Symbol)
		}
		if _, exists := r.instruments[in.Symbol]; exists {
			return nil, fmt.Errorf("seed instrument %q: duplicate symbol", in.Symbol)
		}
		cp := in
		r.instruments[in.Symbol] = &cp
	}
	return r, nil
}

// Get returns a copy of the instrument for symbol.
func (r *Registry) Get(symbol string) (Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("instrument %s: %w", symbol, ErrNotFound)
	}
	return *in, nil
}

// Snapshot returns a point-in-time copy of the full instrument mapping.
// The copy does not track later price updates.
func (r *Registry) Snapshot() map[string]Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Instrument, len(r.instruments))
	for sym, in := range r.instruments {
		out[sym] = *in
	}
	return out
}

// Symbols returns the set of seeded symbols.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	syms := make([]string, 0, len(r.instruments))
	for sym := range r.instruments {
		syms = append(syms, sym)
	}
	return syms
}

// UpdatePrice atomically swaps the price of symbol and returns the old one.
func (r *Registry) UpdatePrice(symbol string, newPrice float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.instruments[symbol]
	if !ok {
		return 0, fmt.Errorf("instrument %s: %w", symbol, ErrNotFound)
	}
	old := in.Price
	in.Price = newPrice
	return old, nil
}
