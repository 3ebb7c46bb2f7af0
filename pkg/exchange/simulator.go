package exchange

import (
	"container/heap"
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/brunovale/bolsa/pkg/util"
)

// SimConfig bounds the randomized tick interval and the per-tick drift.
type SimConfig struct {
	MinTick     time.Duration
	MaxTick     time.Duration
	MaxDriftPct float64
}

// tickEntry is one scheduled price tick.
type tickEntry struct {
	due    time.Time
	symbol string
}

// tickHeap orders pending ticks by due time (earliest on top).
type tickHeap []tickEntry

func (h tickHeap) Len() int            { return len(h) }
func (h tickHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h tickHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *tickHeap) Push(x interface{}) { *h = append(*h, x.(tickEntry)) }

func (h *tickHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Simulator perturbs instrument prices in the background. A single
// goroutine drives all symbols off a min-heap of due times instead of one
// goroutine per instrument, so resource usage stays flat as the instrument
// count grows while each symbol keeps its own independent random interval.
type Simulator struct {
	log    *zap.SugaredLogger
	clock  util.Clock
	reg    *Registry
	book   *Book
	events Events
	cfg    SimConfig
	rng    *rand.Rand
}

func NewSimulator(reg *Registry, book *Book, events Events, cfg SimConfig, clock util.Clock, log *zap.SugaredLogger) *Simulator {
	if clock == nil {
		clock = util.RealClock{}
	}
	if events == nil {
		events = NopEvents{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.MinTick <= 0 {
		cfg.MinTick = time.Second
	}
	if cfg.MaxTick <= cfg.MinTick {
		cfg.MaxTick = cfg.MinTick + 4*time.Second
	}
	if cfg.MaxDriftPct <= 0 {
		cfg.MaxDriftPct = 0.02
	}
	return &Simulator{
		log:    log,
		clock:  clock,
		reg:    reg,
		book:   book,
		events: events,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// interval draws the next tick interval uniformly in [MinTick, MaxTick).
// Re-randomized on every tick, like the original per-instrument sleepers.
func (s *Simulator) interval() time.Duration {
	span := s.cfg.MaxTick - s.cfg.MinTick
	return s.cfg.MinTick + time.Duration(s.rng.Int63n(int64(span)))
}

// Run drives price ticks until ctx is cancelled. Each pass pops the next
// due symbol, perturbs its price and reschedules it. Cancellation is
// checked on every wait, so shutdown is deterministic and leak-free.
func (s *Simulator) Run(ctx context.Context) {
	symbols := s.reg.Symbols()
	if len(symbols) == 0 {
		s.log.Warn("price simulator has no instruments to drive")
		return
	}

	pending := make(tickHeap, 0, len(symbols))
	heap.Init(&pending)
	for _, sym := range symbols {
		heap.Push(&pending, tickEntry{due: s.clock.Now().Add(s.interval()), symbol: sym})
	}

	s.log.Infow("price_simulator_started", "instruments", len(symbols))
	for {
		next := pending[0]
		select {
		case <-ctx.Done():
			s.log.Info("price_simulator_stopped")
			return
		case <-s.clock.After(next.due.Sub(s.clock.Now())):
		}

		heap.Pop(&pending)
		s.tick(next.symbol)
		heap.Push(&pending, tickEntry{due: s.clock.Now().Add(s.interval()), symbol: next.symbol})
	}
}

// tick applies one random perturbation to symbol: read, drift, clamp to the
// price floor, swap, notify, then re-run the symbol's match pass.
func (s *Simulator) tick(symbol string) {
	in, err := s.reg.Get(symbol)
	if err != nil {
		// Symbols are fixed at seeding, so this indicates a wiring bug.
		// Log and keep the simulator alive for the other instruments.
		s.log.Errorw("price_tick_failed", "symbol", symbol, "err", err)
		return
	}

	delta := (s.rng.Float64()*2 - 1) * s.cfg.MaxDriftPct
	newPrice := in.Price * (1 + delta)
	if newPrice < PriceFloor {
		newPrice = PriceFloor
	}

	old, err := s.reg.UpdatePrice(symbol, newPrice)
	if err != nil {
		s.log.Errorw("price_tick_failed", "symbol", symbol, "err", err)
		return
	}

	s.events.PriceChanged(symbol, old, newPrice)
	if err := s.book.Match(symbol); err != nil {
		s.log.Errorw("book_reeval_failed", "symbol", symbol, "err", err)
	}

	s.log.Infow("price_updated", "symbol", symbol, "old", old, "new", newPrice)
}
