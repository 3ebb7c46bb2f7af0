package exchange

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Events receives change notifications from the book and the simulator.
// Implementations must not block: they are invoked while the emitting
// symbol's section is held so that notification order matches match order.
type Events interface {
	PriceChanged(symbol string, oldPrice, newPrice float64)
	BookChanged(symbol string)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) PriceChanged(string, float64, float64) {}
func (NopEvents) BookChanged(string)                    {}

// Execution records one matched pair. Quantity mismatches between the two
// orders are deliberately not reconciled: a crossing pair executes both
// orders in full (no partial fills).
type Execution struct {
	Symbol    string
	BuyID     string
	SellID    string
	Price     float64 // sell side's limit price
	Qty       int64   // buy side's quantity
}

// symbolBook holds one symbol's resting orders. All access goes through mu,
// which is also the exclusive match section for the symbol: two match passes
// for the same symbol can never interleave, so no order is consumed twice.
type symbolBook struct {
	mu    sync.Mutex
	buys  []*Order // sorted by price descending, FIFO within a price
	sells []*Order // sorted by price ascending, FIFO within a price
}

// Book is the per-instrument order book. Operations on different symbols
// are fully independent.
type Book struct {
	log     *zap.SugaredLogger
	events  Events
	symbols map[string]*symbolBook // fixed at construction
}

// NewBook creates a book covering exactly the given symbols.
func NewBook(symbols []string, events Events, log *zap.SugaredLogger) *Book {
	if events == nil {
		events = NopEvents{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b := &Book{
		log:     log,
		events:  events,
		symbols: make(map[string]*symbolBook, len(symbols)),
	}
	for _, sym := range symbols {
		b.symbols[sym] = &symbolBook{}
	}
	return b
}

// Submit validates and inserts an order, runs a match pass for its symbol
// and emits a book-changed event whether or not anything matched. The
// returned snapshot is taken while the symbol's section is still held, so
// its Executed flag is consistent with the match pass that produced it;
// once the section is released a concurrent submission may consume the
// resting order at any time.
func (b *Book) Submit(o *Order) (Order, error) {
	if o.Price <= 0 || o.Qty <= 0 {
		return Order{}, fmt.Errorf("order %s: price=%.2f qty=%d: %w", o.ID, o.Price, o.Qty, ErrInvalidOrder)
	}
	if o.Side != Buy && o.Side != Sell {
		return Order{}, fmt.Errorf("order %s: bad side: %w", o.ID, ErrInvalidOrder)
	}
	sb, ok := b.symbols[o.Symbol]
	if !ok {
		return Order{}, fmt.Errorf("order %s: symbol %s: %w", o.ID, o.Symbol, ErrNotFound)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	if o.Side == Buy {
		sb.buys = append(sb.buys, o)
		sort.SliceStable(sb.buys, func(i, j int) bool { return sb.buys[i].Price > sb.buys[j].Price })
	} else {
		sb.sells = append(sb.sells, o)
		sort.SliceStable(sb.sells, func(i, j int) bool { return sb.sells[i].Price < sb.sells[j].Price })
	}

	execs := sb.matchLocked(o.Symbol)
	b.logExecutions(execs)
	b.events.BookChanged(o.Symbol)
	return *o, nil
}

// Match runs a match pass for symbol and emits a book-changed event if any
// pair executed. The price simulator calls this after every price tick;
// crossing only depends on order limit prices, so most passes are no-ops,
// but the pass is kept for parity with submission-triggered matching.
func (b *Book) Match(symbol string) error {
	sb, ok := b.symbols[symbol]
	if !ok {
		return fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	execs := sb.matchLocked(symbol)
	if len(execs) > 0 {
		b.logExecutions(execs)
		b.events.BookChanged(symbol)
	}
	return nil
}

// matchLocked pairs crossing orders. Caller holds sb.mu.
//
// Buys are scanned best-first (highest price); each active buy is paired
// with the best active sell whose price it meets. Both sides of a pair flip
// to executed in the same step, so an order is consumed by at most one
// match per pass. Executed orders are purged before returning.
func (sb *symbolBook) matchLocked(symbol string) []Execution {
	var execs []Execution
	for _, buy := range sb.buys {
		if buy.Executed {
			continue
		}
		for _, sell := range sb.sells {
			if sell.Executed {
				continue
			}
			if buy.Price < sell.Price {
				// Sells are sorted ascending: no later sell can cross.
				break
			}
			buy.Executed = true
			sell.Executed = true
			execs = append(execs, Execution{
				Symbol: symbol,
				BuyID:  buy.ID,
				SellID: sell.ID,
				Price:  sell.Price,
				Qty:    buy.Qty,
			})
			break
		}
	}
	if len(execs) > 0 {
		sb.buys = purgeExecuted(sb.buys)
		sb.sells = purgeExecuted(sb.sells)
	}
	return execs
}

func purgeExecuted(orders []*Order) []*Order {
	kept := orders[:0]
	for _, o := range orders {
		if !o.Executed {
			kept = append(kept, o)
		}
	}
	// Drop tail references so purged orders can be collected.
	for i := len(kept); i < len(orders); i++ {
		orders[i] = nil
	}
	return kept
}

func (b *Book) logExecutions(execs []Execution) {
	for _, ex := range execs {
		b.log.Infow("orders_matched",
			"symbol", ex.Symbol,
			"buy_id", ex.BuyID,
			"sell_id", ex.SellID,
			"price", ex.Price,
			"qty", ex.Qty,
		)
	}
}

// Active returns a snapshot of the non-executed orders on one side of a
// symbol's book, in that side's priority order. Unknown symbols yield an
// empty slice; safe to call concurrently with submission and matching.
func (b *Book) Active(symbol string, side Side) []Order {
	sb, ok := b.symbols[symbol]
	if !ok {
		return nil
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	src := sb.buys
	if side == Sell {
		src = sb.sells
	}
	out := make([]Order, 0, len(src))
	for _, o := range src {
		if !o.Executed {
			out = append(out, *o)
		}
	}
	return out
}
