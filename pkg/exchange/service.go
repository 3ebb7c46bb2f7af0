package exchange

import (
	"context"

	"go.uber.org/zap"

	"github.com/brunovale/bolsa/pkg/notify"
	"github.com/brunovale/bolsa/pkg/util"
)

// Exchange owns the instrument registry, the order book, the notification
// hub and the price simulator, and exposes the operations the gateway
// serves remotely.
type Exchange struct {
	log  *zap.SugaredLogger
	reg  *Registry
	book *Book
	hub  *notify.Hub
	sim  *Simulator
}

// hubEvents adapts the hub to the book/simulator event sink.
type hubEvents struct{ hub *notify.Hub }

func (e hubEvents) PriceChanged(symbol string, oldPrice, newPrice float64) {
	e.hub.PublishPriceChange(symbol, oldPrice, newPrice)
}
func (e hubEvents) BookChanged(symbol string) {
	e.hub.PublishBookChange(symbol)
}

// New seeds an exchange. The simulator is built but not started; call
// Start to begin price ticks.
func New(seed []Instrument, simCfg SimConfig, queueSize int, clock util.Clock, log *zap.SugaredLogger) (*Exchange, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	reg, err := NewRegistry(seed)
	if err != nil {
		return nil, err
	}

	hub := notify.NewHub(queueSize, log)
	events := hubEvents{hub: hub}
	book := NewBook(reg.Symbols(), events, log)
	sim := NewSimulator(reg, book, events, simCfg, clock, log)

	return &Exchange{
		log:  log,
		reg:  reg,
		book: book,
		hub:  hub,
		sim:  sim,
	}, nil
}

// Start runs the price simulator until ctx is cancelled.
func (e *Exchange) Start(ctx context.Context) {
	go e.sim.Run(ctx)
}

// Close shuts the notification hub down. The simulator stops through the
// context passed to Start.
func (e *Exchange) Close() {
	e.hub.Close()
}

// ListInstruments returns a point-in-time snapshot of all instruments.
func (e *Exchange) ListInstruments() map[string]Instrument {
	return e.reg.Snapshot()
}

// GetInstrument returns the instrument for symbol, or ErrNotFound.
func (e *Exchange) GetInstrument(symbol string) (Instrument, error) {
	return e.reg.Get(symbol)
}

// SubmitOrder creates and submits a limit order, returning the resting (or
// already executed) order with its generated id. The returned value is the
// snapshot the book took inside the symbol's match section, never a read
// of the live order.
func (e *Exchange) SubmitOrder(ownerID, symbol string, side Side, price float64, qty int64) (Order, error) {
	o := NewOrder(ownerID, symbol, side, price, qty)
	ack, err := e.book.Submit(o)
	if err != nil {
		return Order{}, err
	}
	e.log.Infow("order_submitted",
		"id", ack.ID, "owner", ownerID, "symbol", symbol,
		"side", side.String(), "price", price, "qty", qty,
	)
	return ack, nil
}

// ActiveBuyOrders returns the non-executed buy orders for symbol, best
// price first.
func (e *Exchange) ActiveBuyOrders(symbol string) []Order {
	return e.book.Active(symbol, Buy)
}

// ActiveSellOrders returns the non-executed sell orders for symbol, best
// price first.
func (e *Exchange) ActiveSellOrders(symbol string) []Order {
	return e.book.Active(symbol, Sell)
}

// Subscribe registers a callback handle for change events.
func (e *Exchange) Subscribe(id string, handle notify.Subscriber) {
	e.hub.Register(id, handle)
}

// Unsubscribe removes a previously registered handle. Idempotent.
func (e *Exchange) Unsubscribe(id string) {
	e.hub.Unregister(id)
}

// Subscribers returns the current subscriber count.
func (e *Exchange) Subscribers() int {
	return e.hub.Count()
}
