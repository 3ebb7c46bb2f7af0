// Package notify fans price and book change events out to a dynamic set of
// remote subscribers. Publishing never blocks on any one subscriber: each
// subscriber owns a buffered queue drained by a dedicated worker, so a slow
// consumer cannot starve the others. A failed delivery, or a queue that
// overflows, permanently evicts the subscriber: no retry, no backoff.
package notify

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

type EventType int

const (
	PriceEvent EventType = iota
	BookEvent
)

// Event is one change notification. OldPrice/NewPrice are meaningful only
// for PriceEvent.
type Event struct {
	Type     EventType
	Symbol   string
	OldPrice float64
	NewPrice float64
}

// Subscriber is the callback contract invoked for every registered handle.
// The hub delivers every event to every subscriber; filtering by symbol is
// the subscriber's own business. A returned error marks the subscriber
// unreachable and evicts it.
type Subscriber interface {
	OnPriceChanged(symbol string, oldPrice, newPrice float64) error
	OnBookChanged(symbol string) error
}

type subscription struct {
	id     string
	handle Subscriber
	queue  chan Event
	stop   chan struct{}
}

type Hub struct {
	log       *zap.SugaredLogger
	queueSize int

	mu     sync.RWMutex
	subs   map[string]*subscription
	closed bool
	wg     sync.WaitGroup
}

func NewHub(queueSize int, log *zap.SugaredLogger) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		log:       log,
		queueSize: queueSize,
		subs:      make(map[string]*subscription),
	}
}

// Register adds a subscriber handle and starts its delivery worker.
// Re-registering an id replaces the previous handle. Safe to call
// concurrently with an in-flight broadcast.
func (h *Hub) Register(id string, handle Subscriber) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if prev, ok := h.subs[id]; ok {
		close(prev.stop)
	}
	sub := &subscription{
		id:     id,
		handle: handle,
		queue:  make(chan Event, h.queueSize),
		stop:   make(chan struct{}),
	}
	h.subs[id] = sub
	h.wg.Add(1)
	h.mu.Unlock()

	go h.deliverLoop(sub)
	h.log.Infow("subscriber_registered", "id", id, "total", h.Count())
}

// Unregister removes a subscriber. Idempotent; safe during a broadcast.
// Events already queued but not yet delivered are dropped.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.stop)
	}
	h.mu.Unlock()

	if ok {
		h.log.Infow("subscriber_unregistered", "id", id, "total", h.Count())
	}
}

// PublishPriceChange fans a price update out to all current subscribers.
func (h *Hub) PublishPriceChange(symbol string, oldPrice, newPrice float64) {
	h.publish(Event{Type: PriceEvent, Symbol: symbol, OldPrice: oldPrice, NewPrice: newPrice})
}

// PublishBookChange fans a book update out to all current subscribers.
func (h *Hub) PublishBookChange(symbol string) {
	h.publish(Event{Type: BookEvent, Symbol: symbol})
}

// publish snapshots the registry and enqueues the event per subscriber in
// id order, so one call visits subscribers deterministically. A full queue
// means the subscriber is not keeping up; it is evicted like any other
// delivery failure.
func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	snapshot := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].id < snapshot[j].id })

	for _, sub := range snapshot {
		select {
		case sub.queue <- ev:
		default:
			h.evict(sub, "queue overflow")
		}
	}
}

// deliverLoop drains one subscriber's queue. The first delivery error
// evicts the subscriber and ends the loop.
func (h *Hub) deliverLoop(sub *subscription) {
	defer h.wg.Done()
	for {
		select {
		case <-sub.stop:
			return
		case ev := <-sub.queue:
			// Re-check stop so events queued before an unregister are
			// not delivered after it.
			select {
			case <-sub.stop:
				return
			default:
			}
			if err := h.deliver(sub, ev); err != nil {
				h.evict(sub, err.Error())
				return
			}
		}
	}
}

func (h *Hub) deliver(sub *subscription, ev Event) error {
	switch ev.Type {
	case PriceEvent:
		return sub.handle.OnPriceChanged(ev.Symbol, ev.OldPrice, ev.NewPrice)
	case BookEvent:
		return sub.handle.OnBookChanged(ev.Symbol)
	default:
		return nil
	}
}

// evict removes a subscriber after a failed delivery. The failure is fully
// absorbed here; nothing propagates to the publisher. The pointer check
// keeps an eviction racing a re-registration from removing the new handle.
func (h *Hub) evict(sub *subscription, reason string) {
	h.mu.Lock()
	cur, ok := h.subs[sub.id]
	removed := ok && cur == sub
	if removed {
		delete(h.subs, sub.id)
		close(sub.stop)
	}
	h.mu.Unlock()

	if removed {
		h.log.Warnw("subscriber_evicted", "id", sub.id, "reason", reason)
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close evicts everyone and waits for the delivery workers to exit.
// The hub accepts no registrations afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, sub := range h.subs {
		close(sub.stop)
		delete(h.subs, id)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
