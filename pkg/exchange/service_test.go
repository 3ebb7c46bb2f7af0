package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brunovale/bolsa/pkg/util"
)

// recordingSubscriber implements notify.Subscriber for end-to-end checks.
type recordingSubscriber struct {
	mu     sync.Mutex
	prices int
	books  int
}

func (s *recordingSubscriber) OnPriceChanged(string, float64, float64) error {
	s.mu.Lock()
	s.prices++
	s.mu.Unlock()
	return nil
}

func (s *recordingSubscriber) OnBookChanged(string) error {
	s.mu.Lock()
	s.books++
	s.mu.Unlock()
	return nil
}

func (s *recordingSubscriber) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices, s.books
}

func newTestExchange(t *testing.T) *Exchange {
	t.Helper()
	ex, err := New([]Instrument{
		{Symbol: "X", Name: "Xis", Price: 100.00},
		{Symbol: "Y", Name: "Ipsilon", Price: 50.00},
	}, SimConfig{}, 64, util.RealClock{}, nil)
	if err != nil {
		t.Fatalf("new exchange: %v", err)
	}
	t.Cleanup(ex.Close)
	return ex
}

func TestExchangeSubmitAndMatch(t *testing.T) {
	ex := newTestExchange(t)

	sub := &recordingSubscriber{}
	ex.Subscribe("inv-1", sub)

	buy, err := ex.SubmitOrder("inv-1", "X", Buy, 105, 100)
	if err != nil {
		t.Fatalf("submit buy: %v", err)
	}
	if buy.Executed {
		t.Fatal("lone buy reported executed")
	}

	sell, err := ex.SubmitOrder("inv-2", "X", Sell, 102, 100)
	if err != nil {
		t.Fatalf("submit sell: %v", err)
	}
	if !sell.Executed {
		t.Fatal("crossing sell not executed")
	}

	if n := len(ex.ActiveBuyOrders("X")); n != 0 {
		t.Errorf("active buys = %d, want 0", n)
	}
	if n := len(ex.ActiveSellOrders("X")); n != 0 {
		t.Errorf("active sells = %d, want 0", n)
	}

	// Two submissions, two book-change events; no price ticks ran.
	deadline := time.Now().Add(2 * time.Second)
	for {
		prices, books := sub.counts()
		if books == 2 {
			if prices != 0 {
				t.Errorf("price events = %d, want 0", prices)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("book events = %d, want 2", books)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConcurrentSubmitOrderAcks(t *testing.T) {
	// Crossing submissions race against each other's match passes; the
	// returned ack must still be readable without touching the live order.
	ex := newTestExchange(t)

	const pairs = 500
	var executed int64

	var wg sync.WaitGroup
	flood := func(side Side) {
		defer wg.Done()
		for i := 0; i < pairs; i++ {
			ack, err := ex.SubmitOrder("inv-"+side.String(), "X", side, 100, 1)
			if err != nil {
				t.Errorf("submit %s: %v", side, err)
				return
			}
			if ack.Executed {
				atomic.AddInt64(&executed, 1)
			}
		}
	}

	wg.Add(2)
	go flood(Buy)
	go flood(Sell)
	wg.Wait()

	// Equal crossing counts on both sides: the book ends flat.
	if n := len(ex.ActiveBuyOrders("X")); n != 0 {
		t.Errorf("active buys = %d, want 0", n)
	}
	if n := len(ex.ActiveSellOrders("X")); n != 0 {
		t.Errorf("active sells = %d, want 0", n)
	}
	// Every pair reports exactly one side executed at submit time; the
	// other side learns of the match in a later pass.
	if got := atomic.LoadInt64(&executed); got != pairs {
		t.Errorf("executed acks = %d, want %d", got, pairs)
	}
}

func TestExchangeSubmitErrors(t *testing.T) {
	ex := newTestExchange(t)

	if _, err := ex.SubmitOrder("inv-1", "ZZZZ3", Buy, 10, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown symbol: %v, want ErrNotFound", err)
	}
	if _, err := ex.SubmitOrder("inv-1", "X", Buy, 0, 1); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("zero price: %v, want ErrInvalidOrder", err)
	}
	if _, err := ex.SubmitOrder("inv-1", "X", Sell, 10, 0); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("zero qty: %v, want ErrInvalidOrder", err)
	}
}

func TestExchangeLookups(t *testing.T) {
	ex := newTestExchange(t)

	snap := ex.ListInstruments()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}

	in, err := ex.GetInstrument("Y")
	if err != nil || in.Price != 50.00 {
		t.Fatalf("GetInstrument(Y) = %+v, %v", in, err)
	}
	if _, err := ex.GetInstrument("ZZZZ3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetInstrument(unknown) = %v, want ErrNotFound", err)
	}
}

func TestExchangeUnsubscribe(t *testing.T) {
	ex := newTestExchange(t)

	sub := &recordingSubscriber{}
	ex.Subscribe("inv-1", sub)
	if ex.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", ex.Subscribers())
	}

	ex.Unsubscribe("inv-1")
	ex.Unsubscribe("inv-1")
	if ex.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", ex.Subscribers())
	}

	ex.SubmitOrder("inv-2", "Y", Buy, 40, 10)
	time.Sleep(50 * time.Millisecond)
	if _, books := sub.counts(); books != 0 {
		t.Errorf("unsubscribed handle received %d book events", books)
	}
}

func TestExchangeSimulatorLifecycle(t *testing.T) {
	ex, err := New([]Instrument{
		{Symbol: "X", Name: "Xis", Price: 100.00},
	}, SimConfig{
		MinTick:     time.Millisecond,
		MaxTick:     3 * time.Millisecond,
		MaxDriftPct: 0.02,
	}, 256, util.RealClock{}, nil)
	if err != nil {
		t.Fatalf("new exchange: %v", err)
	}
	defer ex.Close()

	sub := &recordingSubscriber{}
	ex.Subscribe("inv-1", sub)

	ctx, cancel := context.WithCancel(context.Background())
	ex.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if prices, _ := sub.counts(); prices >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no price events from running simulator")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	in, err := ex.GetInstrument("X")
	if err != nil {
		t.Fatalf("get after ticks: %v", err)
	}
	if in.Price < PriceFloor {
		t.Errorf("price %v below floor", in.Price)
	}
}
