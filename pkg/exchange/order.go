package exchange

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is a limit order resting in the book. Everything but Executed is
// immutable after submission; Executed flips false->true exactly once and
// never reverts.
type Order struct {
	ID        string
	OwnerID   string
	Symbol    string
	Side      Side
	Price     float64
	Qty       int64
	CreatedAt time.Time
	Executed  bool
}

var (
	idMu   sync.Mutex
	idMono io.Reader
)

func init() {
	// Seed a PRNG from crypto/rand. ulid.Monotonic keeps IDs generated
	// within the same millisecond lexicographically increasing, so an
	// order's ID also encodes its submission order.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	idMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewOrderID returns a time-sortable ULID string.
func NewOrderID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), idMono)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return id.String()
}

// NewOrder builds an order with a fresh ID and creation timestamp.
// Validation happens at submission, not here.
func NewOrder(ownerID, symbol string, side Side, price float64, qty int64) *Order {
	return &Order{
		ID:        NewOrderID(),
		OwnerID:   ownerID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Qty:       qty,
		CreatedAt: time.Now().UTC(),
	}
}
