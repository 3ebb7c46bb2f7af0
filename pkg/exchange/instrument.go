package exchange

// Instrument is a tradable symbol with a display name and current price.
// Symbol and Name are immutable after seeding; Price is owned by the
// registry and only ever read or swapped through it.
type Instrument struct {
	Symbol string
	Name   string
	Price  float64
}

// PriceFloor is the lowest price any perturbation may produce.
const PriceFloor = 0.01
