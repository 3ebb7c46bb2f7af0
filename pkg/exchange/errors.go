package exchange

import "errors"

var (
	// ErrNotFound reports a lookup or submission against an unknown symbol.
	ErrNotFound = errors.New("unknown symbol")

	// ErrInvalidOrder reports an order with a non-positive price or quantity.
	ErrInvalidOrder = errors.New("invalid order")
)
