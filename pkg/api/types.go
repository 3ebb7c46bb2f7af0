package api

import "time"

// InstrumentInfo is the wire form of an instrument snapshot.
type InstrumentInfo struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// OrderInfo is the wire form of a resting order.
type OrderInfo struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Qty       int64     `json:"qty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubmitOrderRequest struct {
	OwnerID string  `json:"ownerId"`
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"` // "buy" or "sell"
	Price   float64 `json:"price"`
	Qty     int64   `json:"qty"`
}

type SubmitOrderResponse struct {
	Status   string `json:"status"`
	OrderID  string `json:"orderId"`
	Executed bool   `json:"executed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSRequest is a subscriber control message.
//
//	{"op": "subscribe", "id": "inv-1"}
//	{"op": "unsubscribe"}
type WSRequest struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// WSEvent is one pushed change notification. OldPrice/NewPrice are present
// only for type "price".
type WSEvent struct {
	Type      string  `json:"type"` // "price" or "book"
	Symbol    string  `json:"symbol"`
	OldPrice  float64 `json:"oldPrice,omitempty"`
	NewPrice  float64 `json:"newPrice,omitempty"`
	Timestamp int64   `json:"timestamp"`
}
