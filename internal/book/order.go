package book

import (
	"time"

	"github.com/google/uuid"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// OrderType distinguishes limit orders, which may rest, from market
// orders, which never do.
type OrderType string

const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

func (t OrderType) Valid() bool { return t == TypeLimit || t == TypeMarket }

// OrderStatus is the closed set of order states. Filled, Cancelled and
// Rejected are terminal.
type OrderStatus string

const (
	StatusResting OrderStatus = "RESTING"
	// StatusPartiallyFilledResting: a limit order that traded on entry and
	// rested its remainder.
	StatusPartiallyFilledResting OrderStatus = "PARTIALLY_FILLED_RESTING"
	// StatusPartiallyFilled: a market order that traded on entry and had
	// its remainder discarded.
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// Terminal reports whether no further transitions may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusRejected
}

// Order is one client instruction. Identity fields are immutable after
// admission; only Remaining and Status mutate as fills occur.
//
// Price and quantity are int64 minor units (ticks). The book never sees
// floating point; the transport layer converts decimals at the boundary.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      Side        `json:"side"`
	Type      OrderType   `json:"type"`
	Price     int64       `json:"price"` // zero for market orders
	Quantity  int64       `json:"quantity"`
	Remaining int64       `json:"remaining"`
	ClientID  string      `json:"client_id"`
	Seq       uint64      `json:"seq"` // monotonic per book, never reused
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Filled returns the cumulatively executed quantity.
func (o *Order) Filled() int64 { return o.Quantity - o.Remaining }

// Trade is one execution between a resting order and the incoming order.
// The price is always the resting order's price. Trades are ephemeral
// values returned to the caller; the book keeps no trade history.
type Trade struct {
	ID              uuid.UUID `json:"id"`
	Symbol          string    `json:"symbol"`
	Price           int64     `json:"price"`
	Quantity        int64     `json:"quantity"`
	RestingOrderID  uuid.UUID `json:"resting_order_id"`
	IncomingOrderID uuid.UUID `json:"incoming_order_id"`
	RestingClientID string    `json:"resting_client_id"`
	TakerClientID   string    `json:"taker_client_id"`
	TakerSide       Side      `json:"taker_side"`
	Seq             uint64    `json:"seq"`
	ExecutedAt      time.Time `json:"executed_at"`
}
