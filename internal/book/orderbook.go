package book

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxSnapshotDepth is the hard cap on levels returned per side.
const MaxSnapshotDepth = 1000

// OrderBook pairs the bid and ask sides for one symbol and owns the
// matching algorithm. All submits, cancels and snapshots for the symbol
// run under one mutex, so the matcher always observes a consistent book
// and price-time priority cannot be violated by interleaving. The lock is
// only ever held for in-memory work.
type OrderBook struct {
	mu       sync.Mutex
	symbol   string
	bids     *BookSide
	asks     *BookSide
	registry *OrderRegistry
	seq      uint64
}

// SubmitResult is what a submit returns to the caller: the accepted
// order's identifier, its final status, and the trades the submission
// produced, in execution order.
type SubmitResult struct {
	OrderID  uuid.UUID   `json:"order_id"`
	Status   OrderStatus `json:"status"`
	Trades   []Trade     `json:"trades"`
	Unfilled int64       `json:"unfilled,omitempty"` // market remainder that was discarded
}

// PriceLevelView is one aggregated level of a snapshot.
type PriceLevelView struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Snapshot is a consistent read-only view of the top of the book,
// best-first on both sides.
type Snapshot struct {
	Symbol string           `json:"symbol"`
	Bids   []PriceLevelView `json:"bids"`
	Asks   []PriceLevelView `json:"asks"`
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:   symbol,
		bids:     NewBookSide(SideBuy),
		asks:     NewBookSide(SideSell),
		registry: NewOrderRegistry(),
	}
}

func (ob *OrderBook) Symbol() string { return ob.symbol }

// Submit validates the incoming order, matches it against the opposing
// side under price-time priority, and rests any limit remainder. Market
// remainders are discarded. Validation failures reject the order before
// the book is touched, so every error path leaves the book unchanged.
func (ob *OrderBook) Submit(o *Order) (*SubmitResult, error) {
	if err := ob.validate(o); err != nil {
		o.Status = StatusRejected
		return &SubmitResult{OrderID: o.ID, Status: StatusRejected}, err
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if ob.registry.Active(o.ID) {
		o.Status = StatusRejected
		return &SubmitResult{OrderID: o.ID, Status: StatusRejected},
			fmt.Errorf("order %s: %w", o.ID, ErrDuplicateOrderID)
	}

	ob.seq++
	o.Seq = ob.seq
	o.Remaining = o.Quantity
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}

	trades := ob.match(o, now)

	res := &SubmitResult{OrderID: o.ID, Trades: trades}
	switch {
	case o.Remaining == 0:
		o.Status = StatusFilled
	case o.Type == TypeMarket:
		// Market orders never rest: the remainder is dropped, and a market
		// order that found no liquidity at all is a rejection.
		res.Unfilled = o.Remaining
		if len(trades) == 0 {
			o.Status = StatusRejected
			res.Status = StatusRejected
			return res, fmt.Errorf("market order %s: %w", o.ID, ErrInsufficientLiquidity)
		}
		o.Status = StatusPartiallyFilled
	default:
		if len(trades) > 0 {
			o.Status = StatusPartiallyFilledResting
		} else {
			o.Status = StatusResting
		}
		ob.rest(o)
	}
	res.Status = o.Status
	return res, nil
}

// match runs the price-time-priority loop: while the incoming order can
// cross the opposing best level, fill against the oldest order there at
// the resting price. Price improvement always goes to the resting side.
func (ob *OrderBook) match(o *Order, now time.Time) []Trade {
	opp := ob.asks
	if o.Side == SideSell {
		opp = ob.bids
	}

	var trades []Trade
	for o.Remaining > 0 {
		best := opp.Best()
		if best == nil || !ob.crosses(o, best.Price) {
			break
		}

		resting := best.Front()
		qty := o.Remaining
		if resting.Remaining < qty {
			qty = resting.Remaining
		}

		best.Reduce(resting, qty)
		o.Remaining -= qty

		ob.seq++
		trades = append(trades, Trade{
			ID:              uuid.New(),
			Symbol:          ob.symbol,
			Price:           resting.Price,
			Quantity:        qty,
			RestingOrderID:  resting.ID,
			IncomingOrderID: o.ID,
			RestingClientID: resting.ClientID,
			TakerClientID:   o.ClientID,
			TakerSide:       o.Side,
			Seq:             ob.seq,
			ExecutedAt:      now,
		})

		if resting.Remaining == 0 {
			resting.Status = StatusFilled
			best.PopFront()
			ob.registry.Remove(resting.ID)
		}
		if best.Empty() {
			opp.RemoveIfEmpty(best.Price)
		}
	}
	return trades
}

// crosses reports whether the incoming order may trade at the opposing
// best price. Market orders always cross a non-empty side.
func (ob *OrderBook) crosses(o *Order, bestPrice int64) bool {
	if o.Type == TypeMarket {
		return true
	}
	if o.Side == SideBuy {
		return o.Price >= bestPrice
	}
	return o.Price <= bestPrice
}

// rest places a limit remainder on its own side and indexes it for cancel.
func (ob *OrderBook) rest(o *Order) {
	side := ob.bids
	if o.Side == SideSell {
		side = ob.asks
	}
	side.Level(o.Price).Enqueue(o)
	// Duplicate IDs were ruled out at admission, so Add cannot fail here.
	_ = ob.registry.Add(o)
}

// Cancel removes a resting order and returns its residual quantity.
// Unknown or already-terminal identifiers fail with ErrNotFound; a
// non-owner fails with ErrUnauthorized and the order stays untouched.
func (ob *OrderBook) Cancel(id uuid.UUID, clientID string) (int64, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	entry, ok := ob.registry.Get(id)
	if !ok {
		return 0, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if entry.ClientID != clientID {
		return 0, fmt.Errorf("order %s: %w", id, ErrUnauthorized)
	}

	side := ob.bids
	if entry.Side == SideSell {
		side = ob.asks
	}
	lvl, ok := side.Lookup(entry.Price)
	if !ok {
		// Registry and book disagree: repair the index and report the
		// order gone rather than leave a dangling entry.
		ob.registry.Remove(id)
		return 0, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}

	o := lvl.Remove(id)
	side.RemoveIfEmpty(entry.Price)
	ob.registry.Remove(id)
	if o == nil {
		return 0, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o.Status = StatusCancelled
	return o.Remaining, nil
}

// Snapshot returns the top depth levels of each side with aggregate
// resting quantity. It takes the book lock for one consistent read and
// never reflects a partially applied operation.
func (ob *OrderBook) Snapshot(depth int) *Snapshot {
	if depth <= 0 || depth > MaxSnapshotDepth {
		depth = MaxSnapshotDepth
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	snap := &Snapshot{
		Symbol: ob.symbol,
		Bids:   make([]PriceLevelView, 0, depth),
		Asks:   make([]PriceLevelView, 0, depth),
	}
	ob.bids.Walk(func(lvl *PriceLevel) bool {
		snap.Bids = append(snap.Bids, PriceLevelView{Price: lvl.Price, Quantity: lvl.TotalQuantity})
		return len(snap.Bids) < depth
	})
	ob.asks.Walk(func(lvl *PriceLevel) bool {
		snap.Asks = append(snap.Asks, PriceLevelView{Price: lvl.Price, Quantity: lvl.TotalQuantity})
		return len(snap.Asks) < depth
	})
	return snap
}

// BestBid returns the best bid price, or false when the side is empty.
func (ob *OrderBook) BestBid() (int64, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if lvl := ob.bids.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// BestAsk returns the best ask price, or false when the side is empty.
func (ob *OrderBook) BestAsk() (int64, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if lvl := ob.asks.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// HasOrder reports whether the identifier still rests on the book.
func (ob *OrderBook) HasOrder(id uuid.UUID) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.registry.Active(id)
}

// RestingOrders returns the number of orders currently on the book.
func (ob *OrderBook) RestingOrders() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.registry.Len()
}

func (ob *OrderBook) validate(o *Order) error {
	switch {
	case o.Symbol != ob.symbol:
		return fmt.Errorf("%w: symbol %q does not match book %q", ErrInvalidOrder, o.Symbol, ob.symbol)
	case !o.Side.Valid():
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	case !o.Type.Valid():
		return fmt.Errorf("%w: type %q", ErrInvalidOrder, o.Type)
	case o.Quantity <= 0:
		return fmt.Errorf("%w: quantity %d", ErrInvalidOrder, o.Quantity)
	case o.Type == TypeLimit && o.Price <= 0:
		return fmt.Errorf("%w: limit price %d", ErrInvalidOrder, o.Price)
	case o.Type == TypeMarket && o.Price != 0:
		return fmt.Errorf("%w: market order carries a price", ErrInvalidOrder)
	}
	return nil
}
