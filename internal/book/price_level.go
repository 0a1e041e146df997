package book

import "github.com/google/uuid"

// PriceLevel is the FIFO queue of resting orders at a single price.
// Arrival order is submission-sequence order, so serving the front first
// gives strict time priority within the level.
//
// The queue is a slice with a moving head index. Serviced slots are nilled
// so filled orders are reclaimable, and the backing array is compacted once
// the dead prefix outgrows the live part.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64 // aggregate remaining quantity across the level

	orders []*Order
	head   int
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Enqueue appends an order to the tail. Every order in a level carries the
// level's exact price; the caller guarantees it.
func (pl *PriceLevel) Enqueue(o *Order) {
	pl.orders = append(pl.orders, o)
	pl.TotalQuantity += o.Remaining
}

// Front returns the oldest resting order, or nil if the level is empty.
func (pl *PriceLevel) Front() *Order {
	if pl.Empty() {
		return nil
	}
	return pl.orders[pl.head]
}

// PopFront removes and returns the oldest resting order.
func (pl *PriceLevel) PopFront() *Order {
	if pl.Empty() {
		return nil
	}
	o := pl.orders[pl.head]
	pl.orders[pl.head] = nil
	pl.head++
	pl.TotalQuantity -= o.Remaining
	pl.maybeCompact()
	return o
}

// Reduce decrements an order's remaining quantity after a fill and keeps
// the level aggregate in step. The caller removes the order (PopFront) once
// remaining reaches zero.
func (pl *PriceLevel) Reduce(o *Order, qty int64) {
	o.Remaining -= qty
	pl.TotalQuantity -= qty
}

// Remove deletes the order with the given ID wherever it sits in the queue,
// preserving the relative order of the rest. Returns the removed order or
// nil if the ID is not at this level.
func (pl *PriceLevel) Remove(id uuid.UUID) *Order {
	for i := pl.head; i < len(pl.orders); i++ {
		o := pl.orders[i]
		if o == nil || o.ID != id {
			continue
		}
		copy(pl.orders[i:], pl.orders[i+1:])
		pl.orders[len(pl.orders)-1] = nil
		pl.orders = pl.orders[:len(pl.orders)-1]
		pl.TotalQuantity -= o.Remaining
		pl.maybeCompact()
		return o
	}
	return nil
}

// Len returns the number of resting orders at this level.
func (pl *PriceLevel) Len() int { return len(pl.orders) - pl.head }

// Empty reports whether the level holds no orders. An empty level must be
// removed from its BookSide immediately.
func (pl *PriceLevel) Empty() bool { return pl.Len() == 0 }

func (pl *PriceLevel) maybeCompact() {
	if pl.head < 32 || pl.head < len(pl.orders)/2 {
		return
	}
	n := copy(pl.orders, pl.orders[pl.head:])
	for i := n; i < len(pl.orders); i++ {
		pl.orders[i] = nil
	}
	pl.orders = pl.orders[:n]
	pl.head = 0
}
