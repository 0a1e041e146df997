package book

import "github.com/google/uuid"

// registryEntry records where a resting order lives so cancellation is an
// O(1) lookup instead of a book scan. Entries store the identifier and
// location, never a pointer back into the level, so removal has no cycles
// to break.
type registryEntry struct {
	Symbol   string
	Side     Side
	Price    int64
	ClientID string
}

// OrderRegistry indexes resting orders by identifier. It is a pure lookup
// structure with no lock of its own: it is only ever mutated under the
// serialization boundary of the book that owns it.
type OrderRegistry struct {
	entries map[uuid.UUID]registryEntry
}

func NewOrderRegistry() *OrderRegistry {
	return &OrderRegistry{entries: make(map[uuid.UUID]registryEntry)}
}

// Add registers a resting order. Reusing an identifier that is still
// active is an invariant violation and fails with ErrDuplicateOrderID.
func (r *OrderRegistry) Add(o *Order) error {
	if _, exists := r.entries[o.ID]; exists {
		return ErrDuplicateOrderID
	}
	r.entries[o.ID] = registryEntry{
		Symbol:   o.Symbol,
		Side:     o.Side,
		Price:    o.Price,
		ClientID: o.ClientID,
	}
	return nil
}

// Get returns the location of a resting order.
func (r *OrderRegistry) Get(id uuid.UUID) (registryEntry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Active reports whether the identifier currently rests on the book.
func (r *OrderRegistry) Active(id uuid.UUID) bool {
	_, ok := r.entries[id]
	return ok
}

// Remove drops an order once it turns terminal. Terminal identifiers never
// reappear, so a second removal is a no-op.
func (r *OrderRegistry) Remove(id uuid.UUID) {
	delete(r.entries, id)
}

// Len returns the number of resting orders currently indexed.
func (r *OrderRegistry) Len() int { return len(r.entries) }
