package book

import "errors"

// Error kinds returned by the book. Each is a sentinel so callers can
// classify failures with errors.Is and map them onto transport codes.
// A failing operation leaves the book exactly as it was.
var (
	// ErrInvalidOrder: bad price, quantity or symbol. Rejected before the
	// book is touched.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientLiquidity: a market order's remainder could not be
	// filled. The remainder is discarded, never rested.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrNotFound: cancel target unknown or already terminal.
	ErrNotFound = errors.New("order not found")

	// ErrUnauthorized: cancel requested by a client that does not own the
	// order.
	ErrUnauthorized = errors.New("client does not own order")

	// ErrDuplicateOrderID: an active identifier was reused. Should be
	// impossible with monotonic assignment; treated as an invariant
	// violation fatal to the one operation.
	ErrDuplicateOrderID = errors.New("duplicate order id")
)
