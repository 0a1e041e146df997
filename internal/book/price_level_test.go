package book

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelOrder(qty int64) *Order {
	return &Order{ID: uuid.New(), Price: 100, Quantity: qty, Remaining: qty}
}

func TestPriceLevelFIFO(t *testing.T) {
	lvl := newPriceLevel(100)
	a, b, c := levelOrder(10), levelOrder(20), levelOrder(30)
	lvl.Enqueue(a)
	lvl.Enqueue(b)
	lvl.Enqueue(c)

	assert.Equal(t, 3, lvl.Len())
	assert.Equal(t, int64(60), lvl.TotalQuantity)

	assert.Same(t, a, lvl.PopFront())
	assert.Same(t, b, lvl.PopFront())
	assert.Same(t, c, lvl.Front())
	assert.Equal(t, int64(30), lvl.TotalQuantity)
}

func TestPriceLevelReduce(t *testing.T) {
	lvl := newPriceLevel(100)
	o := levelOrder(50)
	lvl.Enqueue(o)

	lvl.Reduce(o, 20)
	assert.Equal(t, int64(30), o.Remaining)
	assert.Equal(t, int64(30), lvl.TotalQuantity)
}

func TestPriceLevelRemoveMiddle(t *testing.T) {
	lvl := newPriceLevel(100)
	a, b, c := levelOrder(10), levelOrder(20), levelOrder(30)
	lvl.Enqueue(a)
	lvl.Enqueue(b)
	lvl.Enqueue(c)

	removed := lvl.Remove(b.ID)
	require.NotNil(t, removed)
	assert.Same(t, b, removed)
	assert.Equal(t, int64(40), lvl.TotalQuantity)

	// FIFO order of the remainder is preserved.
	assert.Same(t, a, lvl.PopFront())
	assert.Same(t, c, lvl.PopFront())
	assert.True(t, lvl.Empty())
}

func TestPriceLevelRemoveUnknown(t *testing.T) {
	lvl := newPriceLevel(100)
	lvl.Enqueue(levelOrder(10))
	assert.Nil(t, lvl.Remove(uuid.New()))
	assert.Equal(t, 1, lvl.Len())
}

func TestPriceLevelCompaction(t *testing.T) {
	lvl := newPriceLevel(100)
	for i := 0; i < 200; i++ {
		lvl.Enqueue(levelOrder(1))
	}
	for i := 0; i < 199; i++ {
		lvl.PopFront()
	}
	// The dead prefix must not grow without bound in a sustained
	// enqueue/pop workload.
	assert.Less(t, len(lvl.orders), 200)
	assert.Equal(t, 1, lvl.Len())
	assert.Equal(t, int64(1), lvl.TotalQuantity)
}
