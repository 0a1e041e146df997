package book

// BookSide holds the price levels for one direction of a book. Levels live
// in a B-tree keyed ascending by price; bids iterate in reverse so the best
// level is always first in iteration order for either side.
//
// The current best level is cached and only recomputed when the best level
// itself is inserted or emptied, so the matching loop's repeated best-price
// lookups stay O(1).

import "github.com/tidwall/btree"

type BookSide struct {
	side   Side
	levels *btree.Map[int64, *PriceLevel]
	best   *PriceLevel
}

func NewBookSide(side Side) *BookSide {
	return &BookSide{
		side:   side,
		levels: btree.NewMap[int64, *PriceLevel](32),
	}
}

func (bs *BookSide) Side() Side { return bs.side }

// Len returns the number of non-empty price levels.
func (bs *BookSide) Len() int { return bs.levels.Len() }

func (bs *BookSide) Empty() bool { return bs.levels.Len() == 0 }

// Best returns the level at the extreme of the side's ordering: highest
// price for bids, lowest for asks. Nil if the side is empty.
func (bs *BookSide) Best() *PriceLevel {
	if bs.best != nil {
		return bs.best
	}
	bs.best = bs.scanBest()
	return bs.best
}

// Lookup returns the level at a price without creating it.
func (bs *BookSide) Lookup(price int64) (*PriceLevel, bool) {
	return bs.levels.Get(price)
}

// Level finds or creates the level for a price.
func (bs *BookSide) Level(price int64) *PriceLevel {
	if lvl, ok := bs.levels.Get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	bs.levels.Set(price, lvl)
	if bs.best != nil && bs.better(price, bs.best.Price) {
		bs.best = lvl
	}
	return lvl
}

// RemoveIfEmpty drops the level at price from the side once it holds no
// orders, invalidating the best cache if the removed level was the best.
func (bs *BookSide) RemoveIfEmpty(price int64) {
	lvl, ok := bs.levels.Get(price)
	if !ok || !lvl.Empty() {
		return
	}
	bs.levels.Delete(price)
	if bs.best == lvl {
		bs.best = nil
	}
}

// Walk visits levels best-first until fn returns false.
func (bs *BookSide) Walk(fn func(*PriceLevel) bool) {
	iter := func(_ int64, lvl *PriceLevel) bool { return fn(lvl) }
	if bs.side == SideBuy {
		bs.levels.Reverse(iter)
	} else {
		bs.levels.Scan(iter)
	}
}

// better reports whether price a outranks price b on this side.
func (bs *BookSide) better(a, b int64) bool {
	if bs.side == SideBuy {
		return a > b
	}
	return a < b
}

func (bs *BookSide) scanBest() *PriceLevel {
	var lvl *PriceLevel
	var ok bool
	if bs.side == SideBuy {
		_, lvl, ok = bs.levels.Max()
	} else {
		_, lvl, ok = bs.levels.Min()
	}
	if !ok {
		return nil
	}
	return lvl
}
