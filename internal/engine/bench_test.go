package engine

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

// seedBook rests depth price levels on each side around mid so the
// benchmark measures matching against a populated book.
func seedBook(b *testing.B, e *Engine, symbol string, depth int, mid int64) {
	b.Helper()
	for i := 1; i <= depth; i++ {
		if _, err := e.SubmitOrder(limitReq(symbol, book.SideBuy, mid-int64(i), 100, "seed")); err != nil {
			b.Fatal(err)
		}
		if _, err := e.SubmitOrder(limitReq(symbol, book.SideSell, mid+int64(i), 100, "seed")); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSubmitAndMatch(b *testing.B) {
	e := New(zap.NewNop())
	const mid = 10000
	seedBook(b, e, "BENCH", 64, mid)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// A crossing buy/sell pair leaves the book where it started.
		if _, err := e.SubmitOrder(limitReq("BENCH", book.SideBuy, mid, 10, "bench")); err != nil {
			b.Fatal(err)
		}
		if _, err := e.SubmitOrder(limitReq("BENCH", book.SideSell, mid, 10, "bench")); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRestingSubmitCancel(b *testing.B) {
	e := New(zap.NewNop())
	seedBook(b, e, "BENCH", 64, 10000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := e.SubmitOrder(limitReq("BENCH", book.SideBuy, 5000, 10, "bench"))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := e.CancelOrder(res.OrderID, "bench"); err != nil {
			b.Fatal(err)
		}
	}
}
