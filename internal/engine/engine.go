// Package engine routes order flow to per-symbol books.
//
// The engine is the only entry point into the matching core: it creates a
// book the first time a symbol is seen, serializes all work on a symbol
// through that book's lock, and lets different symbols proceed fully in
// parallel. No state is shared across symbols except the routing tables
// owned here.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
	"github.com/tradeflow/matching-engine/pkg/metrics"
)

// TradeSink receives executed trades after the owning book's lock has been
// released. Implementations must not block the submit path; hand off to a
// queue if delivery is slow.
type TradeSink interface {
	PublishTrade(trade book.Trade)
}

// OrderRecorder is an optional extension a TradeSink may implement to also
// observe order lifecycle events (used by the journal).
type OrderRecorder interface {
	RecordOrderAccepted(o book.Order)
	RecordOrderCancelled(symbol string, orderID uuid.UUID, clientID string, residual int64)
}

// SubmitRequest carries one order instruction into the engine. Price and
// quantity are already in minor units; boundary parsing belongs to the
// transport.
type SubmitRequest struct {
	Symbol   string
	Side     book.Side
	Type     book.OrderType
	Price    int64
	Quantity int64
	ClientID string
}

type Engine struct {
	logger *zap.Logger
	sinks  []TradeSink

	mu    sync.RWMutex
	books map[string]*book.OrderBook

	// routes maps a resting order's ID to its symbol so CancelOrder can
	// find the owning book without a symbol in the request. The book's
	// registry stays authoritative: a stale route only yields NotFound.
	routes sync.Map // uuid.UUID -> string
}

func New(logger *zap.Logger, sinks ...TradeSink) *Engine {
	return &Engine{
		logger: logger,
		sinks:  sinks,
		books:  make(map[string]*book.OrderBook),
	}
}

// SubmitOrder admits one order: it assigns the identifier, runs the
// submit-and-match operation on the owning book, and reports the result.
// Trades are delivered to sinks after the book lock is released.
func (e *Engine) SubmitOrder(req SubmitRequest) (*book.SubmitResult, error) {
	ob := e.bookFor(req.Symbol)

	o := &book.Order{
		ID:       uuid.New(),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Type:     req.Type,
		Price:    req.Price,
		Quantity: req.Quantity,
		ClientID: req.ClientID,
	}

	start := time.Now()
	res, err := ob.Submit(o)
	metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	metrics.OrdersSubmitted.WithLabelValues(string(req.Side), string(res.Status)).Inc()

	if err != nil {
		e.logger.Debug("order rejected",
			zap.String("symbol", req.Symbol),
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		return res, err
	}

	if res.Status == book.StatusResting || res.Status == book.StatusPartiallyFilledResting {
		e.routes.Store(o.ID, req.Symbol)
		// The book lock is already released, so a concurrent crossing
		// submit may have filled this order before the route was stored,
		// with its cleanup finding no route to delete. Re-check and drop
		// the route if the order is already gone.
		if !ob.HasOrder(o.ID) {
			e.routes.Delete(o.ID)
		}
		// Rebuild the rested state from the result rather than reading the
		// live order, which other submits may already be filling.
		resting := book.Order{
			ID:        o.ID,
			Symbol:    o.Symbol,
			Side:      o.Side,
			Type:      o.Type,
			Price:     o.Price,
			Quantity:  o.Quantity,
			Remaining: o.Quantity,
			ClientID:  o.ClientID,
			Seq:       o.Seq,
			Status:    res.Status,
			CreatedAt: o.CreatedAt,
		}
		for _, t := range res.Trades {
			resting.Remaining -= t.Quantity
		}
		for _, sink := range e.sinks {
			if rec, ok := sink.(OrderRecorder); ok {
				rec.RecordOrderAccepted(resting)
			}
		}
	}
	for _, t := range res.Trades {
		metrics.TradesExecuted.Inc()
		metrics.TradeQuantity.Add(float64(t.Quantity))
		// Fully filled resting counterparties no longer need a route.
		if t.RestingOrderID != o.ID {
			if !ob.HasOrder(t.RestingOrderID) {
				e.routes.Delete(t.RestingOrderID)
			}
		}
		for _, sink := range e.sinks {
			sink.PublishTrade(t)
		}
	}
	metrics.RestingOrders.WithLabelValues(req.Symbol).Set(float64(ob.RestingOrders()))

	e.logger.Debug("order processed",
		zap.String("symbol", req.Symbol),
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(res.Status)),
		zap.Int("trades", len(res.Trades)))
	return res, nil
}

// CancelOrder removes a resting order on behalf of its owner and returns
// the residual quantity that was cancelled.
func (e *Engine) CancelOrder(orderID uuid.UUID, clientID string) (int64, error) {
	v, ok := e.routes.Load(orderID)
	if !ok {
		metrics.OrdersCancelled.WithLabelValues("not_found").Inc()
		return 0, fmt.Errorf("order %s: %w", orderID, book.ErrNotFound)
	}
	symbol := v.(string)

	ob := e.lookupBook(symbol)
	if ob == nil {
		metrics.OrdersCancelled.WithLabelValues("not_found").Inc()
		return 0, fmt.Errorf("order %s: %w", orderID, book.ErrNotFound)
	}

	residual, err := ob.Cancel(orderID, clientID)
	if err != nil {
		outcome := "not_found"
		if errors.Is(err, book.ErrUnauthorized) {
			outcome = "unauthorized"
		}
		metrics.OrdersCancelled.WithLabelValues(outcome).Inc()
		return 0, err
	}

	e.routes.Delete(orderID)
	for _, sink := range e.sinks {
		if rec, ok := sink.(OrderRecorder); ok {
			rec.RecordOrderCancelled(symbol, orderID, clientID, residual)
		}
	}
	metrics.OrdersCancelled.WithLabelValues("cancelled").Inc()
	metrics.RestingOrders.WithLabelValues(symbol).Set(float64(ob.RestingOrders()))
	e.logger.Debug("order cancelled",
		zap.String("symbol", symbol),
		zap.String("order_id", orderID.String()),
		zap.Int64("residual", residual))
	return residual, nil
}

// GetOrderBook returns an aggregated depth view for a symbol. Unknown
// symbols yield an empty snapshot without creating a book.
func (e *Engine) GetOrderBook(symbol string, depth int) *book.Snapshot {
	ob := e.lookupBook(symbol)
	if ob == nil {
		return &book.Snapshot{Symbol: symbol, Bids: []book.PriceLevelView{}, Asks: []book.PriceLevelView{}}
	}
	return ob.Snapshot(depth)
}

// Symbols returns the symbols with live books, for introspection.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	return out
}

func (e *Engine) bookFor(symbol string) *book.OrderBook {
	e.mu.RLock()
	ob, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return ob
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ob, ok = e.books[symbol]; ok {
		return ob
	}
	ob = book.NewOrderBook(symbol)
	e.books[symbol] = ob
	e.logger.Info("order book created", zap.String("symbol", symbol))
	return ob
}

func (e *Engine) lookupBook(symbol string) *book.OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.books[symbol]
}
