package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersSubmitted counts submitted orders by side and final status.
var OrdersSubmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "matching_orders_submitted_total",
		Help: "Total number of orders submitted to the engine",
	},
	[]string{"side", "status"},
)

// OrdersCancelled counts cancel requests by outcome.
var OrdersCancelled = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "matching_orders_cancelled_total",
		Help: "Total number of cancel requests by outcome",
	},
	[]string{"outcome"},
)

// TradesExecuted counts executions produced by the matcher.
var TradesExecuted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "matching_trades_executed_total",
		Help: "Total number of trades executed",
	},
)

// TradeQuantity accumulates matched quantity in minor units.
var TradeQuantity = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "matching_trade_quantity_total",
		Help: "Total matched quantity in minor units",
	},
)

// SubmitLatency records the latency of the combined submit-and-match
// operation, measured around the book call only.
var SubmitLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "matching_submit_latency_seconds",
		Help:    "Latency in seconds of a submit-and-match operation",
		Buckets: prometheus.ExponentialBuckets(1e-6, 2, 20),
	},
)

// RestingOrders tracks the number of orders resting per symbol.
var RestingOrders = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "matching_resting_orders",
		Help: "Number of orders currently resting on the book",
	},
	[]string{"symbol"},
)

func init() {
	prometheus.MustRegister(
		OrdersSubmitted,
		OrdersCancelled,
		TradesExecuted,
		TradeQuantity,
		SubmitLatency,
		RestingOrders,
	)
}
