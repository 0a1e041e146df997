// Package server exposes the engine's three operations over HTTP: submit,
// cancel and depth query, plus health, metrics and the trade feed. The
// transport owns all decimal/tick conversion; the engine only ever sees
// minor units.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
	"github.com/tradeflow/matching-engine/internal/config"
	"github.com/tradeflow/matching-engine/internal/engine"
	"github.com/tradeflow/matching-engine/internal/feed"
)

type Server struct {
	router       *gin.Engine
	logger       *zap.Logger
	engine       *engine.Engine
	hub          *feed.Hub
	http         *http.Server
	priceScale   int32
	defaultDepth int
}

func New(logger *zap.Logger, eng *engine.Engine, hub *feed.Hub, cfg *config.Config) *Server {
	s := &Server{
		logger:       logger,
		engine:       eng,
		hub:          hub,
		priceScale:   cfg.Market.PriceScale,
		defaultDepth: cfg.Market.DefaultDepth,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if hub != nil {
		router.GET("/ws/trades", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request)
		})
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", s.handleSubmitOrder)
		v1.DELETE("/orders/:id", s.handleCancelOrder)
		v1.GET("/orderbook/:symbol", s.handleGetOrderBook)
	}

	s.router = router
	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type submitOrderRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Side     string `json:"side" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
}

type tradeResponse struct {
	TradeID         string `json:"trade_id"`
	Symbol          string `json:"symbol"`
	Price           string `json:"price"`
	Quantity        int64  `json:"quantity"`
	RestingOrderID  string `json:"resting_order_id"`
	IncomingOrderID string `json:"incoming_order_id"`
	ExecutedAt      string `json:"executed_at"`
}

type submitOrderResponse struct {
	OrderID  string          `json:"order_id"`
	Status   string          `json:"status"`
	Trades   []tradeResponse `json:"trades"`
	Unfilled int64           `json:"unfilled,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

func (s *Server) handleSubmitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderType := book.OrderType(req.Type)
	var price int64
	if orderType == book.TypeLimit {
		if req.Price == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price is required for limit orders"})
			return
		}
		var err error
		price, err = toTicks(req.Price, s.priceScale)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else if req.Price != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "market orders must not carry a price"})
		return
	}

	res, err := s.engine.SubmitOrder(engine.SubmitRequest{
		Symbol:   req.Symbol,
		Side:     book.Side(req.Side),
		Type:     orderType,
		Price:    price,
		Quantity: req.Quantity,
		ClientID: req.ClientID,
	})

	resp := submitOrderResponse{
		OrderID: res.OrderID.String(),
		Status:  string(res.Status),
		Trades:  s.renderTrades(res.Trades),
	}
	if res.Unfilled > 0 {
		resp.Unfilled = res.Unfilled
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, book.ErrInsufficientLiquidity):
		// A business rejection, not a transport failure.
		resp.Reason = "insufficient liquidity"
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, book.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type cancelOrderResponse struct {
	Status   string `json:"status"`
	OrderID  string `json:"order_id"`
	Residual int64  `json:"residual,omitempty"`
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}

	residual, err := s.engine.CancelOrder(orderID, clientID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, cancelOrderResponse{
			Status:   "CANCELLED",
			OrderID:  orderID.String(),
			Residual: residual,
		})
	case errors.Is(err, book.ErrUnauthorized):
		c.JSON(http.StatusForbidden, cancelOrderResponse{Status: "UNAUTHORIZED", OrderID: orderID.String()})
	case errors.Is(err, book.ErrNotFound):
		c.JSON(http.StatusNotFound, cancelOrderResponse{Status: "NOT_FOUND", OrderID: orderID.String()})
	default:
		s.logger.Error("cancel failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type levelResponse struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type orderBookResponse struct {
	Symbol string          `json:"symbol"`
	Bids   []levelResponse `json:"bids"`
	Asks   []levelResponse `json:"asks"`
}

func (s *Server) handleGetOrderBook(c *gin.Context) {
	symbol := c.Param("symbol")
	depth := s.defaultDepth
	if raw := c.Query("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid depth"})
			return
		}
		depth = n
	}

	snap := s.engine.GetOrderBook(symbol, depth)
	resp := orderBookResponse{
		Symbol: snap.Symbol,
		Bids:   make([]levelResponse, 0, len(snap.Bids)),
		Asks:   make([]levelResponse, 0, len(snap.Asks)),
	}
	for _, lvl := range snap.Bids {
		resp.Bids = append(resp.Bids, levelResponse{Price: fromTicks(lvl.Price, s.priceScale), Quantity: lvl.Quantity})
	}
	for _, lvl := range snap.Asks {
		resp.Asks = append(resp.Asks, levelResponse{Price: fromTicks(lvl.Price, s.priceScale), Quantity: lvl.Quantity})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) renderTrades(trades []book.Trade) []tradeResponse {
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeResponse{
			TradeID:         t.ID.String(),
			Symbol:          t.Symbol,
			Price:           fromTicks(t.Price, s.priceScale),
			Quantity:        t.Quantity,
			RestingOrderID:  t.RestingOrderID.String(),
			IncomingOrderID: t.IncomingOrderID.String(),
			ExecutedAt:      t.ExecutedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
