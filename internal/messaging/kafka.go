// Package messaging publishes executed trades to Kafka for downstream
// consumers (settlement, analytics, persistence). The engine does not
// depend on delivery: publication is asynchronous and lossy under
// sustained backpressure, with drops surfaced in the log.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

// Config mirrors the kafka section of the engine configuration.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	QueueSize    int
}

// writerAPI is the slice of kafka.Writer the publisher uses; tests swap in
// a fake.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type TradePublisher struct {
	logger       *zap.Logger
	writer       writerAPI
	queue        chan book.Trade
	done         chan struct{}
	wg           sync.WaitGroup
	writeTimeout time.Duration
}

// NewTradePublisher builds a publisher backed by a kafka.Writer. Messages
// are keyed by symbol so per-symbol trade order survives partitioning.
func NewTradePublisher(logger *zap.Logger, cfg Config) *TradePublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return newTradePublisher(logger, writer, cfg)
}

func newTradePublisher(logger *zap.Logger, writer writerAPI, cfg Config) *TradePublisher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 4096
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}
	p := &TradePublisher{
		logger:       logger,
		writer:       writer,
		queue:        make(chan book.Trade, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// PublishTrade queues a trade for delivery. Implements engine.TradeSink;
// never blocks the submit path.
func (p *TradePublisher) PublishTrade(t book.Trade) {
	select {
	case <-p.done:
	case p.queue <- t:
	default:
		p.logger.Warn("kafka trade queue full, dropping trade",
			zap.String("symbol", t.Symbol),
			zap.String("trade_id", t.ID.String()))
	}
}

func (p *TradePublisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.queue:
			p.write(t)
		case <-p.done:
			// Drain whatever is already queued before shutting down.
			for {
				select {
				case t := <-p.queue:
					p.write(t)
				default:
					return
				}
			}
		}
	}
}

func (p *TradePublisher) write(t book.Trade) {
	payload, err := json.Marshal(t)
	if err != nil {
		p.logger.Error("kafka trade marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.Symbol),
		Value: payload,
		Time:  t.ExecutedAt,
	})
	if err != nil {
		p.logger.Error("kafka publish failed",
			zap.String("symbol", t.Symbol),
			zap.String("trade_id", t.ID.String()),
			zap.Error(err))
	}
}

// Close stops the delivery loop, drains the queue and closes the writer.
func (p *TradePublisher) Close() error {
	close(p.done)
	p.wg.Wait()
	return p.writer.Close()
}
