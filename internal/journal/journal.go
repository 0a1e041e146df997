// Package journal writes an append-only JSONL record of accepted orders
// and executed trades, and can replay event scripts through the engine.
// The journal is a collaborator of the matching core, not part of it: the
// engine stays correct with journalling disabled.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

const (
	EventTypeOrderAccepted  = "ORDER_ACCEPTED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypeTradeExecuted  = "TRADE_EXECUTED"
)

// Event is one journal line.
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	Symbol    string          `json:"symbol,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Journal appends events to a single JSONL file. Writes happen under the
// journal's own mutex, never under a book lock.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	log    *zap.Logger
}

// Open creates or opens a journal file for appending.
func Open(log *zap.Logger, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	return &Journal{
		path:   path,
		file:   f,
		writer: bufio.NewWriter(f),
		log:    log,
	}, nil
}

// PublishTrade records an execution. Implements engine.TradeSink.
func (j *Journal) PublishTrade(t book.Trade) {
	j.append(EventTypeTradeExecuted, t.Symbol, t)
}

// RecordOrderAccepted records an order that entered the book. Implements
// engine.OrderRecorder.
func (j *Journal) RecordOrderAccepted(o book.Order) {
	j.append(EventTypeOrderAccepted, o.Symbol, o)
}

// RecordOrderCancelled records a successful cancellation.
func (j *Journal) RecordOrderCancelled(symbol string, orderID uuid.UUID, clientID string, residual int64) {
	j.append(EventTypeOrderCancelled, symbol, CancelRecord{
		Symbol:   symbol,
		OrderID:  orderID.String(),
		ClientID: clientID,
		Residual: residual,
	})
}

// CancelRecord is the payload journalled for a cancellation.
type CancelRecord struct {
	Symbol   string `json:"symbol"`
	OrderID  string `json:"order_id"`
	ClientID string `json:"client_id"`
	Residual int64  `json:"residual"`
}

func (j *Journal) append(eventType, symbol string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		j.log.Error("journal marshal failed", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	ev := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Symbol:    symbol,
		Data:      raw,
	}
	line, err := json.Marshal(ev)
	if err != nil {
		j.log.Error("journal marshal failed", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.writer.Write(append(line, '\n')); err != nil {
		j.log.Error("journal write failed", zap.Error(err))
		return
	}
	if err := j.writer.Flush(); err != nil {
		j.log.Error("journal flush failed", zap.Error(err))
	}
}

// ReadEvents scans a journal file and passes each event to the handler.
// Corrupted lines are skipped and counted, matching append-only recovery
// semantics: a torn final write must not poison the rest of the log.
func ReadEvents(path string, handler func(Event) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open journal for read: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		count++
		if err := handler(ev); err != nil {
			return count, err
		}
	}
	return count, scanner.Err()
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}
