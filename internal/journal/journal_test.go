package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "events.jsonl")
	j, err := Open(zap.NewNop(), path)
	require.NoError(t, err)

	orderID := uuid.New()
	j.RecordOrderAccepted(book.Order{
		ID:        orderID,
		Symbol:    "AAPL",
		Side:      book.SideBuy,
		Type:      book.TypeLimit,
		Price:     15000,
		Quantity:  100,
		Remaining: 100,
		ClientID:  "client1",
		Status:    book.StatusResting,
		CreatedAt: time.Now(),
	})
	j.PublishTrade(book.Trade{
		ID:       uuid.New(),
		Symbol:   "AAPL",
		Price:    15000,
		Quantity: 50,
	})
	j.RecordOrderCancelled("AAPL", orderID, "client1", 50)
	require.NoError(t, j.Close())

	var types []string
	var cancel CancelRecord
	n, err := ReadEvents(path, func(ev Event) error {
		types = append(types, ev.EventType)
		assert.Equal(t, "AAPL", ev.Symbol)
		if ev.EventType == EventTypeOrderCancelled {
			require.NoError(t, json.Unmarshal(ev.Data, &cancel))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{EventTypeOrderAccepted, EventTypeTradeExecuted, EventTypeOrderCancelled}, types)
	assert.Equal(t, orderID.String(), cancel.OrderID)
	assert.Equal(t, int64(50), cancel.Residual)
}

func TestJournalAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	for i := 0; i < 2; i++ {
		j, err := Open(zap.NewNop(), path)
		require.NoError(t, err)
		j.PublishTrade(book.Trade{ID: uuid.New(), Symbol: "AAPL", Price: 15000, Quantity: 1})
		require.NoError(t, j.Close())
	}

	n, err := ReadEvents(path, func(Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReadEventsSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j, err := Open(zap.NewNop(), path)
	require.NoError(t, err)
	j.PublishTrade(book.Trade{ID: uuid.New(), Symbol: "AAPL", Price: 15000, Quantity: 1})
	require.NoError(t, j.Close())

	// Simulate a torn final write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"timestamp":"2026-01-`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	n, err := ReadEvents(path, func(Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReadEventsMissingFile(t *testing.T) {
	n, err := ReadEvents(filepath.Join(t.TempDir(), "nope.jsonl"), func(Event) error { return nil })
	require.NoError(t, err)
	assert.Zero(t, n)
}
