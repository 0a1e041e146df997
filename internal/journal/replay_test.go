package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/engine"
)

func TestReplayEndsEmpty(t *testing.T) {
	script := `{
		"events": [
			{"type": "add", "id": 1, "is_buy": true, "qty": 100, "price": 15000},
			{"type": "add", "id": 2, "is_buy": false, "qty": 60, "price": 15000},
			{"type": "match"},
			{"type": "cancel", "id": 1}
		]
	}`
	e := engine.New(zap.NewNop())
	report, err := Run(e, strings.NewReader(script), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Orders)
	assert.Equal(t, 1, report.Cancels)
	assert.Equal(t, 1, report.Trades)
	assert.Zero(t, report.Errors)

	require.Len(t, report.Books, 1)
	assert.Equal(t, "AAPL", report.Books[0].Symbol)
	assert.Empty(t, report.Books[0].Bids)
	assert.Empty(t, report.Books[0].Asks)
}

func TestReplayMarketOrderDiscardsRemainder(t *testing.T) {
	script := `{
		"events": [
			{"type": "add", "id": 1, "symbol": "MSFT", "is_buy": true, "qty": 50, "price": 20000},
			{"type": "add", "id": 2, "symbol": "MSFT", "is_buy": false, "market": true, "qty": 200}
		]
	}`
	e := engine.New(zap.NewNop())
	report, err := Run(e, strings.NewReader(script), "AAPL")
	require.NoError(t, err)

	// The market sell fills 50 and discards the rest.
	assert.Equal(t, 2, report.Orders)
	assert.Equal(t, 1, report.Trades)
	require.Len(t, report.Books, 1)
	assert.Equal(t, "MSFT", report.Books[0].Symbol)
	assert.Empty(t, report.Books[0].Bids)
}

func TestReplayCancelUnknownIDCountsError(t *testing.T) {
	script := `{"events": [{"type": "cancel", "id": 99}]}`
	e := engine.New(zap.NewNop())
	report, err := Run(e, strings.NewReader(script), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Zero(t, report.Cancels)
}

func TestReplayUnknownEventType(t *testing.T) {
	script := `{"events": [{"type": "modify", "id": 1}]}`
	e := engine.New(zap.NewNop())
	_, err := Run(e, strings.NewReader(script), "AAPL")
	require.Error(t, err)
}
