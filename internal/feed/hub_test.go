package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(zap.NewNop(), 16, 64)
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readTrade(t *testing.T, conn *websocket.Conn) book.Trade {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var trade book.Trade
	require.NoError(t, json.Unmarshal(payload, &trade))
	return trade
}

func TestHubBroadcastsTrades(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)

	sent := book.Trade{
		ID:         uuid.New(),
		Symbol:     "AAPL",
		Price:      15000,
		Quantity:   50,
		ExecutedAt: time.Now().UTC(),
	}
	// Registration races the publish; retry until the subscriber is in.
	go func() {
		for i := 0; i < 50; i++ {
			h.PublishTrade(sent)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	got := readTrade(t, conn)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, int64(15000), got.Price)
	assert.Equal(t, int64(50), got.Quantity)
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	h, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)

	sent := book.Trade{ID: uuid.New(), Symbol: "MSFT", Price: 20000, Quantity: 10}
	go func() {
		for i := 0; i < 50; i++ {
			h.PublishTrade(sent)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	assert.Equal(t, sent.ID, readTrade(t, a).ID)
	assert.Equal(t, sent.ID, readTrade(t, b).ID)
}

func TestSubscribeAfterCloseDoesNotHang(t *testing.T) {
	h := NewHub(zap.NewNop(), 16, 64)
	go h.Run()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	h.Close()

	// The upgrade may still succeed, but the hub must refuse the client
	// promptly instead of leaving the handler blocked on registration.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if resp != nil {
			resp.Body.Close()
		}
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, readErr := conn.ReadMessage()
		assert.Error(t, readErr)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription after close did not resolve")
	}
}

func TestClientDisconnectAfterCloseDoesNotHang(t *testing.T) {
	h := NewHub(zap.NewNop(), 16, 64)
	go h.Run()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)

	// Stop the hub first, then drop the connection: the reader must not
	// stay blocked handing its unregister to a loop that has exited.
	h.Close()
	conn.Close()

	// The surviving read goroutine exits by selecting on shutdown; give it
	// a moment and then verify publishing still cannot block.
	time.Sleep(50 * time.Millisecond)
	h.PublishTrade(book.Trade{ID: uuid.New(), Symbol: "AAPL"})
}

func TestPublishNeverBlocksWithoutSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop(), 4, 2)
	// No Run loop draining: the queue fills and further publishes drop.
	for i := 0; i < 10; i++ {
		h.PublishTrade(book.Trade{ID: uuid.New(), Symbol: "AAPL"})
	}
}
