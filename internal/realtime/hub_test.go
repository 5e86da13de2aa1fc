package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trade-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpHandlerFunc(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.HandleWebSocket)
}

func TestHubBroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(httpHandlerFunc(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the server side to register the client.
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastStockUpdate(models.StockUpdateEvent{
		ProductName:      "Amber Jar 500ml",
		AvailableCartons: 4,
		AvailablePieces:  2,
		UnitsPerCarton:   12,
		TotalAvailable:   50,
		LastUpdated:      time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.StockUpdateEvent
	require.NoError(t, conn.ReadJSON(&got))

	// The hub stamps the event name so clients can tell snapshots apart
	// from anything else the socket may carry later.
	assert.Equal(t, models.StockUpdateEventName, got.Event)
	assert.Equal(t, "Amber Jar 500ml", got.ProductName)
	assert.Equal(t, 4, got.AvailableCartons)
	assert.Equal(t, 50, got.TotalAvailable)
}

func TestHubBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.BroadcastStockUpdate(models.StockUpdateEvent{ProductName: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no clients connected")
	}
}

func TestHubRemovesClientOnDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(httpHandlerFunc(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
