package realtime

import (
	"log"
	"net/http"
	"sync"

	"trade-backend/internal/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans stock updates out to connected dashboard clients. Broadcasts are
// best effort: a full channel drops the event rather than blocking the
// issuing request.
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan models.StockUpdateEvent
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan models.StockUpdateEvent, 64),
	}
}

// Run pumps broadcast events to every connected client. Call in a goroutine.
func (h *Hub) Run() {
	for ev := range h.broadcast {
		h.clientsMux.Lock()
		for client := range h.clients {
			if err := client.WriteJSON(ev); err != nil {
				client.Close()
				delete(h.clients, client)
			}
		}
		h.clientsMux.Unlock()
	}
}

// BroadcastStockUpdate queues a stock snapshot for delivery. Never blocks.
func (h *Hub) BroadcastStockUpdate(ev models.StockUpdateEvent) {
	ev.Event = models.StockUpdateEventName
	select {
	case h.broadcast <- ev:
	default:
		log.Println("[Realtime] Broadcast queue full, dropping stock update for", ev.ProductName)
	}
}

// ClientCount reports connected websocket clients, for the stats endpoint.
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and parks it in the client set.
// The read loop exists only to detect disconnects; inbound messages are
// ignored.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Realtime] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			break
		}
	}
}
