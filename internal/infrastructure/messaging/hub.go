package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
	broadcastQueue = 64
)

// Client represents a single connected panel.
type Client struct {
	conn   *websocket.Conn
	partID int64
	send   chan []byte
}

// Hub manages connected clients and fans messages out to them. A client
// subscribed to part 0 receives every message; other clients receive
// messages for their part and global messages.
type Hub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	counts     chan chan map[int64]int
	done       chan struct{}

	pingInterval time.Duration
	logger       *logging.ChanneledLogger
	onCount      func(total int)
}

// NewHub creates a hub. Run must be started before clients are served.
func NewHub(logger *logging.ChanneledLogger, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		clients:      make(map[int64]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan Message, broadcastQueue),
		counts:       make(chan chan map[int64]int),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// OnClientCount registers a callback receiving the total client count
// whenever it changes. Must be called before Run.
func (h *Hub) OnClientCount(fn func(total int)) {
	h.onCount = fn
}

func (h *Hub) reportCount() {
	if h.onCount == nil {
		return
	}
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	h.onCount(total)
}

// Run is the hub's main loop. It returns when ctx is cancelled, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			h.reportCount()
			h.logger.Realtime().Info("Websocket hub stopped")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.partID]; !ok {
				h.clients[client.partID] = make(map[*Client]bool)
			}
			h.clients[client.partID][client] = true
			h.reportCount()
			h.logger.Realtime().Debug("Websocket client registered", "partId", client.partID)

		case client := <-h.unregister:
			if clients, ok := h.clients[client.partID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.partID)
					}
				}
			}
			h.reportCount()
			h.logger.Realtime().Debug("Websocket client unregistered", "partId", client.partID)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case reply := <-h.counts:
			snapshot := make(map[int64]int, len(h.clients))
			for partID, clients := range h.clients {
				snapshot[partID] = len(clients)
			}
			reply <- snapshot
		}
	}
}

func (h *Hub) deliver(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Realtime().Error("Failed to encode message", "error", err.Error(), "type", msg.Type)
		return
	}

	targets := []int64{0}
	if msg.Part != 0 {
		targets = append(targets, msg.Part)
	} else {
		targets = targets[:0]
		for partID := range h.clients {
			targets = append(targets, partID)
		}
	}

	for _, partID := range targets {
		for client := range h.clients[partID] {
			select {
			case client.send <- payload:
			default:
				// Slow consumer; it will resync on reconnect.
				h.logger.Realtime().Warn("Dropping message for slow client", "partId", partID, "type", msg.Type)
			}
		}
	}
}

// Publish queues a message for delivery. It never blocks; messages are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		h.logger.Realtime().Warn("Broadcast queue full, dropping message", "type", msg.Type, "partId", msg.Part)
	}
}

// ClientCounts returns the number of connected clients per part.
func (h *Hub) ClientCounts(ctx context.Context) map[int64]int {
	reply := make(chan map[int64]int, 1)
	select {
	case h.counts <- reply:
		return <-reply
	case <-h.done:
	case <-ctx.Done():
	}
	return map[int64]int{}
}

// Serve attaches an upgraded connection to the hub and blocks until the
// peer disconnects or the hub stops.
func (h *Hub) Serve(conn *websocket.Conn, partID int64) {
	client := &Client{conn: conn, partID: partID, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

// readPump discards inbound frames; it exists to process control frames
// and detect disconnects.
func (h *Hub) readPump(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Realtime().Debug("Websocket read error", "error", err.Error(), "partId", client.partID)
			}
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
