package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/models"
)

const (
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 35 * time.Second // must exceed pingInterval
	maxMessageSize = 512              // clients only send pongs
	sendBufferSize = 64
)

// BroadcastPublisher pushes opportunities to every connected WebSocket
// client. Slow clients drop messages rather than stall publishing.
type BroadcastPublisher struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	closed   bool
	upgrader websocket.Upgrader
	logger   *logrus.Entry
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewBroadcastPublisher creates a broadcast publisher. An empty
// allowedOrigins accepts every origin.
func NewBroadcastPublisher(allowedOrigins []string, logger *logrus.Logger) *BroadcastPublisher {
	return &BroadcastPublisher{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
		logger: logger.WithField("component", "broadcast"),
	}
}

// ServeHTTP upgrades the request and registers the client
func (p *BroadcastPublisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, sendBufferSize)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	p.clients[client] = struct{}{}
	p.mu.Unlock()

	go p.writePump(client)
	go p.readPump(client)
}

// Publish queues the opportunity for every connected client
func (p *BroadcastPublisher) Publish(_ context.Context, opp models.Opportunity) error {
	payload, err := json.Marshal(NewMessage(opp))
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("broadcast publisher closed")
	}
	for client := range p.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
	return nil
}

// ConnectedCount returns the current number of connected clients.
func (p *BroadcastPublisher) ConnectedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// Name returns the publisher kind.
func (p *BroadcastPublisher) Name() string { return KindWebSocket }

// Close disconnects every client.
func (p *BroadcastPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for client := range p.clients {
		delete(p.clients, client)
		close(client.send)
	}
	return nil
}

func (p *BroadcastPublisher) unregister(client *wsClient) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.clients[client]; ok {
		delete(p.clients, client)
		close(client.send)
	}
}

func (p *BroadcastPublisher) writePump(client *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to process pongs and notice disconnects
func (p *BroadcastPublisher) readPump(client *wsClient) {
	defer p.unregister(client)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
