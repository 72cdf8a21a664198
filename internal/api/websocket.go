package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 16
)

// RunMessage is pushed to subscribers after every refresh
type RunMessage struct {
	Type       string                `json:"type"`
	RunID      string                `json:"run_id"`
	FinishedAt time.Time             `json:"finished_at"`
	Evaluated  int                   `json:"evaluated"`
	Failures   int                   `json:"failures"`
	Response   []models.ValueBetView `json:"response"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans refreshed value-bet lists out to websocket subscribers. Clients
// that cannot keep up are dropped.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Entry
	mu       sync.RWMutex
	clients  map[string]*client
	last     []byte
}

// NewHub creates a websocket hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.WithField("component", "websocket"),
		clients: make(map[string]*client),
	}
}

// Publish broadcasts a finished analysis run to every subscriber
func (h *Hub) Publish(run *models.AnalysisRun) {
	msg, err := json.Marshal(RunMessage{
		Type:       "value_bets",
		RunID:      run.ID,
		FinishedAt: run.FinishedAt,
		Evaluated:  run.Evaluated,
		Failures:   len(run.Failures),
		Response:   models.Views(run.Candidates),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode analysis run")
		return
	}

	h.mu.Lock()
	h.last = msg
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.WithField("client_id", c.id).Warn("Dropping slow websocket client")
		h.unregister(c)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades GET /ws/value-bets. A new subscriber receives the latest
// run immediately if one has been published.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	cl := &client{id: uuid.New().String(), conn: conn, send: make(chan []byte, clientSendSize)}
	h.register(cl)

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	if h.last != nil {
		c.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebsocketClients(count)
	h.logger.WithField("client_id", c.id).Debug("Websocket client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebsocketClients(count)
	h.logger.WithField("client_id", c.id).Debug("Websocket client disconnected")
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// readPump discards inbound frames and detects closed connections
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).WithField("client_id", c.id).Debug("Websocket read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
