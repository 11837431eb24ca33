package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/platinummonkey/petstore/pkg/observability"
)

// Change event names
const (
	PetAdded   = "PET_ADDED"
	PetUpdated = "PET_UPDATED"
	PetRemoved = "PET_REMOVED"
)

const (
	defaultBufferSize = 16
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
)

// Event is the frame written to every subscriber
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Publisher is implemented by anything that can fan out change events
type Publisher interface {
	Publish(name string, data interface{})
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(string, interface{}) {}

// Hub broadcasts change events to websocket subscribers.
// Subscribers are receive-only; anything they send is read and discarded.
type Hub struct {
	upgrader    websocket.Upgrader
	logger      *observability.Logger
	metrics     *observability.Metrics
	bufferSize  int
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Option configures a Hub
type Option func(*Hub)

// WithMetrics tracks the subscriber count in the given metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithAllowedOrigins restricts which origins may open the feed. "*" allows any.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
}

// WithBufferSize sets how many events may queue for one subscriber before it is dropped
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// NewHub creates an empty hub
func NewHub(logger *observability.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger,
		bufferSize:  defaultBufferSize,
		subscribers: make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish sends an event to every subscriber. A subscriber whose queue is
// full is disconnected rather than blocking the publisher.
func (h *Hub) Publish(name string, data interface{}) {
	payload, err := json.Marshal(Event{Name: name, Data: data})
	if err != nil {
		h.logger.WithError(err).WithField("event", name).Error("Failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			h.logger.WithField("event", name).Warn("Dropping slow event subscriber")
			h.removeLocked(sub)
		}
	}
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request to a websocket and registers the subscriber
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	if h.metrics != nil {
		h.metrics.EventSubscribersTotal.Inc()
	}
	h.mu.Unlock()

	h.logger.WithField("remote_addr", r.RemoteAddr).Debug("Event subscriber connected")

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Close disconnects every subscriber and refuses new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subscribers {
		h.removeLocked(sub)
	}
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	sub.close()
	if h.metrics != nil {
		h.metrics.EventSubscribersTotal.Dec()
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer observability.RecoverPanicWithCallback(h.logger, "events.writeLoop", func() { h.remove(sub) })

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

func (h *Hub) readLoop(sub *subscriber) {
	defer observability.RecoverPanic(h.logger, "events.readLoop")
	defer h.remove(sub)

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Debug("Event subscriber closed unexpectedly")
			}
			return
		}
	}
}
