package alert

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/carewatch/internal/models"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type subscriber struct {
	email string
	conn  *websocket.Conn
	send  chan []byte
}

// Hub pushes alert events to each user's open websocket connections.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger,
		subs:     make(map[string]map[*subscriber]struct{}),
	}
}

// Serve upgrades the request and streams alerts for email until the
// client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, email string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	s := &subscriber{email: email, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(s)
	h.logger.Debug("alert subscriber connected", "user", email)

	go h.writeLoop(s)

	// Reads only serve to detect close and keep pongs flowing.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(s)
	h.logger.Debug("alert subscriber disconnected", "user", email)
	return nil
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.email]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[s.email] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.email]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.email)
	}
	close(s.send)
}

// Subscribers returns the number of open connections for email.
func (h *Hub) Subscribers(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[email])
}

// Publish sends ev to every connection of email. Slow connections that
// have a full buffer miss the event.
func (h *Hub) Publish(email string, ev models.AlertEvent) int {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode alert event", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.subs[email] {
		select {
		case s.send <- msg:
			delivered++
		default:
			h.logger.Warn("alert subscriber too slow, event dropped", "user", email)
		}
	}
	return delivered
}

// Notify implements Sink.
func (h *Hub) Notify(_ context.Context, a *models.Alert) error {
	h.Publish(a.UserEmail, a.Event())
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for email, set := range h.subs {
		for s := range set {
			close(s.send)
		}
		delete(h.subs, email)
	}
}
