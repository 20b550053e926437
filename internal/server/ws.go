package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkazm04/goat/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// hub fans notifications out to connected websocket clients. Slow or dead
// clients are dropped rather than blocking the operation pipeline.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &hub{
		conns: make(map[*websocket.Conn]struct{}),
		log:   log,
	}
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.conns[ws] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("notification client connected", zap.String("remote", ws.RemoteAddr().String()))

	// Drain reads so close frames and pings are processed; clients only listen.
	go func() {
		defer h.drop(ws)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *hub) drop(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, ws)
	h.mu.Unlock()
	ws.Close()
}

// Broadcast sends a notification to every connected client. Writes are
// serialized under the hub lock; the websocket library forbids concurrent
// writers on one connection.
func (h *hub) Broadcast(n domain.Notification) {
	h.mu.Lock()
	var dead []*websocket.Conn
	for ws := range h.conns {
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(n); err != nil {
			h.log.Debug("notification client dropped", zap.Error(err))
			dead = append(dead, ws)
		}
	}
	for _, ws := range dead {
		delete(h.conns, ws)
		ws.Close()
	}
	h.mu.Unlock()
}
