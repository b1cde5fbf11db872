package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventHub fans out settled-hand and deal events to every WebSocket
// client currently watching a given session. It holds no game state -
// handleDeal/handleAction push their already-computed DTO after the
// REST response is written, so a slow or absent subscriber never
// delays the synchronous orchestrator call.
type eventHub struct {
	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[string]map[*websocket.Conn]struct{})}
}

func (h *eventHub) subscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[sessionID][conn] = struct{}{}
}

func (h *eventHub) unsubscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subs[sessionID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

func (h *eventHub) broadcast(sessionID, eventType string, payload interface{}) {
	h.mu.RLock()
	conns := h.subs[sessionID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}
	msg := map[string]interface{}{"type": eventType, "data": payload}
	for conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("session %s: websocket write failed: %v", sessionID, err)
		}
	}
}

// close drops every subscriber of a session that has ended.
func (h *eventHub) close(sessionID string) {
	h.mu.Lock()
	conns := h.subs[sessionID]
	delete(h.subs, sessionID)
	h.mu.Unlock()
	for conn := range conns {
		conn.Close()
	}
}

// handleStream upgrades to a WebSocket and streams deal/action events
// for one session until the client disconnects or ends the session.
// It is read-only: any inbound message is discarded, since the REST
// endpoints are the sole write path into a session.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")
	if _, engErr := s.manager.SessionStatus(id); engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for session %s: %v", id, err)
		return
	}
	defer conn.Close()

	s.hub.subscribe(id, conn)
	defer s.hub.unsubscribe(id, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session %s: websocket error: %v", id, err)
			}
			return
		}
	}
}
