package main

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wsEvent is one state-change notification pushed to subscribed clients.
type wsEvent struct {
	Type   string `json:"type"`
	ArmyID string `json:"armyId"`
	Data   any    `json:"data,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on the shared conn
}

func (c *wsClient) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// hub fans state events out to every client watching an army.
type hub struct {
	log   *zap.SugaredLogger
	mu    sync.Mutex
	rooms map[string]map[*wsClient]bool // armyID -> clients
}

func newHub(log *zap.SugaredLogger) *hub {
	return &hub{log: log, rooms: map[string]map[*wsClient]bool{}}
}

func (h *hub) register(armyID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[armyID] == nil {
		h.rooms[armyID] = map[*wsClient]bool{}
	}
	h.rooms[armyID][c] = true
}

func (h *hub) unregister(armyID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[armyID], c)
	if len(h.rooms[armyID]) == 0 {
		delete(h.rooms, armyID)
	}
}

func (h *hub) broadcast(armyID string, ev wsEvent) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.rooms[armyID]))
	for c := range h.rooms[armyID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(ev); err != nil {
			h.log.Debugw("ws send failed", "client", c.id, "err", err)
		}
	}
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	armyID := mux.Vars(r)["id"]
	if s.camp.ArmyByID(armyID) == nil {
		http.Error(w, "unknown army", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}
	c := &wsClient{id: uuid.NewString(), conn: conn}
	s.hub.register(armyID, c)
	s.log.Infow("ws client connected", "army", armyID, "client", c.id)

	defer func() {
		s.hub.unregister(armyID, c)
		_ = conn.Close()
		s.log.Infow("ws client disconnected", "army", armyID, "client", c.id)
	}()
	// read loop only drains control frames; all mutations go through the
	// HTTP endpoints and fan back out over the socket
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
