package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event names pushed to subscribed clients. Every event is also observable
// through polling; the hub only shortens the latency.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantKicked = "participant_kicked"
	EventAnswerReceived    = "answer_received"
	EventQuestion          = "question"
	EventResults           = "results"
	EventRanking           = "ranking"
	EventFinished          = "finished"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans session events out to websocket subscribers, keyed by session
// code.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[code] == nil {
		h.sessions[code] = make(map[*websocket.Conn]bool)
	}
	h.sessions[code][conn] = true
	log.Debug().Str("code", code).Int("total", len(h.sessions[code])).Msg("ws client connected")
}

func (h *Hub) RemoveConnection(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.sessions[code]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.sessions, code)
		}
		log.Debug().Str("code", code).Msg("ws client disconnected")
	}
}

func (h *Hub) Broadcast(code string, message Message) {
	// Write lock: dead connections are pruned during the fan-out.
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.sessions[code]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("ws marshal error")
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Str("code", code).Msg("ws write error, dropping client")
			conn.Close()
			delete(conns, conn)
		}
	}
}
