package handlers

import (
	"net/http"

	"quizlive-backend/internal/services"
	"quizlive-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	sessionService *services.SessionService
	hub            *ws.Hub
}

func NewWSHandler(sessionService *services.SessionService, hub *ws.Hub) *WSHandler {
	return &WSHandler{sessionService: sessionService, hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      Subscribe to session events
// @Description  Push channel mirroring the polling contract; clients that skip it lose nothing but latency.
// @Tags         websocket
// @Param        code path string true "Session code"
// @Router       /ws/sessions/{code} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	code := c.Param("code")
	if _, err := h.sessionService.GetSessionByCode(code); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	h.hub.AddConnection(code, conn)
	defer h.hub.RemoveConnection(code, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
