package handlers

import (
	"net/http"

	"quizlive-backend/internal/models"
	"quizlive-backend/internal/services"
	"quizlive-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService     *services.SessionService
	participantService *services.ParticipantService
	answerService      *services.AnswerService
	autoAdvance        *services.AutoAdvance
	hub                *ws.Hub
}

func NewSessionHandler(sessionService *services.SessionService, participantService *services.ParticipantService, answerService *services.AnswerService, autoAdvance *services.AutoAdvance, hub *ws.Hub) *SessionHandler {
	return &SessionHandler{
		sessionService:     sessionService,
		participantService: participantService,
		answerService:      answerService,
		autoAdvance:        autoAdvance,
		hub:                hub,
	}
}

type CreateSessionRequest struct {
	QuizID uint `json:"quiz_id" binding:"required" example:"1"`
}

type StartQuestionRequest struct {
	Index int `json:"index" example:"0"`
}

type KickRequest struct {
	UserID string `json:"user_id" binding:"required" example:"guest-7f3a"`
}

// CreateSession godoc
// @Summary      Create a quiz session
// @Description  Open a new waiting session and generate a join code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} services.SessionState
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	hostID := c.GetUint("host_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.sessionService.CreateSession(req.QuizID, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.sessionService.GetSessionByCode(session.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// ListSessions godoc
// @Summary      List host sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.SessionSummary
// @Router       /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	hostID := c.GetUint("host_id")

	sessions, err := h.sessionService.ListSessions(hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSession godoc
// @Summary      Get session state
// @Description  Poll the session state by code. Open to anyone with the code.
// @Tags         sessions
// @Produce      json
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}

	// The host's poll doubles as an auto-advance tick, so a kick or a
	// missed submission race still converges on the threshold.
	if hostID := c.GetUint("host_id"); hostID != 0 && hostID == state.HostID {
		h.autoAdvance.Evaluate(code)
	}

	c.JSON(http.StatusOK, state)
}

// Start godoc
// @Summary      Start the session
// @Description  Move the session from waiting to active. The first question starts separately.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.Start(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventQuestion, Data: state})
	c.JSON(http.StatusOK, state)
}

// StartQuestion godoc
// @Summary      Start a question
// @Description  Make the question at the given index live. Defaults to index 0.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Param        request body StartQuestionRequest false "Question index"
// @Success      200 {object} services.SessionState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/question [post]
func (h *SessionHandler) StartQuestion(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	var req StartQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	state, err := h.sessionService.StartQuestion(code, hostID, req.Index)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventQuestion, Data: state})
	c.JSON(http.StatusOK, state)
}

// FinishQuestion godoc
// @Summary      Finish the live question
// @Description  Freeze the distribution snapshot and show the bar chart. Also the target of client countdown expiry.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/finish [post]
func (h *SessionHandler) FinishQuestion(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.FinishQuestion(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventResults, Data: state})
	c.JSON(http.StatusOK, state)
}

// ShowRanking godoc
// @Summary      Switch results to the ranking view
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/ranking [post]
func (h *SessionHandler) ShowRanking(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.ShowRanking(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventRanking, Data: state})
	c.JSON(http.StatusOK, state)
}

// BackToChart godoc
// @Summary      Switch results back to the bar chart
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/chart [post]
func (h *SessionHandler) BackToChart(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.BackToChart(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventResults, Data: state})
	c.JSON(http.StatusOK, state)
}

// NextQuestion godoc
// @Summary      Advance to the next question
// @Description  Move to the next question, or finish the session after the last one.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/next [post]
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.NextQuestion(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	msgType := ws.EventQuestion
	if state.Status == models.SessionStatusFinished {
		msgType = ws.EventFinished
		h.autoAdvance.Forget(code)
	}
	h.hub.Broadcast(code, ws.Message{Type: msgType, Data: state})
	c.JSON(http.StatusOK, state)
}

// End godoc
// @Summary      End the session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/end [post]
func (h *SessionHandler) End(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.End(code, hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.autoAdvance.Forget(code)
	h.hub.Broadcast(code, ws.Message{Type: ws.EventFinished, Data: state})
	c.JSON(http.StatusOK, state)
}

// DeleteSession godoc
// @Summary      Delete the session
// @Description  Hard delete; cascades to participants, answers and results.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	if err := h.sessionService.Delete(code, hostID); err != nil {
		respondError(c, err)
		return
	}

	h.autoAdvance.Forget(code)
	c.JSON(http.StatusOK, MessageResponse{Message: "session deleted"})
}

// Kick godoc
// @Summary      Remove a participant
// @Description  Delete the participant row. The participant discovers the removal on their next poll.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Param        request body KickRequest true "Participant to remove"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/kick [post]
func (h *SessionHandler) Kick(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	var req KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.participantService.Kick(code, hostID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventParticipantKicked, Data: gin.H{"user_id": req.UserID}})

	// One fewer participant may complete the everyone-answered set.
	h.autoAdvance.Evaluate(code)

	c.JSON(http.StatusOK, MessageResponse{Message: "participant removed"})
}

// Distribution godoc
// @Summary      Live answer tally for the current question
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.Distribution
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/distribution [get]
func (h *SessionHandler) Distribution(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}
	if state.HostID != hostID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not the session host"})
		return
	}
	if state.CurrentQuestionID == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no question in progress"})
		return
	}

	dist, err := h.answerService.Distribution(state.ID, *state.CurrentQuestionID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.autoAdvance.Evaluate(code)

	c.JSON(http.StatusOK, dist)
}

// Answers godoc
// @Summary      Answers for the current question with participant names
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {array} services.AnswerWithParticipant
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/answers [get]
func (h *SessionHandler) Answers(c *gin.Context) {
	hostID := c.GetUint("host_id")
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}
	if state.HostID != hostID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not the session host"})
		return
	}
	if state.CurrentQuestionID == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no question in progress"})
		return
	}

	answers, err := h.answerService.AnswersWithParticipant(state.ID, *state.CurrentQuestionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answers)
}
