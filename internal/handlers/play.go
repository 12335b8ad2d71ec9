package handlers

import (
	"fmt"
	"net/http"
	"time"

	"quizlive-backend/internal/models"
	"quizlive-backend/internal/services"
	"quizlive-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PlayHandler struct {
	sessionService     *services.SessionService
	participantService *services.ParticipantService
	answerService      *services.AnswerService
	autoAdvance        *services.AutoAdvance
	hub                *ws.Hub
}

func NewPlayHandler(sessionService *services.SessionService, participantService *services.ParticipantService, answerService *services.AnswerService, autoAdvance *services.AutoAdvance, hub *ws.Hub) *PlayHandler {
	return &PlayHandler{
		sessionService:     sessionService,
		participantService: participantService,
		answerService:      answerService,
		autoAdvance:        autoAdvance,
		hub:                hub,
	}
}

const guestCookiePrefix = "quiz_guest_"

// callerID resolves the participant identity: the authenticated user when
// a token is present, otherwise a generated guest id pinned to this
// session's code by a cookie for about a day.
func (h *PlayHandler) callerID(c *gin.Context, code string) string {
	if hostID := c.GetUint("host_id"); hostID != 0 {
		return fmt.Sprintf("user-%d", hostID)
	}

	name := guestCookiePrefix + code
	if id, err := c.Cookie(name); err == nil && id != "" {
		return id
	}

	id := "guest-" + uuid.NewString()
	c.SetCookie(name, id, int((24 * time.Hour).Seconds()), "/", "", false, true)
	return id
}

type JoinRequest struct {
	Nickname string `json:"nickname" binding:"required,min=1,max=100" example:"Player1"`
}

// Join godoc
// @Summary      Join a session
// @Description  Join by code. Idempotent: rejoining returns the existing participant.
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        code path string true "Session code"
// @Param        request body JoinRequest true "Display name"
// @Success      200 {object} models.Participant
// @Failure      410 {object} ErrorResponse
// @Router       /api/v1/play/{code}/join [post]
func (h *PlayHandler) Join(c *gin.Context) {
	code := c.Param("code")

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := h.callerID(c, code)
	participant, err := h.participantService.Join(code, userID, req.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventParticipantJoined, Data: participant})

	c.JSON(http.StatusOK, participant)
}

// State godoc
// @Summary      Poll session state
// @Description  The participant's polling endpoint. "me" is null once kicked; clients treat that as a removal signal.
// @Tags         play
// @Produce      json
// @Param        code path string true "Session code"
// @Success      200 {object} PlayStateResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/{code}/state [get]
func (h *PlayHandler) State(c *gin.Context) {
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}

	userID := h.callerID(c, code)
	resp := PlayStateResponse{Session: state, UserID: userID}
	for i := range state.Participants {
		if state.Participants[i].UserID == userID {
			resp.Me = &state.Participants[i]
			break
		}
	}

	if state.CurrentQuestionID != nil && state.ResultsShown() {
		if answer, err := h.answerService.AnswerFor(state.ID, *state.CurrentQuestionID, userID); err == nil {
			resp.MyAnswer = answer
		}
	}

	c.JSON(http.StatusOK, resp)
}

type PlayStateResponse struct {
	Session  *services.SessionState `json:"session"`
	UserID   string                 `json:"user_id"`
	Me       *models.Participant    `json:"me"`
	MyAnswer *models.Answer         `json:"my_answer,omitempty"`
}

type AnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required" example:"1"`
	OptionID   *uint  `json:"option_id" example:"3"`
	AnswerText string `json:"answer_text" example:"Paris"`
}

// Answer godoc
// @Summary      Submit an answer
// @Description  One answer per participant per question. Requires an option id or free text.
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        code path string true "Session code"
// @Param        request body AnswerRequest true "Answer data"
// @Success      201 {object} models.Answer
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/play/{code}/answer [post]
func (h *PlayHandler) Answer(c *gin.Context) {
	code := c.Param("code")

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.OptionID == nil && req.AnswerText == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "option_id or answer_text is required"})
		return
	}

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}

	userID := h.callerID(c, code)
	answer, err := h.answerService.Submit(state.ID, userID, services.SubmitInput{
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
		AnswerText: req.AnswerText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(code, ws.Message{Type: ws.EventAnswerReceived, Data: gin.H{"question_id": req.QuestionID}})

	// This submission may have been the last one outstanding.
	h.autoAdvance.Evaluate(code)

	c.JSON(http.StatusCreated, answer)
}

// MyResult godoc
// @Summary      Get own answer and score
// @Description  Available once results for the current question are shown.
// @Tags         play
// @Produce      json
// @Param        code path string true "Session code"
// @Success      200 {object} PlayResultResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/{code}/result [get]
func (h *PlayHandler) MyResult(c *gin.Context) {
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}

	userID := h.callerID(c, code)
	resp := PlayResultResponse{Answered: false}
	for i := range state.Participants {
		if state.Participants[i].UserID == userID {
			resp.Score = state.Participants[i].Score
			break
		}
	}

	if state.CurrentQuestionID == nil || !state.ResultsShown() {
		c.JSON(http.StatusOK, resp)
		return
	}

	if answer, err := h.answerService.AnswerFor(state.ID, *state.CurrentQuestionID, userID); err == nil {
		resp.Answered = true
		resp.Answer = answer
	}

	c.JSON(http.StatusOK, resp)
}

type PlayResultResponse struct {
	Answered bool           `json:"answered"`
	Score    int            `json:"score"`
	Answer   *models.Answer `json:"answer,omitempty"`
}

// Ranking godoc
// @Summary      Session ranking
// @Description  Participants ordered by score. Open once the host has shown the ranking, or after the session finishes.
// @Tags         play
// @Produce      json
// @Param        code path string true "Session code"
// @Success      200 {array} services.RankingEntry
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/play/{code}/ranking [get]
func (h *PlayHandler) Ranking(c *gin.Context) {
	code := c.Param("code")

	state, err := h.sessionService.GetSessionByCode(code)
	if err != nil {
		respondError(c, err)
		return
	}
	if state.ResultsView != models.ResultsViewRanking && state.Status != models.SessionStatusFinished {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ranking is not shown yet"})
		return
	}

	entries, err := h.participantService.Ranking(state.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
