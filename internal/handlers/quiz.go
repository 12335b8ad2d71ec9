package handlers

import (
	"net/http"
	"strconv"
	"time"

	"quizlive-backend/internal/models"
	"quizlive-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

type CreateQuizRequest struct {
	Title     string                   `json:"title" binding:"required,min=1,max=255" example:"Geography basics"`
	IsPublic  bool                     `json:"is_public"`
	Questions []services.QuestionInput `json:"questions"`
}

type UpdateQuizRequest struct {
	Title    string `json:"title"`
	IsPublic *bool  `json:"is_public"`
}

// The authoring endpoints are host-only, so their responses carry the
// correct-answer flag the model otherwise suppresses. Participants only
// ever see options through the session state view.
type QuizResponse struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	IsPublic  bool               `json:"is_public"`
	Questions []QuestionResponse `json:"questions,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type QuestionResponse struct {
	ID        uint             `json:"id"`
	Type      string           `json:"type"`
	Text      string           `json:"text"`
	ImageURL  string           `json:"image_url,omitempty"`
	OrderNum  int              `json:"order_num"`
	TimeLimit *int             `json:"time_limit,omitempty"`
	Options   []OptionResponse `json:"options,omitempty"`
}

type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	OrderNum  int    `json:"order_num"`
}

func newQuizResponse(quiz *models.Quiz) QuizResponse {
	resp := QuizResponse{
		ID:        quiz.ID,
		Title:     quiz.Title,
		IsPublic:  quiz.IsPublic,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
	for i := range quiz.Questions {
		resp.Questions = append(resp.Questions, newQuestionResponse(&quiz.Questions[i]))
	}
	return resp
}

func newQuestionResponse(q *models.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:        q.ID,
		Type:      q.Type,
		Text:      q.Text,
		ImageURL:  q.ImageURL,
		OrderNum:  q.OrderNum,
		TimeLimit: q.TimeLimit,
	}
	for _, o := range q.Options {
		resp.Options = append(resp.Options, OptionResponse{
			ID:        o.ID,
			Text:      o.Text,
			IsCorrect: o.IsCorrect,
			OrderNum:  o.OrderNum,
		})
	}
	return resp
}

// CreateQuiz godoc
// @Summary      Create a quiz
// @Description  Create a quiz, optionally with its questions and options
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateQuizRequest true "Quiz data"
// @Success      201 {object} QuizResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	hostID := c.GetUint("host_id")

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(hostID, req.Title, req.IsPublic, req.Questions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newQuizResponse(quiz))
}

// ListQuizzes godoc
// @Summary      List quizzes
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} QuizResponse
// @Router       /api/v1/quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	hostID := c.GetUint("host_id")

	quizzes, err := h.quizService.GetQuizzesByHost(hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]QuizResponse, len(quizzes))
	for i := range quizzes {
		resp[i] = newQuizResponse(&quizzes[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuiz godoc
// @Summary      Get a quiz
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Quiz ID"
// @Success      200 {object} QuizResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	hostID := c.GetUint("host_id")
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	quiz, err := h.quizService.GetQuizByID(uint(quizID), hostID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuizResponse(quiz))
}

// UpdateQuiz godoc
// @Summary      Update a quiz
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Quiz ID"
// @Param        request body UpdateQuizRequest true "Fields to update"
// @Success      200 {object} QuizResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	hostID := c.GetUint("host_id")
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	var req UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.quizService.UpdateQuiz(uint(quizID), hostID, req.Title, req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuizResponse(quiz))
}

// DeleteQuiz godoc
// @Summary      Delete a quiz
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Quiz ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	hostID := c.GetUint("host_id")
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	if err := h.quizService.DeleteQuiz(uint(quizID), hostID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "quiz deleted"})
}

// AddQuestion godoc
// @Summary      Add a question to a quiz
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Quiz ID"
// @Param        request body services.QuestionInput true "Question data"
// @Success      201 {object} QuestionResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	hostID := c.GetUint("host_id")
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	var req services.QuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	question, err := h.quizService.AddQuestion(uint(quizID), hostID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newQuestionResponse(question))
}

// DeleteQuestion godoc
// @Summary      Delete a question
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	hostID := c.GetUint("host_id")
	questionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	if err := h.quizService.DeleteQuestion(uint(questionID), hostID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "question deleted"})
}
