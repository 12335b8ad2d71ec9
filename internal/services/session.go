package services

import (
	"fmt"
	"math/rand"
	"time"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	codeLength      = 6
	codeCharset     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeMaxAttempts = 10
)

type SessionService struct {
	db           *gorm.DB
	quizzes      *QuizService
	participants *ParticipantService
	answers      *AnswerService
	results      *ResultsService
}

func NewSessionService(db *gorm.DB, quizzes *QuizService, participants *ParticipantService, answers *AnswerService, results *ResultsService) *SessionService {
	return &SessionService{
		db:           db,
		quizzes:      quizzes,
		participants: participants,
		answers:      answers,
		results:      results,
	}
}

// CreateSession opens a new waiting session for a quiz the caller owns, or
// for any public quiz.
func (s *SessionService) CreateSession(quizID, hostID uint) (*models.Session, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		return nil, fmt.Errorf("%w: quiz not found", apperr.ErrNotFound)
	}
	if quiz.HostID != hostID && !quiz.IsPublic {
		return nil, fmt.Errorf("%w: quiz is not public", apperr.ErrForbidden)
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	session := models.Session{
		Code:        code,
		QuizID:      quizID,
		HostID:      hostID,
		Status:      models.SessionStatusWaiting,
		ResultsView: models.ResultsViewNone,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}

	log.Info().Str("code", code).Uint("quiz_id", quizID).Uint("host_id", hostID).Msg("session created")
	return &session, nil
}

// generateUniqueCode retries against the uniqueness check a bounded number
// of times; the small code space makes collisions likely enough that an
// unbounded loop would hide a nearly-full space.
func (s *SessionService) generateUniqueCode() (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		for i := range buf {
			buf[i] = codeCharset[rand.Intn(len(codeCharset))]
		}
		code := string(buf)

		var count int64
		if err := s.db.Model(&models.Session{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique session code", apperr.ErrResourceExhausted)
}

func (s *SessionService) getByCode(code string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("code = ?", code).First(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	}
	return &session, nil
}

// authorize loads the session and checks the caller is its host. Every
// mutating operation goes through this before touching state.
func (s *SessionService) authorize(code string, hostID uint) (*models.Session, error) {
	session, err := s.getByCode(code)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, fmt.Errorf("%w: not the session host", apperr.ErrForbidden)
	}
	return session, nil
}

// Start moves waiting -> active. It does not select a question; starting
// the quiz and starting the first question are distinct host actions.
func (s *SessionService) Start(code string, hostID uint) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusWaiting {
		return nil, fmt.Errorf("%w: session already started", apperr.ErrConflict)
	}

	now := time.Now()
	session.Status = models.SessionStatusActive
	session.StartedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	return s.GetSessionByCode(code)
}

// StartQuestion makes the question at index the live one. Switching
// questions always clears the results view: there is no state with a new
// question and a stale chart.
func (s *SessionService) StartQuestion(code string, hostID uint, index int) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is not active", apperr.ErrConflict)
	}

	questions, err := s.quizzes.OrderedQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", apperr.ErrValidation)
	}
	if index < 0 || index >= len(questions) {
		return nil, fmt.Errorf("%w: question index out of range", apperr.ErrValidation)
	}

	now := time.Now()
	questionID := questions[index].ID
	session.CurrentQuestionID = &questionID
	session.ResultsView = models.ResultsViewNone
	session.QuestionStartedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	return s.GetSessionByCode(code)
}

// FinishQuestion freezes the live question: snapshot the distribution,
// then switch to the bar chart.
func (s *SessionService) FinishQuestion(code string, hostID uint) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if err := s.finishCurrent(session); err != nil {
		return nil, err
	}
	return s.GetSessionByCode(code)
}

// finishCurrent is shared by the host action and auto-advance. The
// conditional update claims the question-live -> bar-chart transition so
// two concurrent finish calls cannot both apply it; the snapshot upsert
// makes the losing call's compute harmless anyway.
func (s *SessionService) finishCurrent(session *models.Session) error {
	if session.Status != models.SessionStatusActive || session.CurrentQuestionID == nil {
		return fmt.Errorf("%w: no live question to finish", apperr.ErrConflict)
	}
	if session.ResultsView != models.ResultsViewNone {
		return fmt.Errorf("%w: question already finished", apperr.ErrConflict)
	}

	questionID := *session.CurrentQuestionID
	if _, err := s.results.ComputeAndStore(session.ID, questionID); err != nil {
		return err
	}

	result := s.db.Model(&models.Session{}).
		Where("id = ? AND status = ? AND current_question_id = ? AND results_view = ?",
			session.ID, models.SessionStatusActive, questionID, models.ResultsViewNone).
		Update("results_view", models.ResultsViewBarChart)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: question already finished", apperr.ErrConflict)
	}

	log.Info().Str("code", session.Code).Uint("question_id", questionID).Msg("question finished")
	return nil
}

func (s *SessionService) ShowRanking(code string, hostID uint) (*SessionState, error) {
	return s.setResultsView(code, hostID, models.ResultsViewBarChart, models.ResultsViewRanking)
}

func (s *SessionService) BackToChart(code string, hostID uint) (*SessionState, error) {
	return s.setResultsView(code, hostID, models.ResultsViewRanking, models.ResultsViewBarChart)
}

func (s *SessionService) setResultsView(code string, hostID uint, from, to string) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive || session.CurrentQuestionID == nil {
		return nil, fmt.Errorf("%w: no finished question to show", apperr.ErrConflict)
	}
	if session.ResultsView != from {
		return nil, fmt.Errorf("%w: results view is not %s", apperr.ErrConflict, from)
	}

	session.ResultsView = to
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}
	return s.GetSessionByCode(code)
}

// NextQuestion advances past a finished question, or ends the session when
// it was the last one.
func (s *SessionService) NextQuestion(code string, hostID uint) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive || session.CurrentQuestionID == nil {
		return nil, fmt.Errorf("%w: no question in progress", apperr.ErrConflict)
	}
	if session.ResultsView == models.ResultsViewNone {
		return nil, fmt.Errorf("%w: finish the question before advancing", apperr.ErrConflict)
	}

	questions, err := s.quizzes.OrderedQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}
	currentIndex := -1
	for i, q := range questions {
		if q.ID == *session.CurrentQuestionID {
			currentIndex = i
			break
		}
	}

	if currentIndex == -1 || currentIndex+1 >= len(questions) {
		return s.End(code, hostID)
	}

	now := time.Now()
	nextID := questions[currentIndex+1].ID
	session.CurrentQuestionID = &nextID
	session.ResultsView = models.ResultsViewNone
	session.QuestionStartedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	return s.GetSessionByCode(code)
}

// End finishes an active session. Finished is terminal: only Delete
// remains afterwards. A waiting lobby cannot be ended, only deleted.
func (s *SessionService) End(code string, hostID uint) (*SessionState, error) {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is not active", apperr.ErrConflict)
	}

	now := time.Now()
	session.Status = models.SessionStatusFinished
	session.EndedAt = &now
	session.CurrentQuestionID = nil
	session.ResultsView = models.ResultsViewNone
	session.QuestionStartedAt = nil
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	log.Info().Str("code", code).Msg("session ended")
	return s.GetSessionByCode(code)
}

// Delete hard-deletes the session and everything hanging off it.
func (s *SessionService) Delete(code string, hostID uint) error {
	session, err := s.authorize(code, hostID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.QuestionResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		return tx.Delete(session).Error
	})
}

func (s *SessionService) ListSessions(hostID uint) ([]SessionSummary, error) {
	var sessions []models.Session
	if err := s.db.Where("host_id = ?", hostID).
		Preload("Quiz").
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}

	result := make([]SessionSummary, len(sessions))
	for i, sess := range sessions {
		count, _ := s.participants.Count(sess.ID)
		result[i] = SessionSummary{
			ID:               sess.ID,
			Code:             sess.Code,
			QuizTitle:        sess.Quiz.Title,
			Status:           sess.Status,
			ParticipantCount: count,
			CreatedAt:        sess.CreatedAt,
		}
	}
	return result, nil
}

// GetSessionByCode assembles the full polled state: session, quiz with
// questions and options, and the participant list. Option correctness is
// only present on the question whose results are currently shown (all
// questions once the session finishes); until then participants see no
// more than the live answer count.
func (s *SessionService) GetSessionByCode(code string) (*SessionState, error) {
	var session models.Session
	err := s.db.Where("code = ?", code).
		Preload("Quiz").
		Preload("Quiz.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Quiz.Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("score DESC, joined_at ASC")
		}).
		First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	}

	revealed := session.ResultsShown()
	var revealedID *uint
	if session.ResultsView != models.ResultsViewNone {
		revealedID = session.CurrentQuestionID
	}
	state := &SessionState{
		Session:        session,
		Quiz:           buildQuizView(&session.Quiz, revealedID, session.Status == models.SessionStatusFinished),
		TotalQuestions: len(session.Quiz.Questions),
	}

	if session.CurrentQuestionID != nil {
		for i := range state.Quiz.Questions {
			if state.Quiz.Questions[i].ID == *session.CurrentQuestionID {
				state.CurrentQuestion = &state.Quiz.Questions[i]
				break
			}
		}
		count, err := s.answers.CountAnswers(session.ID, *session.CurrentQuestionID)
		if err != nil {
			return nil, err
		}
		state.AnswerCount = count

		if revealed {
			if result, err := s.results.Get(session.ID, *session.CurrentQuestionID); err == nil {
				state.QuestionResult = result
			}
		}
	}

	return state, nil
}

type SessionState struct {
	models.Session
	Quiz            *QuizView              `json:"quiz"`
	TotalQuestions  int                    `json:"total_questions"`
	CurrentQuestion *QuestionView          `json:"current_question,omitempty"`
	AnswerCount     int                    `json:"answer_count"`
	QuestionResult  *models.QuestionResult `json:"question_result,omitempty"`
}

type QuizView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	IsPublic  bool           `json:"is_public"`
	Questions []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID        uint         `json:"id"`
	Type      string       `json:"type"`
	Text      string       `json:"text"`
	ImageURL  string       `json:"image_url,omitempty"`
	OrderNum  int          `json:"order_num"`
	TimeLimit *int         `json:"time_limit,omitempty"`
	Options   []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	OrderNum  int    `json:"order_num"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type SessionSummary struct {
	ID               uint      `json:"id"`
	Code             string    `json:"code"`
	QuizTitle        string    `json:"quiz_title"`
	Status           string    `json:"status"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// buildQuizView shapes the quiz for the polled state. Correctness is only
// attached to the question named by revealedID, or to every question once
// revealAll is set for a finished session. Questions not yet played never
// carry the flag, so a chart on question 1 does not hand out the answer
// key for the rest of the quiz.
func buildQuizView(quiz *models.Quiz, revealedID *uint, revealAll bool) *QuizView {
	view := &QuizView{
		ID:       quiz.ID,
		Title:    quiz.Title,
		IsPublic: quiz.IsPublic,
	}
	for _, q := range quiz.Questions {
		revealed := revealAll || (revealedID != nil && q.ID == *revealedID)
		qv := QuestionView{
			ID:        q.ID,
			Type:      q.Type,
			Text:      q.Text,
			ImageURL:  q.ImageURL,
			OrderNum:  q.OrderNum,
			TimeLimit: q.TimeLimit,
		}
		for _, o := range q.Options {
			ov := OptionView{
				ID:       o.ID,
				Text:     o.Text,
				OrderNum: o.OrderNum,
			}
			if revealed {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}
