package services

import (
	"errors"
	"fmt"
	"time"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"

	"gorm.io/gorm"
)

type AnswerService struct {
	db           *gorm.DB
	participants *ParticipantService
}

func NewAnswerService(db *gorm.DB, participants *ParticipantService) *AnswerService {
	return &AnswerService{db: db, participants: participants}
}

type SubmitInput struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	OptionID   *uint  `json:"option_id"`
	AnswerText string `json:"answer_text"`
}

// Submit records at most one answer per (session, question, participant).
// Correctness is computed here, at submission time, and a correct answer
// increments the participant's score in the same transaction as the answer
// insert. The unique index on the answers table is the real duplicate
// guard; the pre-check only gives a friendlier error for the common case.
func (s *AnswerService) Submit(sessionID uint, userID string, input SubmitInput) (*models.Answer, error) {
	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	}

	if session.Status != models.SessionStatusActive ||
		session.CurrentQuestionID == nil ||
		*session.CurrentQuestionID != input.QuestionID ||
		session.ResultsView != models.ResultsViewNone {
		return nil, fmt.Errorf("%w: question is not accepting answers", apperr.ErrConflict)
	}

	var participant models.Participant
	if err := s.db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error; err != nil {
		return nil, fmt.Errorf("%w: participant not found in session", apperr.ErrNotFound)
	}

	var existing models.Answer
	if err := s.db.Where("session_id = ? AND question_id = ? AND user_id = ?",
		sessionID, input.QuestionID, userID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: already answered", apperr.ErrConflict)
	}

	isCorrect := false
	if input.OptionID != nil {
		var option models.Option
		if err := s.db.Where("id = ? AND question_id = ?", *input.OptionID, input.QuestionID).
			First(&option).Error; err != nil {
			return nil, fmt.Errorf("%w: invalid option for question", apperr.ErrValidation)
		}
		isCorrect = option.IsCorrect
	}

	answer := models.Answer{
		SessionID:  sessionID,
		QuestionID: input.QuestionID,
		UserID:     userID,
		OptionID:   input.OptionID,
		AnswerText: input.AnswerText,
		IsCorrect:  isCorrect,
		AnsweredAt: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		if isCorrect {
			return s.participants.IncrementScore(tx, sessionID, userID, 1)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: already answered", apperr.ErrConflict)
		}
		return nil, err
	}

	return &answer, nil
}

type Distribution struct {
	Total     int          `json:"total"`
	Correct   int          `json:"correct"`
	Incorrect int          `json:"incorrect"`
	ByOption  map[uint]int `json:"by_option"`
}

// Distribution tallies current answers live from the ledger. It backs both
// the host's in-flight tally and the frozen QuestionResult snapshot.
func (s *AnswerService) Distribution(sessionID, questionID uint) (*Distribution, error) {
	var answers []models.Answer
	if err := s.db.Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	dist := &Distribution{ByOption: make(map[uint]int)}
	for _, a := range answers {
		dist.Total++
		if a.IsCorrect {
			dist.Correct++
		} else {
			dist.Incorrect++
		}
		if a.OptionID != nil {
			dist.ByOption[*a.OptionID]++
		}
	}
	return dist, nil
}

func (s *AnswerService) CountAnswers(sessionID, questionID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Answer{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Count(&count).Error
	return int(count), err
}

type AnswerWithParticipant struct {
	models.Answer
	Nickname string `json:"nickname"`
}

// AnswersWithParticipant joins answers to display names. Answers from
// kicked participants remain in the ledger; their nickname falls back to
// the raw user id.
func (s *AnswerService) AnswersWithParticipant(sessionID, questionID uint) ([]AnswerWithParticipant, error) {
	var answers []models.Answer
	if err := s.db.Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Order("answered_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	participants, err := s.participants.List(sessionID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.UserID] = p.Nickname
	}

	result := make([]AnswerWithParticipant, len(answers))
	for i, a := range answers {
		nickname, ok := names[a.UserID]
		if !ok {
			nickname = a.UserID
		}
		result[i] = AnswerWithParticipant{Answer: a, Nickname: nickname}
	}
	return result, nil
}

// AnswerFor returns the participant's own answer for a question, if any.
func (s *AnswerService) AnswerFor(sessionID, questionID uint, userID string) (*models.Answer, error) {
	var answer models.Answer
	err := s.db.Where("session_id = ? AND question_id = ? AND user_id = ?",
		sessionID, questionID, userID).First(&answer).Error
	if err != nil {
		return nil, fmt.Errorf("%w: no answer recorded", apperr.ErrNotFound)
	}
	return &answer, nil
}
