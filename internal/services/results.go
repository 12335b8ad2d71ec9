package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultsService struct {
	db      *gorm.DB
	answers *AnswerService
}

func NewResultsService(db *gorm.DB, answers *AnswerService) *ResultsService {
	return &ResultsService{db: db, answers: answers}
}

// ComputeAndStore recomputes the answer distribution for a question and
// upserts the snapshot row. The ON CONFLICT clause on the
// (session_id, question_id) unique index makes concurrent finish calls
// converge on a single row instead of racing a check-then-insert. A failed
// recompute leaves any previously stored snapshot untouched.
func (s *ResultsService) ComputeAndStore(sessionID, questionID uint) (*models.QuestionResult, error) {
	dist, err := s.answers.Distribution(sessionID, questionID)
	if err != nil {
		return nil, err
	}

	byOption := make(map[string]int, len(dist.ByOption))
	for optionID, count := range dist.ByOption {
		byOption[strconv.FormatUint(uint64(optionID), 10)] = count
	}
	raw, err := json.Marshal(byOption)
	if err != nil {
		return nil, err
	}

	result := models.QuestionResult{
		SessionID:      sessionID,
		QuestionID:     questionID,
		Distribution:   datatypes.JSON(raw),
		TotalAnswers:   dist.Total,
		CorrectAnswers: dist.Correct,
		ShownAt:        time.Now(),
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"distribution", "total_answers", "correct_answers", "shown_at",
		}),
	}).Create(&result).Error
	if err != nil {
		return nil, err
	}

	return s.Get(sessionID, questionID)
}

func (s *ResultsService) Get(sessionID, questionID uint) (*models.QuestionResult, error) {
	var result models.QuestionResult
	err := s.db.Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&result).Error
	if err != nil {
		return nil, fmt.Errorf("%w: no result for question", apperr.ErrNotFound)
	}
	return &result, nil
}

// DistributionCounts decodes the stored snapshot back into option counts.
func DistributionCounts(r *models.QuestionResult) (map[uint]int, error) {
	var byOption map[string]int
	if err := json.Unmarshal(r.Distribution, &byOption); err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(byOption))
	for key, count := range byOption {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, err
		}
		counts[uint(id)] = count
	}
	return counts, nil
}
