package services

import (
	"fmt"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db *gorm.DB
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

type QuestionInput struct {
	Type      string        `json:"type" binding:"required,oneof=multiple_choice true_false text_input image"`
	Text      string        `json:"text" binding:"required"`
	ImageURL  string        `json:"image_url"`
	TimeLimit *int          `json:"time_limit"`
	Options   []OptionInput `json:"options"`
}

type OptionInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

func (s *QuizService) CreateQuiz(hostID uint, title string, isPublic bool, questions []QuestionInput) (*models.Quiz, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		HostID:   hostID,
		Title:    title,
		IsPublic: isPublic,
	}
	for i, qi := range questions {
		q := models.Question{
			Type:      qi.Type,
			Text:      qi.Text,
			ImageURL:  qi.ImageURL,
			OrderNum:  i,
			TimeLimit: qi.TimeLimit,
		}
		for j, oi := range qi.Options {
			q.Options = append(q.Options, models.Option{
				Text:      oi.Text,
				IsCorrect: oi.IsCorrect,
				OrderNum:  j,
			})
		}
		quiz.Questions = append(quiz.Questions, q)
	}

	if err := s.db.Create(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) GetQuizzesByHost(hostID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("host_id = ?", hostID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Order("created_at DESC").
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (s *QuizService) GetQuizByID(quizID, hostID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("id = ? AND host_id = ?", quizID, hostID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		First(&quiz).Error
	if err != nil {
		return nil, fmt.Errorf("%w: quiz not found", apperr.ErrNotFound)
	}
	return &quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID, hostID uint, title string, isPublic *bool) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.Where("id = ? AND host_id = ?", quizID, hostID).First(&quiz).Error; err != nil {
		return nil, fmt.Errorf("%w: quiz not found", apperr.ErrNotFound)
	}

	if title != "" {
		quiz.Title = title
	}
	if isPublic != nil {
		quiz.IsPublic = *isPublic
	}
	if err := s.db.Save(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) DeleteQuiz(quizID, hostID uint) error {
	var quiz models.Quiz
	if err := s.db.Where("id = ? AND host_id = ?", quizID, hostID).First(&quiz).Error; err != nil {
		return fmt.Errorf("%w: quiz not found", apperr.ErrNotFound)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		tx.Model(&models.Question{}).Where("quiz_id = ?", quizID).Pluck("id", &questionIDs)
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.Option{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quiz).Error
	})
}

func (s *QuizService) AddQuestion(quizID, hostID uint, input QuestionInput) (*models.Question, error) {
	if _, err := s.GetQuizByID(quizID, hostID); err != nil {
		return nil, err
	}
	if err := validateQuestions([]QuestionInput{input}); err != nil {
		return nil, err
	}

	var maxOrder int
	s.db.Model(&models.Question{}).Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(order_num), -1)").Scan(&maxOrder)

	q := models.Question{
		QuizID:    quizID,
		Type:      input.Type,
		Text:      input.Text,
		ImageURL:  input.ImageURL,
		OrderNum:  maxOrder + 1,
		TimeLimit: input.TimeLimit,
	}
	for j, oi := range input.Options {
		q.Options = append(q.Options, models.Option{
			Text:      oi.Text,
			IsCorrect: oi.IsCorrect,
			OrderNum:  j,
		})
	}
	if err := s.db.Create(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *QuizService) DeleteQuestion(questionID, hostID uint) error {
	var q models.Question
	if err := s.db.First(&q, questionID).Error; err != nil {
		return fmt.Errorf("%w: question not found", apperr.ErrNotFound)
	}
	if _, err := s.GetQuizByID(q.QuizID, hostID); err != nil {
		return fmt.Errorf("%w: not the quiz owner", apperr.ErrForbidden)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
}

// OrderedQuestions returns the quiz's questions with options in play order.
// The session core reads quiz content exclusively through this.
func (s *QuizService) OrderedQuestions(quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Where("quiz_id = ?", quizID).
		Order("order_num ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Choice-type questions need at least two options, one of them correct.
func validateQuestions(questions []QuestionInput) error {
	for i, q := range questions {
		if q.Type == models.QuestionTypeTextInput {
			continue
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", apperr.ErrValidation, i)
		}
		hasCorrect := false
		for _, o := range q.Options {
			if o.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			return fmt.Errorf("%w: question %d needs a correct option", apperr.ErrValidation, i)
		}
	}
	return nil
}
