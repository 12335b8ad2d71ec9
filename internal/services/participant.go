package services

import (
	"fmt"
	"time"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"

	"gorm.io/gorm"
)

type ParticipantService struct {
	db *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{db: db}
}

// Join is idempotent: rejoining returns the existing row unchanged, score
// and nickname included.
func (s *ParticipantService) Join(code, userID, nickname string) (*models.Participant, error) {
	var session models.Session
	if err := s.db.Where("code = ?", code).First(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	}
	if session.Status == models.SessionStatusFinished {
		return nil, fmt.Errorf("%w: session already finished", apperr.ErrGone)
	}

	var existing models.Participant
	if err := s.db.Where("session_id = ? AND user_id = ?", session.ID, userID).
		First(&existing).Error; err == nil {
		return &existing, nil
	}

	participant := models.Participant{
		SessionID: session.ID,
		UserID:    userID,
		Nickname:  nickname,
		Score:     0,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(&participant).Error; err != nil {
		// A concurrent join for the same user may have won the insert race.
		if err := s.db.Where("session_id = ? AND user_id = ?", session.ID, userID).
			First(&existing).Error; err == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to join session: %w", err)
	}
	return &participant, nil
}

// Kick hard-deletes the participant row. Already-submitted answers and
// earned score history stay in the ledger; the participant discovers the
// removal on their next poll.
func (s *ParticipantService) Kick(code string, hostID uint, userID string) error {
	var session models.Session
	if err := s.db.Where("code = ?", code).First(&session).Error; err != nil {
		return fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	}
	if session.HostID != hostID {
		return fmt.Errorf("%w: not the session host", apperr.ErrForbidden)
	}

	result := s.db.Where("session_id = ? AND user_id = ?", session.ID, userID).
		Delete(&models.Participant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: participant not found", apperr.ErrNotFound)
	}
	return nil
}

// IncrementScore applies an atomic read-modify-write so concurrent
// increments never lose updates.
func (s *ParticipantService) IncrementScore(tx *gorm.DB, sessionID uint, userID string, delta int) error {
	if tx == nil {
		tx = s.db
	}
	result := tx.Model(&models.Participant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: participant not found", apperr.ErrNotFound)
	}
	return nil
}

func (s *ParticipantService) List(sessionID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.Where("session_id = ?", sessionID).
		Order("score DESC, joined_at ASC").
		Find(&participants).Error
	return participants, err
}

func (s *ParticipantService) Count(sessionID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Participant{}).Where("session_id = ?", sessionID).Count(&count).Error
	return int(count), err
}

type RankingEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// Ranking lists all current participants by score, ties broken by join
// time. Participants with no answers still appear, at zero.
func (s *ParticipantService) Ranking(sessionID uint) ([]RankingEntry, error) {
	participants, err := s.List(sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]RankingEntry, len(participants))
	for i, p := range participants {
		entries[i] = RankingEntry{
			Position: i + 1,
			UserID:   p.UserID,
			Nickname: p.Nickname,
			Score:    p.Score,
		}
	}
	return entries, nil
}
