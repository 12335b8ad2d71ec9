package models

import "time"

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"session_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_answer_unique;index:idx_answer_order" json:"question_id"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_answer_unique" json:"user_id"`
	OptionID   *uint     `json:"option_id,omitempty"`
	AnswerText string    `gorm:"size:500" json:"answer_text,omitempty"`
	IsCorrect  bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt time.Time `gorm:"index:idx_answer_order" json:"answered_at"`
}
