package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionResult is the frozen aggregation snapshot taken when the host
// finishes a question. At most one row per (session, question); recomputing
// overwrites it.
type QuestionResult struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SessionID      uint           `gorm:"not null;uniqueIndex:idx_result_unique" json:"session_id"`
	QuestionID     uint           `gorm:"not null;uniqueIndex:idx_result_unique" json:"question_id"`
	Distribution   datatypes.JSON `json:"distribution"`
	TotalAnswers   int            `gorm:"not null;default:0" json:"total_answers"`
	CorrectAnswers int            `gorm:"not null;default:0" json:"correct_answers"`
	ShownAt        time.Time      `json:"shown_at"`
}
