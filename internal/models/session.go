package models

import "time"

type Session struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	Code              string        `gorm:"size:6;uniqueIndex;not null" json:"code"`
	QuizID            uint          `gorm:"not null" json:"quiz_id"`
	Quiz              Quiz          `gorm:"foreignKey:QuizID" json:"-"`
	HostID            uint          `gorm:"not null;index" json:"host_id"`
	Status            string        `gorm:"size:20;not null;default:'waiting'" json:"status"`
	CurrentQuestionID *uint         `json:"current_question_id,omitempty"`
	ResultsView       string        `gorm:"size:20;not null;default:'none'" json:"results_view"`
	QuestionStartedAt *time.Time    `json:"question_started_at,omitempty"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	EndedAt           *time.Time    `json:"ended_at,omitempty"`
	Participants      []Participant `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

const (
	SessionStatusWaiting  = "waiting"
	SessionStatusActive   = "active"
	SessionStatusFinished = "finished"

	ResultsViewNone     = "none"
	ResultsViewBarChart = "bar_chart"
	ResultsViewRanking  = "ranking"
)

// ResultsShown reports whether answer correctness may be exposed to
// participants: either the host has revealed results for the current
// question or the session is over.
func (s *Session) ResultsShown() bool {
	return s.ResultsView != ResultsViewNone || s.Status == SessionStatusFinished
}
