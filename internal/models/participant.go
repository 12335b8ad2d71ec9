package models

import "time"

type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_session_user" json:"session_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_session_user" json:"user_id"`
	Nickname  string    `gorm:"size:100;not null" json:"nickname"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	JoinedAt  time.Time `json:"joined_at"`
}
