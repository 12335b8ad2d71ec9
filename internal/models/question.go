package models

type Question struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	QuizID    uint     `gorm:"not null;index" json:"quiz_id"`
	Type      string   `gorm:"size:20;not null;default:'multiple_choice'" json:"type"`
	Text      string   `gorm:"type:text;not null" json:"text"`
	ImageURL  string   `gorm:"size:500" json:"image_url,omitempty"`
	OrderNum  int      `gorm:"not null" json:"order_num"`
	TimeLimit *int     `json:"time_limit,omitempty"`
	Options   []Option `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeTextInput      = "text_input"
	QuestionTypeImage          = "image"
)

// HasOptions reports whether the question type carries an option list.
func (q *Question) HasOptions() bool {
	return q.Type == QuestionTypeMultipleChoice || q.Type == QuestionTypeTrueFalse || q.Type == QuestionTypeImage
}
