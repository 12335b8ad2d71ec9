package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"quizlive-backend/internal/models"
)

func TestQuizResponseExposesCorrectFlagToOwner(t *testing.T) {
	quiz := &models.Quiz{
		ID:    1,
		Title: "Capitals",
		Questions: []models.Question{
			{
				ID:   10,
				Type: models.QuestionTypeMultipleChoice,
				Text: "Capital of France?",
				Options: []models.Option{
					{ID: 100, Text: "A"},
					{ID: 101, Text: "B", IsCorrect: true},
				},
			},
		},
	}

	resp := newQuizResponse(quiz)
	if len(resp.Questions) != 1 || len(resp.Questions[0].Options) != 2 {
		t.Fatalf("unexpected response shape: %+v", resp)
	}
	if resp.Questions[0].Options[0].IsCorrect {
		t.Error("option A must not be marked correct")
	}
	if !resp.Questions[0].Options[1].IsCorrect {
		t.Error("option B must be marked correct for the quiz owner")
	}

	// The model hides the flag on the wire; the owner view must not.
	modelJSON, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(modelJSON), "is_correct") {
		t.Error("model serialization must keep hiding is_correct")
	}

	respJSON, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(respJSON), `"is_correct":true`) {
		t.Errorf("owner response must carry is_correct, got %s", respJSON)
	}
}
