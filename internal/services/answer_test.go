package services

import (
	"errors"
	"testing"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"
)

func TestSubmitScoresCorrectAnswer(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	questionID := *state.CurrentQuestionID

	p1, err := env.participants.Join(state.Code, "guest-1", "Alice")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := env.participants.Join(state.Code, "guest-2", "Bob"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	optB := options["B"]
	answer, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{QuestionID: questionID, OptionID: &optB})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !answer.IsCorrect {
		t.Error("expected correct answer for option B")
	}

	optA := options["A"]
	answer, err = env.answers.Submit(state.ID, "guest-2", SubmitInput{QuestionID: questionID, OptionID: &optA})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if answer.IsCorrect {
		t.Error("expected incorrect answer for option A")
	}

	var reloaded models.Participant
	env.db.First(&reloaded, p1.ID)
	if reloaded.Score != 1 {
		t.Errorf("expected score 1 after one correct answer, got %d", reloaded.Score)
	}

	var bob models.Participant
	env.db.Where("session_id = ? AND user_id = ?", state.ID, "guest-2").First(&bob)
	if bob.Score != 0 {
		t.Errorf("expected score 0 for incorrect answer, got %d", bob.Score)
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	questionID := *state.CurrentQuestionID

	if _, err := env.participants.Join(state.Code, "guest-1", "Alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	optB := options["B"]
	if _, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{QuestionID: questionID, OptionID: &optB}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	optA := options["A"]
	if _, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{QuestionID: questionID, OptionID: &optA}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict on duplicate submission, got %v", err)
	}

	// The ledger keeps exactly the first answer.
	var answers []models.Answer
	env.db.Where("session_id = ? AND question_id = ? AND user_id = ?", state.ID, questionID, "guest-1").Find(&answers)
	if len(answers) != 1 {
		t.Fatalf("expected exactly one answer row, got %d", len(answers))
	}
	if answers[0].OptionID == nil || *answers[0].OptionID != optB {
		t.Error("duplicate submission must not replace the original answer")
	}

	var p models.Participant
	env.db.Where("session_id = ? AND user_id = ?", state.ID, "guest-1").First(&p)
	if p.Score != 1 {
		t.Errorf("duplicate rejection must not change the score, got %d", p.Score)
	}
}

func TestSubmitWithoutOptionIsIncorrect(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)

	if _, err := env.participants.Join(state.Code, "guest-1", "Alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	answer, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{
		QuestionID: *state.CurrentQuestionID,
		AnswerText: "B",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if answer.IsCorrect {
		t.Error("free-text submissions default to incorrect")
	}
}

func TestSubmitRejectedWhenQuestionNotLive(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	questionID := *state.CurrentQuestionID

	if _, err := env.participants.Join(state.Code, "guest-1", "Alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := env.sessions.FinishQuestion(state.Code, host.ID); err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	optB := options["B"]
	if _, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{QuestionID: questionID, OptionID: &optB}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict submitting after finish, got %v", err)
	}
}

func TestDistribution(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	questionID := *state.CurrentQuestionID

	optA, optB := options["A"], options["B"]
	for i, opt := range []*uint{&optB, &optB, &optA} {
		userID := []string{"guest-1", "guest-2", "guest-3"}[i]
		if _, err := env.participants.Join(state.Code, userID, userID); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if _, err := env.answers.Submit(state.ID, userID, SubmitInput{QuestionID: questionID, OptionID: opt}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	dist, err := env.answers.Distribution(state.ID, questionID)
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}
	if dist.Total != 3 || dist.Correct != 2 || dist.Incorrect != 1 {
		t.Errorf("expected total=3 correct=2 incorrect=1, got %+v", dist)
	}
	if dist.ByOption[optB] != 2 || dist.ByOption[optA] != 1 {
		t.Errorf("unexpected option counts: %v", dist.ByOption)
	}
}

func TestAnswersWithParticipantFallsBackAfterKick(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	questionID := *state.CurrentQuestionID

	if _, err := env.participants.Join(state.Code, "guest-1", "Alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	optB := options["B"]
	if _, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{QuestionID: questionID, OptionID: &optB}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := env.participants.Kick(state.Code, host.ID, "guest-1"); err != nil {
		t.Fatalf("Kick failed: %v", err)
	}

	answers, err := env.answers.AnswersWithParticipant(state.ID, questionID)
	if err != nil {
		t.Fatalf("AnswersWithParticipant failed: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("kick must not retract answers, got %d rows", len(answers))
	}
	if answers[0].Nickname != "guest-1" {
		t.Errorf("expected raw user id fallback for kicked participant, got %q", answers[0].Nickname)
	}
}
