package services

import (
	"errors"
	"regexp"
	"testing"

	"quizlive-backend/internal/apperr"
	"quizlive-backend/internal/models"
)

func TestCreateSessionGeneratesCode(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)

	session, err := env.sessions.CreateSession(quiz.ID, host.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if matched, _ := regexp.MatchString(`^[A-Z0-9]{6}$`, session.Code); !matched {
		t.Errorf("expected 6 uppercase alphanumeric chars, got %q", session.Code)
	}
	if session.Status != models.SessionStatusWaiting {
		t.Errorf("expected waiting status, got %q", session.Status)
	}
	if session.ResultsView != models.ResultsViewNone {
		t.Errorf("expected results view none, got %q", session.ResultsView)
	}
}

func TestCreateSessionAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner := seedHost(t, env)
	other := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, owner.ID)

	if _, err := env.sessions.CreateSession(quiz.ID, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden for non-owner on private quiz, got %v", err)
	}

	if _, err := env.sessions.CreateSession(9999, owner.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound for missing quiz, got %v", err)
	}

	// Public quizzes may be hosted by anyone.
	env.db.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Update("is_public", true)
	if _, err := env.sessions.CreateSession(quiz.ID, other.ID); err != nil {
		t.Errorf("expected public quiz to be hostable by non-owner, got %v", err)
	}
}

func TestWaitingOnlyAllowsStart(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	session, err := env.sessions.CreateSession(quiz.ID, host.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := env.sessions.StartQuestion(session.Code, host.ID, 0); err == nil {
		t.Error("expected StartQuestion from waiting to fail")
	}
	if _, err := env.sessions.FinishQuestion(session.Code, host.ID); err == nil {
		t.Error("expected FinishQuestion from waiting to fail")
	}
	if _, err := env.sessions.NextQuestion(session.Code, host.ID); err == nil {
		t.Error("expected NextQuestion from waiting to fail")
	}

	var reloaded models.Session
	env.db.First(&reloaded, session.ID)
	if reloaded.Status != models.SessionStatusWaiting {
		t.Errorf("rejected transitions must not mutate status, got %q", reloaded.Status)
	}

	state, err := env.sessions.Start(session.Code, host.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if state.Status != models.SessionStatusActive {
		t.Errorf("expected active after start, got %q", state.Status)
	}
	if state.StartedAt == nil {
		t.Error("expected StartedAt to be set")
	}
	if state.CurrentQuestionID != nil {
		t.Error("Start must not auto-select a question")
	}

	if _, err := env.sessions.Start(session.Code, host.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict on double start, got %v", err)
	}
}

func TestStartQuestionResetsResultsView(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, err := env.quizzes.CreateQuiz(host.ID, "Two rounds", false, []QuestionInput{
		{Type: models.QuestionTypeTrueFalse, Text: "Q1", Options: []OptionInput{
			{Text: "True", IsCorrect: true}, {Text: "False"},
		}},
		{Type: models.QuestionTypeTrueFalse, Text: "Q2", Options: []OptionInput{
			{Text: "True"}, {Text: "False", IsCorrect: true},
		}},
	})
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	if state.ResultsView != models.ResultsViewNone {
		t.Fatalf("expected results view none on fresh question, got %q", state.ResultsView)
	}

	state, err = env.sessions.FinishQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}
	if state.ResultsView != models.ResultsViewBarChart {
		t.Fatalf("expected bar chart after finish, got %q", state.ResultsView)
	}

	state, err = env.sessions.StartQuestion(state.Code, host.ID, 1)
	if err != nil {
		t.Fatalf("StartQuestion failed: %v", err)
	}
	if state.ResultsView != models.ResultsViewNone {
		t.Errorf("switching questions must clear the results view, got %q", state.ResultsView)
	}
	if state.CurrentQuestionID == nil || *state.CurrentQuestionID != quiz.Questions[1].ID {
		t.Error("expected current question to be the second question")
	}
}

func TestResultsViewImpliesActiveQuestion(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)

	// Ranking before the chart is shown is an illegal jump.
	if _, err := env.sessions.ShowRanking(state.Code, host.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict showing ranking before finish, got %v", err)
	}

	state, err := env.sessions.FinishQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	state, err = env.sessions.ShowRanking(state.Code, host.ID)
	if err != nil {
		t.Fatalf("ShowRanking failed: %v", err)
	}
	if state.ResultsView != models.ResultsViewRanking {
		t.Fatalf("expected ranking, got %q", state.ResultsView)
	}

	state, err = env.sessions.BackToChart(state.Code, host.ID)
	if err != nil {
		t.Fatalf("BackToChart failed: %v", err)
	}
	if state.ResultsView != models.ResultsViewBarChart {
		t.Fatalf("expected bar chart, got %q", state.ResultsView)
	}

	// The invariant holds in every state this flow produced.
	var sessions []models.Session
	env.db.Find(&sessions)
	for _, s := range sessions {
		if s.ResultsView != models.ResultsViewNone {
			if s.Status != models.SessionStatusActive || s.CurrentQuestionID == nil {
				t.Errorf("session %s violates results-view invariant: status=%s current=%v",
					s.Code, s.Status, s.CurrentQuestionID)
			}
		}
	}
}

func TestNextQuestionAfterLastFinishes(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)

	if _, err := env.sessions.NextQuestion(state.Code, host.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict advancing past a live question, got %v", err)
	}

	if _, err := env.sessions.FinishQuestion(state.Code, host.ID); err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	state, err := env.sessions.NextQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if state.Status != models.SessionStatusFinished {
		t.Errorf("expected finished after last question, got %q", state.Status)
	}
	if state.EndedAt == nil {
		t.Error("expected EndedAt to be set")
	}
	if state.CurrentQuestionID != nil {
		t.Error("expected current question cleared on finish")
	}

	if _, err := env.sessions.End(state.Code, host.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("finished is terminal, expected Conflict on End, got %v", err)
	}
}

func TestHostOnlyMutations(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	other := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	session, err := env.sessions.CreateSession(quiz.ID, host.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := env.sessions.Start(session.Code, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden for non-host start, got %v", err)
	}
	if err := env.sessions.Delete(session.Code, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden for non-host delete, got %v", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, options := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)

	if _, err := env.participants.Join(state.Code, "guest-1", "Alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	optB := options["B"]
	if _, err := env.answers.Submit(state.ID, "guest-1", SubmitInput{
		QuestionID: *state.CurrentQuestionID, OptionID: &optB,
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := env.sessions.FinishQuestion(state.Code, host.ID); err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	if err := env.sessions.Delete(state.Code, host.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int64
	env.db.Model(&models.Participant{}).Where("session_id = ?", state.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected participants deleted, found %d", count)
	}
	env.db.Model(&models.Answer{}).Where("session_id = ?", state.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected answers deleted, found %d", count)
	}
	env.db.Model(&models.QuestionResult{}).Where("session_id = ?", state.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected results deleted, found %d", count)
	}
}

func TestGetSessionHidesCorrectnessUntilRevealed(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	state := startLiveQuestion(t, env, quiz.ID, host.ID)

	for _, o := range state.CurrentQuestion.Options {
		if o.IsCorrect != nil {
			t.Fatal("correctness must be hidden while the question is live")
		}
	}

	state, err := env.sessions.FinishQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	sawCorrect := false
	for _, o := range state.CurrentQuestion.Options {
		if o.IsCorrect != nil && *o.IsCorrect {
			sawCorrect = true
		}
	}
	if !sawCorrect {
		t.Error("expected correctness revealed once results are shown")
	}
}

func TestGetSessionRevealsOnlyCurrentQuestion(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, err := env.quizzes.CreateQuiz(host.ID, "Two rounds", false, []QuestionInput{
		{Type: models.QuestionTypeTrueFalse, Text: "Q1", Options: []OptionInput{
			{Text: "True", IsCorrect: true}, {Text: "False"},
		}},
		{Type: models.QuestionTypeTrueFalse, Text: "Q2", Options: []OptionInput{
			{Text: "True"}, {Text: "False", IsCorrect: true},
		}},
	})
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	state := startLiveQuestion(t, env, quiz.ID, host.ID)
	state, err = env.sessions.FinishQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}

	// The chart for question 1 must not hand out the answer key for
	// question 2.
	for _, q := range state.Quiz.Questions {
		for _, o := range q.Options {
			if q.ID == *state.CurrentQuestionID {
				if o.IsCorrect == nil {
					t.Error("expected correctness on the finished current question")
				}
			} else if o.IsCorrect != nil {
				t.Errorf("correctness leaked on unplayed question %q", q.Text)
			}
		}
	}

	// Once the session finishes, every question may be reviewed.
	if _, err := env.sessions.NextQuestion(state.Code, host.ID); err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if _, err := env.sessions.FinishQuestion(state.Code, host.ID); err != nil {
		t.Fatalf("FinishQuestion failed: %v", err)
	}
	state, err = env.sessions.NextQuestion(state.Code, host.ID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if state.Status != models.SessionStatusFinished {
		t.Fatalf("expected finished, got %q", state.Status)
	}
	for _, q := range state.Quiz.Questions {
		for _, o := range q.Options {
			if o.IsCorrect == nil {
				t.Errorf("expected correctness on question %q after finish", q.Text)
			}
		}
	}
}

func TestEndRequiresActiveSession(t *testing.T) {
	env := newTestEnv(t)
	host := seedHost(t, env)
	quiz, _ := seedQuiz(t, env, host.ID)
	session, err := env.sessions.CreateSession(quiz.ID, host.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := env.sessions.End(session.Code, host.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict ending a waiting session, got %v", err)
	}

	var reloaded models.Session
	env.db.First(&reloaded, session.ID)
	if reloaded.Status != models.SessionStatusWaiting {
		t.Errorf("rejected End must not mutate status, got %q", reloaded.Status)
	}
	if reloaded.EndedAt != nil {
		t.Error("rejected End must not set EndedAt")
	}
}
