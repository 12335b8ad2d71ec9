package services

import (
	"fmt"
	"testing"

	"quizlive-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db           *gorm.DB
	quizzes      *QuizService
	participants *ParticipantService
	answers      *AnswerService
	results      *ResultsService
	sessions     *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A named shared-cache DB so every pooled connection sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Host{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.Session{},
		&models.Participant{},
		&models.Answer{},
		&models.QuestionResult{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	quizzes := NewQuizService(db)
	participants := NewParticipantService(db)
	answers := NewAnswerService(db, participants)
	results := NewResultsService(db, answers)
	sessions := NewSessionService(db, quizzes, participants, answers, results)

	return &testEnv{
		db:           db,
		quizzes:      quizzes,
		participants: participants,
		answers:      answers,
		results:      results,
		sessions:     sessions,
	}
}

func seedHost(t *testing.T, env *testEnv) *models.Host {
	t.Helper()
	host := models.Host{Username: "host-" + uuid.NewString()[:8], PasswordHash: "x"}
	if err := env.db.Create(&host).Error; err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	return &host
}

// seedQuiz creates a quiz with one multiple-choice question, options A/B/C
// with B correct. Returns the quiz and the option ids keyed by text.
func seedQuiz(t *testing.T, env *testEnv, hostID uint) (*models.Quiz, map[string]uint) {
	t.Helper()
	quiz, err := env.quizzes.CreateQuiz(hostID, "Capitals", false, []QuestionInput{
		{
			Type: models.QuestionTypeMultipleChoice,
			Text: "Capital of France?",
			Options: []OptionInput{
				{Text: "A"},
				{Text: "B", IsCorrect: true},
				{Text: "C"},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}

	options := make(map[string]uint)
	for _, o := range quiz.Questions[0].Options {
		options[o.Text] = o.ID
	}
	return quiz, options
}

// startLiveQuestion brings a fresh session to question-live on question 0.
func startLiveQuestion(t *testing.T, env *testEnv, quizID, hostID uint) *SessionState {
	t.Helper()
	session, err := env.sessions.CreateSession(quizID, hostID)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if _, err := env.sessions.Start(session.Code, hostID); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	state, err := env.sessions.StartQuestion(session.Code, hostID, 0)
	if err != nil {
		t.Fatalf("failed to start question: %v", err)
	}
	return state
}
