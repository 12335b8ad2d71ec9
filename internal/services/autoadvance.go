package services

import (
	"sync"
	"time"

	"quizlive-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// AutoAdvance finishes a live question once every current participant has
// answered. Evaluation is cheap and stateless against the store, so it is
// re-run on every answer submission and host poll; the participant count
// is re-read each time, which lets a kick lower the threshold going
// forward without retracting anything.
type AutoAdvance struct {
	sessions     *SessionService
	answers      *AnswerService
	participants *ParticipantService

	// MinDisplay keeps a question on screen long enough to be read before
	// auto-advance may finish it.
	MinDisplay time.Duration
	// SettleDelay is the pause between the threshold being reached and the
	// finish firing, so the last answerer sees their submission land.
	SettleDelay time.Duration

	// OnFinished, when set, is called after an auto-triggered finish with
	// the refreshed session state.
	OnFinished func(code string, state *SessionState)

	mu    sync.Mutex
	fired map[string]uint // session code -> question id already claimed
}

func NewAutoAdvance(sessions *SessionService, answers *AnswerService, participants *ParticipantService, minDisplay, settleDelay time.Duration) *AutoAdvance {
	return &AutoAdvance{
		sessions:     sessions,
		answers:      answers,
		participants: participants,
		MinDisplay:   minDisplay,
		SettleDelay:  settleDelay,
		fired:        make(map[string]uint),
	}
}

// Evaluate checks the everyone-answered condition for the session's live
// question and, when met, schedules a single finish after the settle delay.
func (a *AutoAdvance) Evaluate(code string) {
	session, err := a.sessions.getByCode(code)
	if err != nil {
		return
	}
	if session.Status != models.SessionStatusActive ||
		session.CurrentQuestionID == nil ||
		session.ResultsView != models.ResultsViewNone {
		return
	}
	if session.QuestionStartedAt == nil || time.Since(*session.QuestionStartedAt) < a.MinDisplay {
		return
	}

	questionID := *session.CurrentQuestionID

	participantCount, err := a.participants.Count(session.ID)
	if err != nil || participantCount == 0 {
		return
	}
	answerCount, err := a.answers.CountAnswers(session.ID, questionID)
	if err != nil || answerCount < participantCount {
		return
	}

	if !a.claim(code, questionID) {
		return
	}

	log.Info().Str("code", code).Uint("question_id", questionID).
		Int("answers", answerCount).Int("participants", participantCount).
		Msg("all participants answered, auto-finishing question")

	time.AfterFunc(a.SettleDelay, func() {
		a.finish(code, questionID)
	})
}

func (a *AutoAdvance) finish(code string, questionID uint) {
	session, err := a.sessions.getByCode(code)
	if err != nil {
		a.release(code, questionID)
		return
	}
	if session.CurrentQuestionID == nil || *session.CurrentQuestionID != questionID {
		// Host moved on during the settle delay.
		a.release(code, questionID)
		return
	}

	if err := a.sessions.finishCurrent(session); err != nil {
		// Transient failures clear the claim so a later Evaluate retries.
		// A host finishing first leaves results shown, so Evaluate will
		// simply stop matching.
		log.Warn().Err(err).Str("code", code).Msg("auto-advance finish failed")
		a.release(code, questionID)
		return
	}

	if a.OnFinished != nil {
		if state, err := a.sessions.GetSessionByCode(code); err == nil {
			a.OnFinished(code, state)
		}
	}
}

// claim marks the question as fired; it returns false when this question
// was already claimed for the session.
func (a *AutoAdvance) claim(code string, questionID uint) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if fired, ok := a.fired[code]; ok && fired == questionID {
		return false
	}
	a.fired[code] = questionID
	return true
}

func (a *AutoAdvance) release(code string, questionID uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if fired, ok := a.fired[code]; ok && fired == questionID {
		delete(a.fired, code)
	}
}

// Forget drops the session's claim entirely. Called when a session ends or
// is deleted so the map does not accumulate dead codes.
func (a *AutoAdvance) Forget(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.fired, code)
}
