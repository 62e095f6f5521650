package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interviewcoach/internal/api"
	"interviewcoach/internal/models"
	"interviewcoach/internal/validation"
)

// Controller state errors
var (
	ErrInvalidState = errors.New("operation not valid in current session state")
	ErrBusy         = errors.New("another request is already in flight")
	ErrNoRetry      = errors.New("no failed advance to retry")
)

// Backend is the slice of the API client the controller depends on.
// Injecting it keeps the state machine testable without a server.
type Backend interface {
	StartQuestion(ctx context.Context, topic string, difficulty models.Difficulty) (*api.StartQuestionResponse, error)
	SubmitAnswer(ctx context.Context, questionID, answer, testID string, questionNumber int) (*api.AnswerResponse, error)
	CompleteSession(ctx context.Context, summary models.SessionSummary) error
}

// Controller owns the authoritative session state and drives the session
// lifecycle: configuration, the question loop, and completion. All shared
// mutable state (current question, current answer, current session) is
// written only from its own transition handlers, under one lock.
type Controller struct {
	backend Backend
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
	busy       bool

	state      models.SessionState
	session    models.Session
	current    *models.Question
	answerText string
	voiceEval  *models.VoiceEvaluation
	records    []models.AnswerRecord
	summary    *models.SessionSummary

	// pendingAdvance marks a successful answer submission whose follow-up
	// next-question fetch failed; only the fetch may be retried.
	pendingAdvance bool

	timer *QuestionTimer
}

// NewController creates a controller in the configuring state
func NewController(backend Backend, logger *zap.Logger) *Controller {
	c := &Controller{
		backend: backend,
		logger:  logger,
		state:   models.StateConfiguring,
	}
	c.timer = NewQuestionTimer(c.timerGate)
	return c
}

// newControllerForTest wires a manually ticked timer
func newControllerForTest(backend Backend, logger *zap.Logger) *Controller {
	c := &Controller{
		backend: backend,
		logger:  logger,
		state:   models.StateConfiguring,
	}
	c.timer = newQuestionTimer(c.timerGate)
	return c
}

// timerGate holds only while a question is live. Checked at every tick.
func (c *Controller) timerGate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == models.StateQuestionActive
}

// Start begins a new session for the given topic and difficulty. On failure
// the controller stays in the configuring state so the user can retry.
func (c *Controller) Start(ctx context.Context, topic string, difficulty models.Difficulty) error {
	if err := validation.ValidateTopic(topic); err != nil {
		return err
	}
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != models.StateConfiguring && c.state != models.StateIdle && c.state != models.StateEnded {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.generation++
	gen := c.generation
	c.state = models.StateConfiguring
	c.mu.Unlock()

	resp, err := c.backend.StartQuestion(ctx, topic, difficulty)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// A newer session superseded this request; drop the result.
		return nil
	}
	c.busy = false

	if err != nil {
		c.logger.Warn("failed to start session", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("failed to start session: %w", err)
	}

	sessionID := resp.TestID
	if sessionID == "" {
		sessionID = resp.QuestionID
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	c.session = models.Session{
		ID:         sessionID,
		Topic:      topic,
		Difficulty: difficulty,
		StartedAt:  time.Now(),
	}
	c.current = &models.Question{
		ID:      resp.QuestionID,
		Text:    resp.Question,
		Ordinal: 1,
	}
	c.records = nil
	c.summary = nil
	c.answerText = ""
	c.voiceEval = nil
	c.pendingAdvance = false
	c.state = models.StateQuestionActive
	c.timer.Reset()
	c.timer.Resume()

	c.logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("topic", topic),
		zap.String("difficulty", string(difficulty)))

	return nil
}

// SetAnswerText updates the typed answer for the current question
func (c *Controller) SetAnswerText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.StateQuestionActive {
		return ErrInvalidState
	}
	c.answerText = text
	return nil
}

// ApplyVoiceEvaluation installs a completed voice evaluation for the given
// question. Evaluations for superseded questions are discarded. When the
// typed answer is still empty the transcript is copied into it as a
// convenience default.
func (c *Controller) ApplyVoiceEvaluation(questionID string, eval models.VoiceEvaluation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.StateQuestionActive || c.current == nil {
		return ErrInvalidState
	}
	if c.current.ID != questionID {
		c.logger.Debug("discarding voice evaluation for superseded question",
			zap.String("question_id", questionID))
		return nil
	}

	c.voiceEval = &eval
	if c.answerText == "" {
		c.answerText = eval.Transcript
	}
	return nil
}

// VoiceTarget identifies the question a recording should be uploaded
// against: its ID, the session ID, and the 1-based ordinal.
func (c *Controller) VoiceTarget() (questionID, sessionID string, questionNumber int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.StateQuestionActive || c.current == nil {
		return "", "", 0, ErrInvalidState
	}
	return c.current.ID, c.session.ID, len(c.records) + 1, nil
}

// SubmitAndAdvance submits the current answer and fetches the next
// question. Requires a live question and a non-empty answer (typed text or
// a completed voice evaluation). If the submission fails the controller
// rolls back to the live question; if only the follow-up fetch fails it
// stays in the submitting state and RetryAdvance or End become the ways
// forward.
func (c *Controller) SubmitAndAdvance(ctx context.Context) error {
	c.mu.Lock()
	if c.state != models.StateQuestionActive || c.current == nil {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}

	merged, err := MergeAnswer(c.answerText, c.voiceEval)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.busy = true
	c.state = models.StateSubmitting
	c.timer.Suspend()
	elapsed := c.timer.Elapsed()
	question := *c.current
	sessionID := c.session.ID
	questionNumber := len(c.records) + 1
	gen := c.generation
	c.mu.Unlock()

	resp, err := c.backend.SubmitAnswer(ctx, question.ID, merged.Text, sessionID, questionNumber)

	c.mu.Lock()
	if gen != c.generation || c.state != models.StateSubmitting {
		// Session was torn down or ended while the request was in flight.
		c.mu.Unlock()
		return nil
	}

	if err != nil {
		// Nothing was recorded; return to the live question so a plain
		// retry of SubmitAndAdvance is safe.
		c.busy = false
		c.state = models.StateQuestionActive
		c.timer.Resume()
		c.mu.Unlock()
		c.logger.Warn("failed to submit answer", zap.Error(err))
		return fmt.Errorf("failed to submit answer: %w", err)
	}

	record := models.AnswerRecord{
		Question:       question,
		SubmittedText:  merged.Text,
		Score:          merged.Score,
		Feedback:       merged.Feedback,
		ElapsedSeconds: elapsed,
		Modality:       merged.Modality,
	}
	if !merged.HasScore {
		record.Score = resp.Score
		record.Feedback = resp.Feedback
	}
	c.records = append(c.records, record)
	c.answerText = ""
	c.voiceEval = nil
	c.mu.Unlock()

	return c.advance(ctx, gen)
}

// RetryAdvance re-runs only the next-question fetch after a failed advance.
// The already-submitted answer is not re-sent.
func (c *Controller) RetryAdvance(ctx context.Context) error {
	c.mu.Lock()
	if c.state != models.StateSubmitting || !c.pendingAdvance {
		c.mu.Unlock()
		return ErrNoRetry
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	gen := c.generation
	c.mu.Unlock()

	return c.advance(ctx, gen)
}

// advance fetches the next question and installs it. Called with busy held.
func (c *Controller) advance(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	topic := c.session.Topic
	difficulty := c.session.Difficulty
	c.mu.Unlock()

	resp, err := c.backend.StartQuestion(ctx, topic, difficulty)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != models.StateSubmitting {
		return nil
	}
	c.busy = false

	if err != nil {
		c.pendingAdvance = true
		c.logger.Warn("failed to fetch next question", zap.Error(err))
		return fmt.Errorf("failed to fetch next question: %w", err)
	}

	c.pendingAdvance = false
	c.current = &models.Question{
		ID:      resp.QuestionID,
		Text:    resp.Question,
		Ordinal: len(c.records) + 1,
	}
	c.state = models.StateQuestionActive
	c.timer.Reset()
	c.timer.Resume()

	return nil
}

// End stops the session, aggregates the summary, and persists it on the
// backend best-effort: the session transitions to ended even when the
// completion call fails, and the returned error is informational.
func (c *Controller) End(ctx context.Context) (*models.SessionSummary, error) {
	c.mu.Lock()
	if c.state != models.StateQuestionActive && c.state != models.StateSubmitting {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}

	c.state = models.StateEnding
	c.timer.Suspend()

	summary := Summarize(c.session, c.records, time.Now())
	c.summary = &summary
	c.mu.Unlock()

	err := c.backend.CompleteSession(ctx, summary)
	if err != nil {
		c.logger.Warn("failed to persist session summary", zap.Error(err))
	}

	c.mu.Lock()
	c.state = models.StateEnded
	c.busy = false
	c.pendingAdvance = false
	c.current = nil
	c.mu.Unlock()

	c.logger.Info("session ended",
		zap.String("topic", summary.Topic),
		zap.Float64("average_score", summary.AverageScore),
		zap.Int("questions", len(summary.Records)))

	if err != nil {
		return &summary, fmt.Errorf("summary not persisted: %w", err)
	}
	return &summary, nil
}

// Close tears the controller down: the timer stops immediately and results
// from any still-outstanding request are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.busy = false
	c.mu.Unlock()
	c.timer.Close()
}

// Snapshot is a consistent read of the controller for display
type Snapshot struct {
	State          models.SessionState
	Session        models.Session
	Question       *models.Question
	AnswerText     string
	Voice          *models.VoiceEvaluation
	AnsweredCount  int
	ElapsedSeconds int
	PendingAdvance bool
}

// Snapshot returns a copy of the current state for rendering
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:          c.state,
		Session:        c.session,
		AnswerText:     c.answerText,
		AnsweredCount:  len(c.records),
		ElapsedSeconds: c.timer.Elapsed(),
		PendingAdvance: c.pendingAdvance,
	}
	if c.current != nil {
		q := *c.current
		snap.Question = &q
	}
	if c.voiceEval != nil {
		v := *c.voiceEval
		snap.Voice = &v
	}
	return snap
}

// Records returns a copy of the answer records accumulated so far
func (c *Controller) Records() []models.AnswerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.AnswerRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Summary returns the computed summary after the session has ended
func (c *Controller) Summary() *models.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// State returns the current lifecycle state
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
