package session

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"interviewcoach/internal/api"
	"interviewcoach/internal/models"
)

// fakeBackend scripts backend behavior per call
type fakeBackend struct {
	startFn    func(topic string, difficulty models.Difficulty) (*api.StartQuestionResponse, error)
	submitFn   func(questionID, answer, testID string, questionNumber int) (*api.AnswerResponse, error)
	completeFn func(summary models.SessionSummary) error

	startCalls    int
	submitCalls   int
	completeCalls int

	lastSummary models.SessionSummary
}

func (f *fakeBackend) StartQuestion(_ context.Context, topic string, difficulty models.Difficulty) (*api.StartQuestionResponse, error) {
	f.startCalls++
	if f.startFn != nil {
		return f.startFn(topic, difficulty)
	}
	return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "What are hooks?"}, nil
}

func (f *fakeBackend) SubmitAnswer(_ context.Context, questionID, answer, testID string, questionNumber int) (*api.AnswerResponse, error) {
	f.submitCalls++
	if f.submitFn != nil {
		return f.submitFn(questionID, answer, testID, questionNumber)
	}
	return &api.AnswerResponse{Score: 7, Feedback: "Decent"}, nil
}

func (f *fakeBackend) CompleteSession(_ context.Context, summary models.SessionSummary) error {
	f.completeCalls++
	f.lastSummary = summary
	if f.completeFn != nil {
		return f.completeFn(summary)
	}
	return nil
}

func newTestController(backend *fakeBackend) *Controller {
	return newControllerForTest(backend, zap.NewNop())
}

func startedController(t *testing.T, backend *fakeBackend) *Controller {
	t.Helper()

	c := newTestController(backend)
	if err := c.Start(context.Background(), "React", models.DifficultyEasy); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	return c
}

func TestStartInstallsFirstQuestion(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	snap := c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active", snap.State)
	}
	if snap.Question == nil || snap.Question.ID != "q-1" || snap.Question.Ordinal != 1 {
		t.Errorf("unexpected question: %+v", snap.Question)
	}
	if snap.Session.ID != "t-1" || snap.Session.Topic != "React" {
		t.Errorf("unexpected session: %+v", snap.Session)
	}
	if snap.ElapsedSeconds != 0 {
		t.Errorf("ElapsedSeconds = %d, want 0 at question start", snap.ElapsedSeconds)
	}
}

func TestStartValidatesInput(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		difficulty models.Difficulty
	}{
		{name: "empty topic", topic: "", difficulty: models.DifficultyEasy},
		{name: "whitespace topic", topic: "   ", difficulty: models.DifficultyEasy},
		{name: "bad difficulty", topic: "React", difficulty: models.Difficulty("Extreme")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			c := newTestController(backend)

			if err := c.Start(context.Background(), tt.topic, tt.difficulty); err == nil {
				t.Fatal("Start() expected validation error, got nil")
			}
			if backend.startCalls != 0 {
				t.Errorf("backend called %d times, want 0 for local validation failure", backend.startCalls)
			}
			if c.State() != models.StateConfiguring {
				t.Errorf("State = %v, want configuring after rejection", c.State())
			}
		})
	}
}

func TestStartFailureStaysConfiguring(t *testing.T) {
	backend := &fakeBackend{
		startFn: func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := newTestController(backend)

	if err := c.Start(context.Background(), "React", models.DifficultyEasy); err == nil {
		t.Fatal("Start() expected error, got nil")
	}
	if c.State() != models.StateConfiguring {
		t.Errorf("State = %v, want configuring after network failure", c.State())
	}

	// A manual retry works.
	backend.startFn = nil
	if err := c.Start(context.Background(), "React", models.DifficultyEasy); err != nil {
		t.Fatalf("retry Start() unexpected error: %v", err)
	}
	if c.State() != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active after retry", c.State())
	}
}

func TestStartSessionIDFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		resp   *api.StartQuestionResponse
		wantID string
	}{
		{
			name:   "testId preferred",
			resp:   &api.StartQuestionResponse{TestID: "t-9", QuestionID: "q-9", Question: "Q"},
			wantID: "t-9",
		},
		{
			name:   "questionId fallback",
			resp:   &api.StartQuestionResponse{QuestionID: "q-9", Question: "Q"},
			wantID: "q-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				startFn: func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
					return tt.resp, nil
				},
			}
			c := startedController(t, backend)

			if got := c.Snapshot().Session.ID; got != tt.wantID {
				t.Errorf("Session.ID = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestStartGeneratesSessionIDWhenMissing(t *testing.T) {
	backend := &fakeBackend{
		startFn: func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
			return &api.StartQuestionResponse{Question: "Q"}, nil
		},
	}
	c := startedController(t, backend)

	if got := c.Snapshot().Session.ID; got == "" {
		t.Error("Session.ID should be generated when the backend provides none")
	}
}

func TestSubmitRejectedWithoutAnswer(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	err := c.SubmitAndAdvance(context.Background())
	if !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("SubmitAndAdvance() error = %v, want ErrNoAnswer", err)
	}

	snap := c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active (no state change on rejection)", snap.State)
	}
	if snap.AnsweredCount != 0 {
		t.Errorf("AnsweredCount = %d, want 0", snap.AnsweredCount)
	}
	if backend.submitCalls != 0 {
		t.Errorf("submit called %d times, want 0", backend.submitCalls)
	}
}

func TestSubmitAndAdvanceTypedAnswer(t *testing.T) {
	backend := &fakeBackend{}
	backend.startFn = func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
		if backend.startCalls == 1 {
			return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "What are hooks?"}, nil
		}
		return &api.StartQuestionResponse{QuestionID: "q-2", Question: "Explain context"}, nil
	}
	backend.submitFn = func(questionID, answer, testID string, questionNumber int) (*api.AnswerResponse, error) {
		if questionID != "q-1" || testID != "t-1" || questionNumber != 1 {
			t.Errorf("unexpected submit args: %s %s %d", questionID, testID, questionNumber)
		}
		if answer != "Hooks manage state" {
			t.Errorf("answer = %q, want typed text", answer)
		}
		return &api.AnswerResponse{Score: 8.5, Feedback: "Nice"}, nil
	}

	c := startedController(t, backend)
	c.timer.tick()
	c.timer.tick()

	if err := c.SetAnswerText("Hooks manage state"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err != nil {
		t.Fatalf("SubmitAndAdvance() unexpected error: %v", err)
	}

	records := c.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Score != 8.5 || r.Feedback != "Nice" {
		t.Errorf("record should carry backend score/feedback, got %+v", r)
	}
	if r.ElapsedSeconds != 2 {
		t.Errorf("ElapsedSeconds = %d, want 2 (frozen at submission)", r.ElapsedSeconds)
	}
	if r.Modality != models.ModalityText {
		t.Errorf("Modality = %v, want text", r.Modality)
	}

	snap := c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active with next question", snap.State)
	}
	if snap.Question == nil || snap.Question.ID != "q-2" || snap.Question.Ordinal != 2 {
		t.Errorf("unexpected next question: %+v", snap.Question)
	}
	if snap.AnswerText != "" {
		t.Errorf("AnswerText = %q, want cleared", snap.AnswerText)
	}
	if snap.ElapsedSeconds != 0 {
		t.Errorf("ElapsedSeconds = %d, want 0 (timer reset for next question)", snap.ElapsedSeconds)
	}
}

func TestSubmitVoiceAnswerUsesEvaluation(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	err := c.ApplyVoiceEvaluation("q-1", models.VoiceEvaluation{
		Transcript:   "Inheritance lets...",
		OverallScore: 6,
		Feedback:     "Good clarity",
	})
	if err != nil {
		t.Fatalf("ApplyVoiceEvaluation() unexpected error: %v", err)
	}

	// The transcript is copied into the empty answer field; clear it again
	// to force the voice path on merge.
	if err := c.SetAnswerText(""); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}

	if err := c.SubmitAndAdvance(context.Background()); err != nil {
		t.Fatalf("SubmitAndAdvance() unexpected error: %v", err)
	}

	records := c.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.SubmittedText != "Inheritance lets..." {
		t.Errorf("SubmittedText = %q, want transcript", r.SubmittedText)
	}
	if r.Score != 6 || r.Feedback != "Good clarity" {
		t.Errorf("voice evaluation should be authoritative, got %+v", r)
	}
	if r.Modality != models.ModalityVoice {
		t.Errorf("Modality = %v, want voice", r.Modality)
	}

	if snap := c.Snapshot(); snap.Voice != nil {
		t.Error("voice evaluation should be cleared after submission")
	}
}

func TestVoiceTranscriptCopiedIntoEmptyAnswer(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	err := c.ApplyVoiceEvaluation("q-1", models.VoiceEvaluation{Transcript: "spoken words", OverallScore: 5})
	if err != nil {
		t.Fatalf("ApplyVoiceEvaluation() unexpected error: %v", err)
	}

	if got := c.Snapshot().AnswerText; got != "spoken words" {
		t.Errorf("AnswerText = %q, want transcript copied in", got)
	}
}

func TestVoiceEvaluationForSupersededQuestionDiscarded(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	err := c.ApplyVoiceEvaluation("q-stale", models.VoiceEvaluation{Transcript: "late", OverallScore: 4})
	if err != nil {
		t.Fatalf("ApplyVoiceEvaluation() unexpected error: %v", err)
	}

	snap := c.Snapshot()
	if snap.Voice != nil {
		t.Error("stale evaluation should not be installed")
	}
	if snap.AnswerText != "" {
		t.Errorf("AnswerText = %q, want untouched", snap.AnswerText)
	}
}

func TestSubmitFailureRollsBackToQuestionActive(t *testing.T) {
	backend := &fakeBackend{
		submitFn: func(string, string, string, int) (*api.AnswerResponse, error) {
			return nil, errors.New("connection reset")
		},
	}
	c := startedController(t, backend)
	c.timer.tick()

	if err := c.SetAnswerText("answer"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err == nil {
		t.Fatal("SubmitAndAdvance() expected error, got nil")
	}

	snap := c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active after rollback", snap.State)
	}
	if snap.AnsweredCount != 0 {
		t.Errorf("AnsweredCount = %d, want 0 (nothing recorded)", snap.AnsweredCount)
	}
	if snap.AnswerText != "answer" {
		t.Errorf("AnswerText = %q, want preserved for retry", snap.AnswerText)
	}
	if snap.ElapsedSeconds != 1 {
		t.Errorf("ElapsedSeconds = %d, want 1 (not reset on rollback)", snap.ElapsedSeconds)
	}

	// A plain retry is safe and records exactly one answer.
	backend.submitFn = nil
	if err := c.SubmitAndAdvance(context.Background()); err != nil {
		t.Fatalf("retry SubmitAndAdvance() unexpected error: %v", err)
	}
	if got := c.Snapshot().AnsweredCount; got != 1 {
		t.Errorf("AnsweredCount = %d, want 1 after retry", got)
	}
}

func TestAdvanceFailureAllowsRetry(t *testing.T) {
	backend := &fakeBackend{}
	backend.startFn = func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
		switch backend.startCalls {
		case 1:
			return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "Q1"}, nil
		case 2:
			return nil, errors.New("gateway timeout")
		default:
			return &api.StartQuestionResponse{QuestionID: "q-2", Question: "Q2"}, nil
		}
	}
	c := startedController(t, backend)

	if err := c.SetAnswerText("answer"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err == nil {
		t.Fatal("SubmitAndAdvance() expected advance error, got nil")
	}

	snap := c.Snapshot()
	if snap.State != models.StateSubmitting {
		t.Errorf("State = %v, want submitting while advance is pending", snap.State)
	}
	if !snap.PendingAdvance {
		t.Error("PendingAdvance should be set")
	}
	if snap.AnsweredCount != 1 {
		t.Errorf("AnsweredCount = %d, want 1 (answer was accepted)", snap.AnsweredCount)
	}

	// Submitting again would duplicate the record and is rejected.
	if err := c.SubmitAndAdvance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SubmitAndAdvance() error = %v, want ErrInvalidState", err)
	}

	if err := c.RetryAdvance(context.Background()); err != nil {
		t.Fatalf("RetryAdvance() unexpected error: %v", err)
	}

	snap = c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active after retry", snap.State)
	}
	if snap.Question == nil || snap.Question.ID != "q-2" {
		t.Errorf("unexpected question after retry: %+v", snap.Question)
	}
	if backend.submitCalls != 1 {
		t.Errorf("submit called %d times, want 1 (answer not re-sent)", backend.submitCalls)
	}
}

func TestRetryAdvanceRequiresPendingAdvance(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	if err := c.RetryAdvance(context.Background()); !errors.Is(err, ErrNoRetry) {
		t.Errorf("RetryAdvance() error = %v, want ErrNoRetry", err)
	}
}

func TestEndComputesSummary(t *testing.T) {
	backend := &fakeBackend{}
	backend.submitFn = func(_, _, _ string, n int) (*api.AnswerResponse, error) {
		return &api.AnswerResponse{Score: float64(6 + n), Feedback: "ok"}, nil
	}
	c := startedController(t, backend)

	for i := 0; i < 2; i++ {
		c.timer.tick()
		if err := c.SetAnswerText("answer"); err != nil {
			t.Fatalf("SetAnswerText() unexpected error: %v", err)
		}
		if err := c.SubmitAndAdvance(context.Background()); err != nil {
			t.Fatalf("SubmitAndAdvance() unexpected error: %v", err)
		}
	}

	summary, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}

	if c.State() != models.StateEnded {
		t.Errorf("State = %v, want ended", c.State())
	}
	// Scores were 7 and 8: mean 7.5.
	if summary.AverageScore != 7.5 {
		t.Errorf("AverageScore = %v, want 7.5", summary.AverageScore)
	}
	if summary.TotalElapsedSeconds != 2 {
		t.Errorf("TotalElapsedSeconds = %d, want 2", summary.TotalElapsedSeconds)
	}
	if summary.ExcellentCount != 1 {
		t.Errorf("ExcellentCount = %d, want 1", summary.ExcellentCount)
	}
	if backend.completeCalls != 1 {
		t.Errorf("complete called %d times, want 1", backend.completeCalls)
	}
	if backend.lastSummary.AverageScore != 7.5 {
		t.Errorf("summary sent to backend = %+v", backend.lastSummary)
	}
}

func TestEndWithNoRecordsYieldsZeroAverage(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	summary, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}
	if summary.AverageScore != 0 {
		t.Errorf("AverageScore = %v, want 0 for empty session", summary.AverageScore)
	}
	if len(summary.Records) != 0 {
		t.Errorf("Records length = %d, want 0", len(summary.Records))
	}
}

func TestEndTransitionsEvenWhenPersistFails(t *testing.T) {
	backend := &fakeBackend{
		completeFn: func(models.SessionSummary) error {
			return errors.New("service unavailable")
		},
	}
	c := startedController(t, backend)

	summary, err := c.End(context.Background())
	if err == nil {
		t.Fatal("End() expected informational error, got nil")
	}
	if summary == nil {
		t.Fatal("End() should return the summary even when persistence fails")
	}
	if c.State() != models.StateEnded {
		t.Errorf("State = %v, want ended regardless of persistence failure", c.State())
	}
}

func TestEndValidFromSubmitting(t *testing.T) {
	backend := &fakeBackend{}
	backend.startFn = func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
		if backend.startCalls == 1 {
			return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "Q1"}, nil
		}
		return nil, errors.New("gateway timeout")
	}
	c := startedController(t, backend)

	if err := c.SetAnswerText("answer"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err == nil {
		t.Fatal("expected advance failure")
	}

	summary, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}
	if len(summary.Records) != 1 {
		t.Errorf("Records length = %d, want 1 (accepted answer kept)", len(summary.Records))
	}
}

func TestNoTicksAfterEnd(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)
	c.timer.tick()

	if _, err := c.End(context.Background()); err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}

	c.timer.tick()
	c.timer.tick()

	if got := c.Snapshot().ElapsedSeconds; got != 1 {
		t.Errorf("ElapsedSeconds = %d, want 1 (no post-end ticks)", got)
	}
}

func TestNoTicksWhileSubmitting(t *testing.T) {
	backend := &fakeBackend{
		submitFn: func(string, string, string, int) (*api.AnswerResponse, error) {
			return nil, errors.New("down")
		},
	}
	backend.startFn = func(string, models.Difficulty) (*api.StartQuestionResponse, error) {
		if backend.startCalls == 1 {
			return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "Q1"}, nil
		}
		return nil, errors.New("down")
	}
	c := startedController(t, backend)

	if err := c.SetAnswerText("answer"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	backend.submitFn = nil // let the submit succeed, fail the advance
	if err := c.SubmitAndAdvance(context.Background()); err == nil {
		t.Fatal("expected advance failure")
	}

	// Stuck in submitting: the gate is closed, ticks are dropped.
	c.timer.tick()
	c.timer.tick()
	if got := c.Snapshot().ElapsedSeconds; got != 0 {
		t.Errorf("ElapsedSeconds = %d, want 0 while submitting", got)
	}
}

func TestMutationRejectedAfterEnd(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)
	if _, err := c.End(context.Background()); err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}

	if err := c.SetAnswerText("late"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetAnswerText() error = %v, want ErrInvalidState", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SubmitAndAdvance() error = %v, want ErrInvalidState", err)
	}
	if _, err := c.End(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second End() error = %v, want ErrInvalidState", err)
	}
}

func TestNewSessionAfterEnd(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)
	if err := c.SetAnswerText("answer"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err != nil {
		t.Fatalf("SubmitAndAdvance() unexpected error: %v", err)
	}
	if _, err := c.End(context.Background()); err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}

	if err := c.Start(context.Background(), "Linux", models.DifficultyHard); err != nil {
		t.Fatalf("Start() after end unexpected error: %v", err)
	}

	snap := c.Snapshot()
	if snap.State != models.StateQuestionActive {
		t.Errorf("State = %v, want question_active", snap.State)
	}
	if snap.AnsweredCount != 0 {
		t.Errorf("AnsweredCount = %d, want 0 (old records discarded)", snap.AnsweredCount)
	}
	if snap.Session.Topic != "Linux" {
		t.Errorf("Topic = %q, want Linux", snap.Session.Topic)
	}
}

func TestVoiceTarget(t *testing.T) {
	backend := &fakeBackend{}
	c := startedController(t, backend)

	questionID, sessionID, n, err := c.VoiceTarget()
	if err != nil {
		t.Fatalf("VoiceTarget() unexpected error: %v", err)
	}
	if questionID != "q-1" || sessionID != "t-1" || n != 1 {
		t.Errorf("VoiceTarget() = %q %q %d, want q-1 t-1 1", questionID, sessionID, n)
	}

	if _, err := c.End(context.Background()); err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}
	if _, _, _, err := c.VoiceTarget(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("VoiceTarget() after end error = %v, want ErrInvalidState", err)
	}
}

// Full session walkthrough: start, answer by typing, advance, end.
func TestSessionEndToEnd(t *testing.T) {
	backend := &fakeBackend{}
	backend.startFn = func(topic string, difficulty models.Difficulty) (*api.StartQuestionResponse, error) {
		if topic != "React" || difficulty != models.DifficultyEasy {
			t.Errorf("unexpected start args: %s %s", topic, difficulty)
		}
		if backend.startCalls == 1 {
			return &api.StartQuestionResponse{TestID: "t-1", QuestionID: "q-1", Question: "Q1"}, nil
		}
		return &api.StartQuestionResponse{QuestionID: "q-2", Question: "Q2"}, nil
	}
	backend.submitFn = func(string, string, string, int) (*api.AnswerResponse, error) {
		return &api.AnswerResponse{Score: 7, Feedback: "ok"}, nil
	}

	c := startedController(t, backend)
	c.timer.tick()
	c.timer.tick()
	c.timer.tick()

	if err := c.SetAnswerText("Hooks manage state"); err != nil {
		t.Fatalf("SetAnswerText() unexpected error: %v", err)
	}
	if err := c.SubmitAndAdvance(context.Background()); err != nil {
		t.Fatalf("SubmitAndAdvance() unexpected error: %v", err)
	}

	snap := c.Snapshot()
	if snap.Question == nil || snap.Question.ID != "q-2" {
		t.Fatalf("expected Q2 loaded, got %+v", snap.Question)
	}
	if snap.ElapsedSeconds != 0 {
		t.Errorf("timer not reset: %d", snap.ElapsedSeconds)
	}

	summary, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End() unexpected error: %v", err)
	}
	if len(summary.Records) != 1 {
		t.Fatalf("Records length = %d, want 1", len(summary.Records))
	}
	r := summary.Records[0]
	if r.ElapsedSeconds != 3 || r.Modality != models.ModalityText {
		t.Errorf("unexpected record: %+v", r)
	}
	if summary.AverageScore != r.Score {
		t.Errorf("AverageScore = %v, want %v", summary.AverageScore, r.Score)
	}
}
