package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"interviewcoach/internal/api"
	"interviewcoach/internal/models"
)

// Capture errors
var (
	ErrNoVoiceDetected = errors.New("no voice detected, please try again")
	ErrCaptureBusy     = errors.New("a capture is already in progress")
)

// CaptureState tracks the recording flow for display
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureRecording CaptureState = "recording"
	CaptureUploading CaptureState = "uploading"
)

// Uploader sends a finished recording to the backend for evaluation
type Uploader interface {
	SubmitVoice(ctx context.Context, audio []byte, questionID, testID string, questionNumber int) (*api.VoiceResponse, error)
}

// SessionTarget is the slice of the session controller a capture reports
// into: which question a recording belongs to, and where the finished
// evaluation goes.
type SessionTarget interface {
	VoiceTarget() (questionID, sessionID string, questionNumber int, err error)
	ApplyVoiceEvaluation(questionID string, eval models.VoiceEvaluation) error
}

// Capture drives one voice answer at a time: record, stop, size-check,
// upload, and hand the evaluation to the session. Recordings below the
// minimum size are discarded as silence rather than uploaded.
type Capture struct {
	recorder Recorder
	uploader Uploader
	session  SessionTarget
	logger   *zap.Logger
	minSize  int

	mu    sync.Mutex
	state CaptureState

	// identity of the question the active recording was started for
	questionID     string
	sessionID      string
	questionNumber int
}

// NewCapture wires a capture flow. minSize is the smallest upload worth
// evaluating, in bytes; anything shorter is treated as silence.
func NewCapture(recorder Recorder, uploader Uploader, session SessionTarget, minSize int, logger *zap.Logger) *Capture {
	return &Capture{
		recorder: recorder,
		uploader: uploader,
		session:  session,
		logger:   logger,
		minSize:  minSize,
		state:    CaptureIdle,
	}
}

// State returns the current capture state
func (c *Capture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartRecording begins capturing a voice answer for the live question.
// Fails when no question is live or a capture is already running.
func (c *Capture) StartRecording(ctx context.Context) error {
	questionID, sessionID, questionNumber, err := c.session.VoiceTarget()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != CaptureIdle {
		c.mu.Unlock()
		return ErrCaptureBusy
	}
	c.state = CaptureRecording
	c.questionID = questionID
	c.sessionID = sessionID
	c.questionNumber = questionNumber
	c.mu.Unlock()

	if err := c.recorder.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = CaptureIdle
		c.mu.Unlock()
		c.logger.Warn("microphone unavailable", zap.Error(err))
		return fmt.Errorf("microphone unavailable: %w", err)
	}

	c.logger.Info("recording started", zap.String("question_id", questionID))
	return nil
}

// StopAndEvaluate ends the recording, uploads it and applies the resulting
// evaluation to the session. The recording is dropped without an upload
// when it is too short to contain speech.
func (c *Capture) StopAndEvaluate(ctx context.Context) (*models.VoiceEvaluation, error) {
	c.mu.Lock()
	if c.state != CaptureRecording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	c.state = CaptureUploading
	questionID := c.questionID
	sessionID := c.sessionID
	questionNumber := c.questionNumber
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = CaptureIdle
		c.mu.Unlock()
	}()

	audio, err := c.recorder.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to stop recording: %w", err)
	}
	if len(audio) < c.minSize {
		c.logger.Info("recording too short, discarding",
			zap.Int("bytes", len(audio)),
			zap.Int("min_bytes", c.minSize))
		return nil, ErrNoVoiceDetected
	}

	resp, err := c.uploader.SubmitVoice(ctx, audio, questionID, sessionID, questionNumber)
	if err != nil {
		c.logger.Warn("voice evaluation failed", zap.Error(err))
		return nil, fmt.Errorf("voice evaluation failed: %w", err)
	}

	eval := models.VoiceEvaluation{
		Transcript:   resp.Transcript,
		ContentScore: resp.ContentScore,
		GrammarScore: resp.GrammarScore,
		FluencyScore: resp.FluencyScore,
		KeywordScore: resp.KeywordScore,
		ClarityScore: resp.ClarityScore,
		OverallScore: resp.OverallScore,
		Feedback:     resp.Feedback,
	}

	// The session discards the evaluation itself if the question has moved
	// on since the recording started.
	if err := c.session.ApplyVoiceEvaluation(questionID, eval); err != nil {
		return nil, err
	}

	c.logger.Info("voice answer evaluated",
		zap.String("question_id", questionID),
		zap.Float64("overall_score", eval.OverallScore))

	return &eval, nil
}

// Cancel discards an in-progress recording without uploading it
func (c *Capture) Cancel() error {
	c.mu.Lock()
	if c.state != CaptureRecording {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.state = CaptureIdle
	c.mu.Unlock()

	if _, err := c.recorder.Stop(); err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}
	c.logger.Info("recording cancelled")
	return nil
}
