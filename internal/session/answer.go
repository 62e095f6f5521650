package session

import (
	"errors"
	"strings"

	"interviewcoach/internal/models"
)

// ErrNoAnswer is returned when neither typed text nor a completed voice
// evaluation is available at submission time
var ErrNoAnswer = errors.New("no answer provided")

// DefaultVoiceFeedback is used when a voice evaluation carries no feedback
const DefaultVoiceFeedback = "Voice-based evaluation"

// MergedAnswer is the submittable unit produced from the typed text field
// and any pending voice evaluation
type MergedAnswer struct {
	Text     string
	Score    float64
	Feedback string
	Modality models.Modality

	// HasScore is true when the score/feedback are already known (voice
	// evaluations score up front); typed answers are scored by the backend
	// on submission.
	HasScore bool
}

// MergeAnswer applies the submission-time merge rule: non-empty typed text
// is authoritative; otherwise a voice evaluation's transcript, overall
// score and feedback are used. With neither, the submission is rejected.
func MergeAnswer(typed string, voice *models.VoiceEvaluation) (MergedAnswer, error) {
	if strings.TrimSpace(typed) != "" {
		return MergedAnswer{
			Text:     typed,
			Modality: models.ModalityText,
		}, nil
	}

	if voice != nil {
		feedback := voice.Feedback
		if feedback == "" {
			feedback = DefaultVoiceFeedback
		}
		return MergedAnswer{
			Text:     voice.Transcript,
			Score:    voice.OverallScore,
			Feedback: feedback,
			Modality: models.ModalityVoice,
			HasScore: true,
		}, nil
	}

	return MergedAnswer{}, ErrNoAnswer
}
