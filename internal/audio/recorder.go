package audio

import (
	"context"
	"errors"
)

// Recorder errors
var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Recorder captures microphone audio. Start begins a capture and Stop ends
// it and returns the recorded bytes as a WAV payload.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}
