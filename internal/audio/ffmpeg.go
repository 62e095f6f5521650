package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"interviewcoach/internal/config"
)

// FFmpegRecorder captures microphone audio by running ffmpeg against the
// platform capture device (alsa, avfoundation or dshow). The recording is
// written to a temporary WAV file and read back on Stop.
type FFmpegRecorder struct {
	format string
	device string
	logger *zap.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	path string
}

// NewFFmpegRecorder creates a recorder for the configured capture device
func NewFFmpegRecorder(cfg *config.Config, logger *zap.Logger) *FFmpegRecorder {
	return &FFmpegRecorder{
		format: cfg.AudioFormat,
		device: cfg.AudioDevice,
		logger: logger,
	}
}

// Start launches ffmpeg recording from the capture device. Returns
// ErrAlreadyRecording when a capture is still running.
func (r *FFmpegRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}

	tmp, err := os.CreateTemp("", "interview-voice-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}
	tmp.Close()

	// Mono 16kHz PCM keeps uploads small and is what speech evaluation
	// expects.
	cmd := ffmpeg.Input(r.device, ffmpeg.KwArgs{"f": r.format}).
		Output(tmp.Name(), ffmpeg.KwArgs{
			"acodec": "pcm_s16le",
			"ar":     "16000",
			"ac":     "1",
		}).
		OverWriteOutput().
		Compile()
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to start microphone capture: %w", err)
	}

	r.cmd = cmd
	r.path = tmp.Name()
	r.logger.Debug("microphone capture started",
		zap.String("format", r.format),
		zap.String("device", r.device))

	// Stop capture if the context is cancelled before Stop is called.
	go func() {
		<-ctx.Done()
		r.mu.Lock()
		cmd := r.cmd
		r.mu.Unlock()
		if cmd != nil && cmd.Process != nil {
			cmd.Process.Signal(os.Interrupt)
		}
	}()

	return nil
}

// Stop interrupts ffmpeg, waits for it to finalize the WAV file and returns
// the recorded bytes. The temporary file is removed afterwards.
func (r *FFmpegRecorder) Stop() ([]byte, error) {
	r.mu.Lock()
	cmd := r.cmd
	path := r.path
	r.cmd = nil
	r.path = ""
	r.mu.Unlock()

	if cmd == nil {
		return nil, ErrNotRecording
	}
	defer os.Remove(path)

	// SIGINT lets ffmpeg flush and close the container cleanly. It exits
	// non-zero after an interrupt, so that error is expected.
	if cmd.Process != nil {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			cmd.Process.Kill()
		}
	}
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("microphone capture failed: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	r.logger.Debug("microphone capture stopped", zap.Int("bytes", len(data)))
	return data, nil
}
