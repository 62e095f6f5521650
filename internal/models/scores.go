package models

import "fmt"

// Score banding thresholds used across the UI
const (
	GoodScoreThreshold   = 8.0
	MediumScoreThreshold = 5.0
)

// Per-question timer thresholds (seconds) before the display switches to
// warning and danger styling
const (
	TimerWarningSeconds = 180
	TimerDangerSeconds  = 300
)

// ScoreLevel returns the band a score falls into: "good", "medium" or "bad"
func ScoreLevel(score float64) string {
	switch {
	case score >= GoodScoreThreshold:
		return "good"
	case score >= MediumScoreThreshold:
		return "medium"
	default:
		return "bad"
	}
}

// ScoreLabel returns the human-readable label for a score band
func ScoreLabel(score float64) string {
	switch {
	case score >= GoodScoreThreshold:
		return "Excellent"
	case score >= MediumScoreThreshold:
		return "Solid"
	default:
		return "Needs Work"
	}
}

// FormatSeconds renders a second count as m:ss
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
