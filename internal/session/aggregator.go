package session

import (
	"math"
	"time"

	"interviewcoach/internal/models"
)

// Summarize computes the session-level summary from the ordered sequence of
// answer records. The average is the arithmetic mean of record scores
// rounded to one decimal, or zero when no records exist.
func Summarize(sess models.Session, records []models.AnswerRecord, finishedAt time.Time) models.SessionSummary {
	summary := models.SessionSummary{
		Topic:      sess.Topic,
		Difficulty: sess.Difficulty,
		Records:    records,
		FinishedAt: finishedAt,
	}

	if len(records) == 0 {
		return summary
	}

	total := 0.0
	for _, r := range records {
		total += r.Score
		summary.TotalElapsedSeconds += r.ElapsedSeconds
		if r.Score >= models.GoodScoreThreshold {
			summary.ExcellentCount++
		}
	}

	summary.AverageScore = math.Round(total/float64(len(records))*10) / 10

	return summary
}
