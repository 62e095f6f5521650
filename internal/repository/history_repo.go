package repository

import (
	"fmt"

	"interviewcoach/internal/database"
	"interviewcoach/internal/models"
)

// HistoryRepository persists finished sessions locally so past results can
// be reviewed without the backend.
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// HistoryEntry is a stored session summary with its database ID
type HistoryEntry struct {
	ID int64
	models.SessionSummary
}

// SaveSummary stores a finished session and its answers, returning the new
// session's ID.
func (r *HistoryRepository) SaveSummary(summary models.SessionSummary) (int64, error) {
	query := `
		INSERT INTO sessions (topic, difficulty, average_score, total_seconds, excellent_count, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		summary.Topic,
		string(summary.Difficulty),
		summary.AverageScore,
		summary.TotalElapsedSeconds,
		summary.ExcellentCount,
		summary.FinishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}

	answerQuery := `
		INSERT INTO session_answers (session_id, ordinal, question, answer, score, feedback, seconds, modality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, record := range summary.Records {
		_, err := r.db.Exec(answerQuery,
			id,
			record.Question.Ordinal,
			record.Question.Text,
			record.SubmittedText,
			record.Score,
			record.Feedback,
			record.ElapsedSeconds,
			string(record.Modality),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save answer: %w", err)
		}
	}

	return id, nil
}

// GetByID retrieves a stored session with all its answers
func (r *HistoryRepository) GetByID(id int64) (*HistoryEntry, error) {
	query := `
		SELECT id, topic, difficulty, average_score, total_seconds, excellent_count, finished_at
		FROM sessions
		WHERE id = ?
	`

	entry := &HistoryEntry{}
	var difficulty string
	err := r.db.QueryRow(query, id).Scan(
		&entry.ID,
		&entry.Topic,
		&difficulty,
		&entry.AverageScore,
		&entry.TotalElapsedSeconds,
		&entry.ExcellentCount,
		&entry.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Difficulty = models.Difficulty(difficulty)

	answerQuery := `
		SELECT ordinal, question, answer, score, feedback, seconds, modality
		FROM session_answers
		WHERE session_id = ?
		ORDER BY ordinal ASC
	`
	rows, err := r.db.Query(answerQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var record models.AnswerRecord
		var modality string
		err := rows.Scan(
			&record.Question.Ordinal,
			&record.Question.Text,
			&record.SubmittedText,
			&record.Score,
			&record.Feedback,
			&record.ElapsedSeconds,
			&modality,
		)
		if err != nil {
			return nil, err
		}
		record.Modality = models.Modality(modality)
		entry.Records = append(entry.Records, record)
	}

	return entry, rows.Err()
}

// ListRecent retrieves the most recently finished sessions, newest first.
// The answers are not loaded; use GetByID for the full session.
func (r *HistoryRepository) ListRecent(limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, topic, difficulty, average_score, total_seconds, excellent_count, finished_at
		FROM sessions
		ORDER BY finished_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var difficulty string
		err := rows.Scan(
			&entry.ID,
			&entry.Topic,
			&difficulty,
			&entry.AverageScore,
			&entry.TotalElapsedSeconds,
			&entry.ExcellentCount,
			&entry.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Difficulty = models.Difficulty(difficulty)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
