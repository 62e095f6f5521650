package models

import "time"

// Difficulty is the requested difficulty of a practice session
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// IsValid reports whether the difficulty is one of the known levels
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// SessionState models the lifecycle of a practice session
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateConfiguring    SessionState = "configuring"
	StateQuestionActive SessionState = "question_active"
	StateSubmitting     SessionState = "submitting"
	StateEnding         SessionState = "ending"
	StateEnded          SessionState = "ended"
)

// Session represents one continuous practice run over a topic/difficulty
type Session struct {
	ID         string
	Topic      string
	Difficulty Difficulty
	StartedAt  time.Time
}

// Question is the question currently being answered. At most one question
// is current at any time; it is superseded by the next fetched question.
type Question struct {
	ID      string
	Text    string
	Ordinal int // 1-based position in the session
}

// Modality identifies whether an answer originated as typed text or
// transcribed speech
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// AnswerRecord is the persisted outcome of one answered question.
// Immutable after creation.
type AnswerRecord struct {
	Question       Question
	SubmittedText  string
	Score          float64
	Feedback       string
	ElapsedSeconds int
	Modality       Modality
}

// VoiceEvaluation is the server-side scoring of one recorded answer.
// Produced once per completed recording and consumed at most once.
type VoiceEvaluation struct {
	Transcript   string
	ContentScore float64
	GrammarScore float64
	FluencyScore float64
	KeywordScore float64
	ClarityScore float64
	OverallScore float64
	Feedback     string
}

// SessionSummary is the aggregate result of an ended session
type SessionSummary struct {
	Topic               string
	Difficulty          Difficulty
	AverageScore        float64 // mean of record scores, one decimal
	TotalElapsedSeconds int
	ExcellentCount      int // records scoring >= 8
	Records             []AnswerRecord
	FinishedAt          time.Time
}
