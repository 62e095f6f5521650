package validation

import (
	"fmt"
	"strings"

	"interviewcoach/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTopic checks that a session topic is usable
func ValidateTopic(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ValidationError{Field: "topic", Message: "topic is required"}
	}
	if len(topic) > 100 {
		return ValidationError{Field: "topic", Message: "topic must be at most 100 characters"}
	}
	return nil
}

// ValidateDifficulty checks that a difficulty is one of the known levels
func ValidateDifficulty(difficulty models.Difficulty) error {
	if !difficulty.IsValid() {
		return ValidationError{Field: "difficulty", Message: "difficulty must be Easy, Medium or Hard"}
	}
	return nil
}

// ValidateEmail performs a minimal sanity check on a login email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(email, "@") {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}
