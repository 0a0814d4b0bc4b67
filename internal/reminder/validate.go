package reminder

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Title length bounds, inclusive, counted in characters.
const (
	MinTitleLength = 3
	MaxTitleLength = 50
)

// ValidationErrorCode categorizes validation failures.
type ValidationErrorCode string

const (
	// ErrCodeTitleLength indicates the title is empty, too short or too long.
	ErrCodeTitleLength ValidationErrorCode = "TITLE_LENGTH"

	// ErrCodeTriggerMissing indicates the trigger time was not set.
	ErrCodeTriggerMissing ValidationErrorCode = "TRIGGER_MISSING"

	// ErrCodeTriggerInPast indicates the trigger time is before now.
	ErrCodeTriggerInPast ValidationErrorCode = "TRIGGER_IN_PAST"
)

// ValidationError reports why a candidate reminder was rejected.
type ValidationError struct {
	Code    ValidationErrorCode
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
}

// IsValidationError returns true if err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TitleLength returns the title length in characters after NFC normalization,
// so a precomposed and a decomposed "é" count the same.
func TitleLength(title string) int {
	return utf8.RuneCountInString(norm.NFC.String(title))
}

// Validate checks a candidate reminder against the business rules:
//  1. Title length within [MinTitleLength, MaxTitleLength]
//  2. Trigger time set and not before now (equal to now is accepted)
//
// Validate is a pure function with no side effects.
func Validate(r Reminder, now time.Time) error {
	if n := TitleLength(r.Title); n < MinTitleLength || n > MaxTitleLength {
		return &ValidationError{
			Code:    ErrCodeTitleLength,
			Field:   "title",
			Message: fmt.Sprintf("title must be %d-%d characters, got %d", MinTitleLength, MaxTitleLength, n),
		}
	}

	if r.TriggerTime.IsZero() {
		return &ValidationError{
			Code:    ErrCodeTriggerMissing,
			Field:   "trigger_time",
			Message: "trigger time is required",
		}
	}

	if r.TriggerTime.Before(now) {
		return &ValidationError{
			Code:    ErrCodeTriggerInPast,
			Field:   "trigger_time",
			Message: fmt.Sprintf("trigger time %s is before now", r.TriggerTime.Format(time.RFC3339)),
		}
	}

	return nil
}

// Valid is the boolean form of Validate.
func Valid(r Reminder, now time.Time) bool {
	return Validate(r, now) == nil
}
