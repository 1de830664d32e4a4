package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ValidationError
type ErrorKind string

const (
	KindUnknownQuestionType     ErrorKind = "UnknownQuestionType"
	KindIncompleteQuestion      ErrorKind = "IncompleteQuestion"
	KindEmptyTitleOrDescription ErrorKind = "EmptyTitleOrDescription"
	KindMissingRequiredAnswer   ErrorKind = "MissingRequiredAnswer"
	KindInvalidRatingScale      ErrorKind = "InvalidRatingScale"
	KindInvalidAnswer           ErrorKind = "InvalidAnswer"
	KindInvalidField            ErrorKind = "InvalidField"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrWrongSessionKind = errors.New("session has a different kind")
)

// ValidationError is returned for every user-correctable failure.
// The draft it was raised for is never modified.
type ValidationError struct {
	Kind       ErrorKind
	QuestionID QuestionID
	Message    string
}

func (e *ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("%s (question %s): %s", e.Kind, e.QuestionID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches another ValidationError of the same kind, so callers can write
// errors.Is(err, &entity.ValidationError{Kind: entity.KindIncompleteQuestion}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newValidationError(kind ErrorKind, id QuestionID, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:       kind,
		QuestionID: id,
		Message:    fmt.Sprintf(format, args...),
	}
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(kind ErrorKind, id QuestionID, format string, args ...any) *ValidationError {
	return newValidationError(kind, id, format, args...)
}

// KindOf returns the kind of a ValidationError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}
