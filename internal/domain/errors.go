package domain

import (
	"errors"
	"strings"
)

var (
	// ErrQuizNotFound is returned when a quiz does not exist or belongs to another user.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionSetNotFound indicates the requested question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates a question id could not be resolved.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option position is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionIndexOutOfRange is returned when navigating outside the quiz.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrQuizCompleted is returned when acting on a quiz that has already been finalized.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrQuizInProgress is returned when results are requested before completion.
	ErrQuizInProgress = errors.New("quiz still in progress")
	// ErrAnswerExists is returned when an answer for the same quiz position was already stored.
	ErrAnswerExists = errors.New("answer already recorded for question")
	// ErrSubmissionInProgress rejects a duplicate action while a store write is pending.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrNotLastQuestion is returned when finishing before reaching the last question.
	ErrNotLastQuestion = errors.New("quiz can only be finished on the last question")
	// ErrTimeExpired rejects answer changes once the attempt's countdown reached zero.
	ErrTimeExpired = errors.New("quiz time expired")
	// ErrSessionNotReady is returned when a session is used before its questions are loaded.
	ErrSessionNotReady = errors.New("quiz session not ready")
	// ErrQuestionsUnavailable is fatal to a session: the fixed question sequence could not be resolved.
	ErrQuestionsUnavailable = errors.New("quiz questions unavailable")
	// ErrInvalidCursor is returned for a malformed pagination token.
	ErrInvalidCursor = errors.New("invalid pagination token")
	// ErrUnauthenticated is returned when no valid user identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// FieldError describes a single invalid field of a record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field-level errors of a rejected write.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil returns nil when no field errors were collected.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err carries field-level errors.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
