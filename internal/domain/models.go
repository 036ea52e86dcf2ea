package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the declared difficulty of a question set.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty accepts a difficulty in any letter case.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", raw)
	}
	return d, nil
}

// QuizStatus is the lifecycle state of a quiz attempt.
type QuizStatus string

const (
	QuizInProgress QuizStatus = "IN_PROGRESS"
	QuizCompleted  QuizStatus = "COMPLETED"
)

// User is the signed-in identity supplied by the authenticator.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// QuestionSet is a named, categorized collection of candidate questions.
type QuestionSet struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (s QuestionSet) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(s.Name) == "" {
		verr.add("name", "is required")
	}
	if strings.TrimSpace(s.Category) == "" {
		verr.add("category", "is required")
	}
	if s.Difficulty != "" && !s.Difficulty.Valid() {
		verr.add("difficulty", "must be EASY, MEDIUM or HARD")
	}
	return verr.orNil()
}

// Question is an immutable multiple-choice question.
type Question struct {
	ID            string   `json:"id"`
	QuestionSetID string   `json:"questionSetId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correctIndex"`
	Explanation   string   `json:"explanation,omitempty"`
}

func (q Question) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(q.QuestionSetID) == "" {
		verr.add("questionSetId", "is required")
	}
	if strings.TrimSpace(q.Text) == "" {
		verr.add("text", "is required")
	}
	if len(q.Options) < 2 {
		verr.add("options", "at least two options are required")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		verr.add("correctIndex", fmt.Sprintf("must be between 0 and %d", len(q.Options)-1))
	}
	return verr.orNil()
}

// Quiz is one user's timed attempt over a fixed sequence of questions.
type Quiz struct {
	ID                   string     `json:"id"`
	Owner                string     `json:"owner"`
	QuestionSetID        string     `json:"questionSetId"`
	QuestionSetName      string     `json:"questionSetName,omitempty"`
	Status               QuizStatus `json:"status"`
	TotalQuestions       int        `json:"totalQuestions"`
	TimePerQuestion      int        `json:"timePerQuestion"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Score                *int       `json:"score,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	QuestionIDs          []string   `json:"questionIds"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// TimeBudget is the whole-attempt countdown in seconds.
func (q Quiz) TimeBudget() int {
	return q.TimePerQuestion * q.TotalQuestions
}

func (q Quiz) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(q.QuestionSetID) == "" {
		verr.add("questionSetId", "is required")
	}
	if q.TotalQuestions <= 0 {
		verr.add("totalQuestions", "must be positive")
	}
	if len(q.QuestionIDs) != q.TotalQuestions {
		verr.add("questionIds", fmt.Sprintf("expected %d ids, got %d", q.TotalQuestions, len(q.QuestionIDs)))
	}
	if q.TimePerQuestion <= 0 {
		verr.add("timePerQuestion", "must be positive")
	}
	if q.CurrentQuestionIndex < 0 || q.CurrentQuestionIndex > q.TotalQuestions {
		verr.add("currentQuestionIndex", "out of range")
	}
	switch q.Status {
	case QuizInProgress:
		if q.Score != nil {
			verr.add("score", "must be unset while in progress")
		}
	case QuizCompleted:
		if q.Score == nil || *q.Score < 0 || *q.Score > q.TotalQuestions {
			verr.add("score", "must be between 0 and totalQuestions")
		}
	default:
		verr.add("status", "must be IN_PROGRESS or COMPLETED")
	}
	return verr.orNil()
}

// QuizUpdate is a partial update; nil fields are left untouched.
type QuizUpdate struct {
	CurrentQuestionIndex *int
	Status               *QuizStatus
	Score                *int
	CompletedAt          *time.Time
}

// Apply returns a copy of q with the update applied. Completed quizzes are immutable.
func (u QuizUpdate) Apply(q Quiz) (Quiz, error) {
	if q.Status == QuizCompleted {
		return q, ErrQuizCompleted
	}
	if u.CurrentQuestionIndex != nil {
		q.CurrentQuestionIndex = *u.CurrentQuestionIndex
	}
	if u.Status != nil {
		q.Status = *u.Status
	}
	if u.Score != nil {
		score := *u.Score
		q.Score = &score
	}
	if u.CompletedAt != nil {
		at := *u.CompletedAt
		q.CompletedAt = &at
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

// QuizAnswer is the persisted, immutable answer to one quiz position.
// A nil SelectedIndex means no answer was given.
type QuizAnswer struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	QuizID        string    `json:"quizId"`
	QuestionID    string    `json:"questionId"`
	QuestionIndex int       `json:"questionIndex"`
	SelectedIndex *int      `json:"selectedIndex"`
	IsCorrect     bool      `json:"isCorrect"`
	TimeTaken     int       `json:"timeTaken"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a QuizAnswer) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(a.QuizID) == "" {
		verr.add("quizId", "is required")
	}
	if strings.TrimSpace(a.QuestionID) == "" {
		verr.add("questionId", "is required")
	}
	if a.QuestionIndex < 0 {
		verr.add("questionIndex", "must not be negative")
	}
	if a.SelectedIndex != nil && *a.SelectedIndex < 0 {
		verr.add("selectedIndex", "must not be negative")
	}
	if a.SelectedIndex == nil && a.IsCorrect {
		verr.add("isCorrect", "an unanswered question cannot be correct")
	}
	if a.TimeTaken < 0 {
		verr.add("timeTaken", "must not be negative")
	}
	return verr.orNil()
}

// QuestionSetFilter narrows question set listings.
type QuestionSetFilter struct {
	ActiveOnly bool
}

// QuizFilter narrows quiz listings; an empty status matches all.
type QuizFilter struct {
	Status QuizStatus
}
