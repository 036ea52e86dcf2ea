package app

import (
	"context"

	"quiz-generator-service/internal/domain"
)

// QuestionSetRepository stores question sets.
type QuestionSetRepository interface {
	CreateQuestionSet(ctx context.Context, set domain.QuestionSet) (domain.QuestionSet, error)
	GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
	ListQuestionSets(ctx context.Context, filter domain.QuestionSetFilter, page domain.PageRequest) (domain.Page[domain.QuestionSet], error)
}

// QuestionLoader resolves a single question by id (store, cache, ...).
type QuestionLoader interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionRepository stores questions.
type QuestionRepository interface {
	QuestionLoader
	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	ListQuestions(ctx context.Context, questionSetID string, page domain.PageRequest) (domain.Page[domain.Question], error)
}

// QuizRepository stores quiz attempts, scoped to their owner.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	GetQuiz(ctx context.Context, owner, id string) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, owner string, filter domain.QuizFilter, page domain.PageRequest) (domain.Page[domain.Quiz], error)
}

// AnswerRepository stores quiz answers, scoped to their owner.
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer domain.QuizAnswer) (domain.QuizAnswer, error)
	ListAnswers(ctx context.Context, owner, quizID string, page domain.PageRequest) (domain.Page[domain.QuizAnswer], error)
}

// Store is the full data collaborator.
type Store interface {
	QuestionSetRepository
	QuestionRepository
	QuizRepository
	AnswerRepository
}

// SessionRepository keeps live quiz sessions (in-memory, Redis-marked, ...).
type SessionRepository interface {
	Get(quizID string) (*Session, bool)
	Put(session *Session)
	Delete(quizID string)
	// Evict removes every session matching pred and returns how many were removed.
	Evict(pred func(*Session) bool) int
}

// EventPublisher announces quiz lifecycle events to other systems.
type EventPublisher interface {
	QuizStarted(ctx context.Context, quiz domain.Quiz) error
	QuizCompleted(ctx context.Context, quiz domain.Quiz) error
}

// ListAll drains a paginated listing.
func ListAll[T any](ctx context.Context, pageSize int, list func(context.Context, domain.PageRequest) (domain.Page[T], error)) ([]T, error) {
	var all []T
	req := domain.PageRequest{Limit: pageSize}
	for {
		page, err := list(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextToken == "" {
			return all, nil
		}
		req.NextToken = page.NextToken
	}
}
