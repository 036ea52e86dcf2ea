package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-generator-service/internal/countdown"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/shuffle"
)

const (
	DefaultQuestionCount   = 5
	DefaultTimePerQuestion = 60
	MaxQuestionsPerQuiz    = 20
	MaxTimePerQuestion     = 600
)

// CreateQuizParams configures a new attempt. Zero values take the defaults.
type CreateQuizParams struct {
	QuestionSetID   string `json:"questionSetId"`
	QuestionCount   int    `json:"questionCount"`
	TimePerQuestion int    `json:"timePerQuestion"`
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithTicker replaces the wall-clock ticker used by session countdowns.
func WithTicker(fn countdown.TickerFunc) Option {
	return func(s *QuizService) { s.ticker = fn }
}

// WithPerm replaces the option shuffle used by sessions.
func WithPerm(perm func(n int) []int) Option {
	return func(s *QuizService) { s.perm = perm }
}

// WithQuestionLoader routes question lookups through a cache.
func WithQuestionLoader(loader QuestionLoader) Option {
	return func(s *QuizService) { s.questions = loader }
}

// WithEvents publishes quiz lifecycle events.
func WithEvents(events EventPublisher) Option {
	return func(s *QuizService) { s.events = events }
}

// WithFinalizeTimeout bounds timer-triggered finalization.
func WithFinalizeTimeout(d time.Duration) Option {
	return func(s *QuizService) { s.finalizeTimeout = d }
}

// QuizService contains the quiz use cases.
type QuizService struct {
	store     Store
	questions QuestionLoader
	sessions  SessionRepository
	feed      *QuizFeed
	results   *ResultsCompiler
	events    EventPublisher

	now             func() time.Time
	ticker          countdown.TickerFunc
	perm            func(n int) []int
	finalizeTimeout time.Duration

	sf singleflight.Group
}

func NewQuizService(store Store, sessions SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		store:     store,
		questions: store,
		sessions:  sessions,
		feed:      NewQuizFeed(store),
		now:       time.Now,
		ticker:    countdown.RealTicker,
		perm:      shuffle.Perm,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.results = NewResultsCompiler(store, s.questions)
	return s
}

// ListQuestionSets returns every active question set.
func (s *QuizService) ListQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	return ListAll(ctx, domain.DefaultPageSize, func(ctx context.Context, page domain.PageRequest) (domain.Page[domain.QuestionSet], error) {
		return s.store.ListQuestionSets(ctx, domain.QuestionSetFilter{ActiveOnly: true}, page)
	})
}

func (s *QuizService) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	return s.store.GetQuestionSet(ctx, id)
}

// ListQuestions returns all questions of a set.
func (s *QuizService) ListQuestions(ctx context.Context, questionSetID string) ([]domain.Question, error) {
	return ListAll(ctx, domain.DefaultPageSize, func(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Question], error) {
		return s.store.ListQuestions(ctx, questionSetID, page)
	})
}

// CountQuestions returns how many questions a set holds.
func (s *QuizService) CountQuestions(ctx context.Context, questionSetID string) (int, error) {
	questions, err := s.ListQuestions(ctx, questionSetID)
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

// CreateQuiz samples a fixed question sequence from the set and starts an attempt.
func (s *QuizService) CreateQuiz(ctx context.Context, user domain.User, params CreateQuizParams) (domain.Quiz, error) {
	setID := strings.TrimSpace(params.QuestionSetID)
	if setID == "" {
		return domain.Quiz{}, &domain.ValidationError{Fields: []domain.FieldError{{Field: "questionSetId", Message: "is required"}}}
	}
	set, err := s.store.GetQuestionSet(ctx, setID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !set.IsActive {
		return domain.Quiz{}, domain.ErrQuestionSetNotFound
	}

	questions, err := s.ListQuestions(ctx, set.ID)
	if err != nil {
		return domain.Quiz{}, err
	}

	count := params.QuestionCount
	if count == 0 {
		count = DefaultQuestionCount
		if count > len(questions) {
			count = len(questions)
		}
	}
	timePerQuestion := params.TimePerQuestion
	if timePerQuestion == 0 {
		timePerQuestion = DefaultTimePerQuestion
	}

	verr := &domain.ValidationError{}
	limit := len(questions)
	if limit > MaxQuestionsPerQuiz {
		limit = MaxQuestionsPerQuiz
	}
	if len(questions) == 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "questionSetId", Message: "question set has no questions"})
	} else if count < 1 || count > limit {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "questionCount", Message: fmt.Sprintf("must be between 1 and %d", limit)})
	}
	if timePerQuestion < 1 || timePerQuestion > MaxTimePerQuestion {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "timePerQuestion", Message: fmt.Sprintf("must be between 1 and %d seconds", MaxTimePerQuestion)})
	}
	if len(verr.Fields) > 0 {
		return domain.Quiz{}, verr
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	now := s.now().UTC()
	quiz, err := s.store.CreateQuiz(ctx, domain.Quiz{
		Owner:           user.ID,
		QuestionSetID:   set.ID,
		QuestionSetName: set.Name,
		Status:          domain.QuizInProgress,
		TotalQuestions:  count,
		TimePerQuestion: timePerQuestion,
		StartedAt:       now,
		QuestionIDs:     shuffle.Sample(ids, count),
		CreatedAt:       now,
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}

	if s.events != nil {
		if err := s.events.QuizStarted(ctx, quiz); err != nil {
			log.Printf("publish quiz started %s: %v", quiz.ID, err)
		}
	}
	s.feed.Notify(ctx, user.ID)
	return quiz, nil
}

func (s *QuizService) GetQuiz(ctx context.Context, user domain.User, quizID string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, user.ID, quizID)
}

// ListQuizzes returns the user's quizzes, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context, user domain.User) ([]domain.Quiz, error) {
	return s.feed.List(ctx, user.ID)
}

// WatchQuizzes streams the user's quiz list on every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) WatchQuizzes(ctx context.Context, user domain.User) (<-chan []domain.Quiz, func(), error) {
	return s.feed.Subscribe(ctx, user.ID)
}

// OpenSession returns the live session of an in-progress quiz, loading it on first use.
func (s *QuizService) OpenSession(ctx context.Context, user domain.User, quizID string) (*Session, error) {
	if session, ok := s.sessions.Get(quizID); ok {
		return s.checkSession(session, user)
	}

	result, err, _ := s.sf.Do(user.ID+"/"+quizID, func() (interface{}, error) {
		if session, ok := s.sessions.Get(quizID); ok {
			return session, nil
		}
		quiz, err := s.store.GetQuiz(ctx, user.ID, quizID)
		if err != nil {
			return nil, err
		}
		if quiz.Status == domain.QuizCompleted {
			return nil, domain.ErrQuizCompleted
		}

		session := NewSession(quiz, SessionDeps{
			Quizzes:         s.store,
			Answers:         s.store,
			Questions:       s.questions,
			Now:             s.now,
			Ticker:          s.ticker,
			Perm:            s.perm,
			FinalizeTimeout: s.finalizeTimeout,
			OnComplete:      s.completed,
		})
		if err := session.Load(ctx); err != nil {
			session.Close()
			return nil, err
		}
		if session.State() == StateDone {
			return nil, domain.ErrQuizCompleted
		}
		s.sessions.Put(session)
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return s.checkSession(result.(*Session), user)
}

func (s *QuizService) checkSession(session *Session, user domain.User) (*Session, error) {
	if session.Owner() != user.ID {
		return nil, domain.ErrQuizNotFound
	}
	if session.State() == StateDone {
		return nil, domain.ErrQuizCompleted
	}
	return session, nil
}

// Results compiles the review of a completed quiz.
func (s *QuizService) Results(ctx context.Context, user domain.User, quizID string) (Results, error) {
	quiz, err := s.store.GetQuiz(ctx, user.ID, quizID)
	if err != nil {
		return Results{}, err
	}
	return s.results.Compile(ctx, quiz)
}

// EvictSessions drops sessions matching pred, stopping their countdowns.
func (s *QuizService) EvictSessions(pred func(*Session) bool) int {
	return s.sessions.Evict(func(session *Session) bool {
		if !pred(session) {
			return false
		}
		session.Close()
		return true
	})
}

func (s *QuizService) completed(quiz domain.Quiz) {
	s.sessions.Delete(quiz.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.events != nil {
		if err := s.events.QuizCompleted(ctx, quiz); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("publish quiz completed %s: %v", quiz.ID, err)
		}
	}
	s.feed.Notify(ctx, quiz.Owner)
}
