package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-generator-service/internal/domain"
)

// Store is an in-memory implementation of app.Store, useful for tests and local runs.
type Store struct {
	clock func() time.Time

	mu            sync.RWMutex
	sets          map[string]domain.QuestionSet
	setOrder      []string
	questions     map[string]domain.Question
	questionOrder map[string][]string
	quizzes       map[string]domain.Quiz
	quizOrder     []string
	answers       map[string][]domain.QuizAnswer
}

func NewStore() *Store {
	return &Store{
		clock:         time.Now,
		sets:          make(map[string]domain.QuestionSet),
		questions:     make(map[string]domain.Question),
		questionOrder: make(map[string][]string),
		quizzes:       make(map[string]domain.Quiz),
		answers:       make(map[string][]domain.QuizAnswer),
	}
}

func (s *Store) CreateQuestionSet(_ context.Context, set domain.QuestionSet) (domain.QuestionSet, error) {
	if err := set.Validate(); err != nil {
		return domain.QuestionSet{}, err
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if set.Difficulty == "" {
		set.Difficulty = domain.DifficultyMedium
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = s.clock().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[set.ID]; !ok {
		s.setOrder = append(s.setOrder, set.ID)
	}
	s.sets[set.ID] = set
	return set, nil
}

func (s *Store) GetQuestionSet(_ context.Context, id string) (domain.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[id]
	if !ok {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	return set, nil
}

func (s *Store) ListQuestionSets(_ context.Context, filter domain.QuestionSetFilter, page domain.PageRequest) (domain.Page[domain.QuestionSet], error) {
	s.mu.RLock()
	matched := make([]domain.QuestionSet, 0, len(s.setOrder))
	for _, id := range s.setOrder {
		set := s.sets[id]
		if filter.ActiveOnly && !set.IsActive {
			continue
		}
		matched = append(matched, set)
	}
	s.mu.RUnlock()
	return paginate(matched, page)
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Options = append([]string(nil), q.Options...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[q.QuestionSetID]; !ok {
		return domain.Question{}, domain.ErrQuestionSetNotFound
	}
	if _, ok := s.questions[q.ID]; !ok {
		s.questionOrder[q.QuestionSetID] = append(s.questionOrder[q.QuestionSetID], q.ID)
	}
	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) ListQuestions(_ context.Context, questionSetID string, page domain.PageRequest) (domain.Page[domain.Question], error) {
	s.mu.RLock()
	ids := s.questionOrder[questionSetID]
	matched := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		matched = append(matched, cloneQuestion(s.questions[id]))
	}
	s.mu.RUnlock()
	return paginate(matched, page)
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	if quiz.StartedAt.IsZero() {
		quiz.StartedAt = now
	}
	quiz = cloneQuiz(quiz)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		s.quizOrder = append(s.quizOrder, quiz.ID)
	}
	s.quizzes[quiz.ID] = quiz
	return cloneQuiz(quiz), nil
}

func (s *Store) GetQuiz(_ context.Context, owner, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok || quiz.Owner != owner {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) UpdateQuiz(_ context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok || quiz.Owner != owner {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	updated, err := update.Apply(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.quizzes[id] = updated
	return cloneQuiz(updated), nil
}

func (s *Store) ListQuizzes(_ context.Context, owner string, filter domain.QuizFilter, page domain.PageRequest) (domain.Page[domain.Quiz], error) {
	s.mu.RLock()
	matched := make([]domain.Quiz, 0)
	for _, id := range s.quizOrder {
		quiz := s.quizzes[id]
		if quiz.Owner != owner {
			continue
		}
		if filter.Status != "" && quiz.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneQuiz(quiz))
	}
	s.mu.RUnlock()
	return paginate(matched, page)
}

func (s *Store) CreateAnswer(_ context.Context, answer domain.QuizAnswer) (domain.QuizAnswer, error) {
	if err := answer.Validate(); err != nil {
		return domain.QuizAnswer{}, err
	}
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = s.clock().UTC()
	}
	answer = cloneAnswer(answer)

	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[answer.QuizID]
	if !ok || quiz.Owner != answer.Owner {
		return domain.QuizAnswer{}, domain.ErrQuizNotFound
	}
	for _, existing := range s.answers[answer.QuizID] {
		if existing.QuestionIndex == answer.QuestionIndex {
			return domain.QuizAnswer{}, domain.ErrAnswerExists
		}
	}
	s.answers[answer.QuizID] = append(s.answers[answer.QuizID], answer)
	return cloneAnswer(answer), nil
}

func (s *Store) ListAnswers(_ context.Context, owner, quizID string, page domain.PageRequest) (domain.Page[domain.QuizAnswer], error) {
	s.mu.RLock()
	stored := s.answers[quizID]
	matched := make([]domain.QuizAnswer, 0, len(stored))
	for _, a := range stored {
		if a.Owner == owner {
			matched = append(matched, cloneAnswer(a))
		}
	}
	s.mu.RUnlock()
	return paginate(matched, page)
}

func paginate[T any](items []T, page domain.PageRequest) (domain.Page[T], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[T]{}, err
	}
	size := page.Size()
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	out := domain.Page[T]{Items: items[offset:end]}
	if end < len(items) {
		out.NextToken = domain.EncodeCursor(end)
	}
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.QuestionIDs = append([]string(nil), q.QuestionIDs...)
	if q.Score != nil {
		score := *q.Score
		q.Score = &score
	}
	if q.CompletedAt != nil {
		at := *q.CompletedAt
		q.CompletedAt = &at
	}
	return q
}

func cloneAnswer(a domain.QuizAnswer) domain.QuizAnswer {
	if a.SelectedIndex != nil {
		selected := *a.SelectedIndex
		a.SelectedIndex = &selected
	}
	return a
}
