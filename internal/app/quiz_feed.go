package app

import (
	"context"
	"log"
	"sort"
	"sync"

	"quiz-generator-service/internal/domain"
)

// QuizFeed pushes a user's full, newest-first quiz list to subscribers every
// time one of their quizzes changes through the service.
type QuizFeed struct {
	quizzes  QuizRepository
	pageSize int

	mu          sync.Mutex
	subscribers map[string]map[chan []domain.Quiz]struct{}
}

func NewQuizFeed(quizzes QuizRepository) *QuizFeed {
	return &QuizFeed{
		quizzes:     quizzes,
		pageSize:    domain.DefaultPageSize,
		subscribers: make(map[string]map[chan []domain.Quiz]struct{}),
	}
}

// List returns all quizzes of owner, newest first.
func (f *QuizFeed) List(ctx context.Context, owner string) ([]domain.Quiz, error) {
	quizzes, err := ListAll(ctx, f.pageSize, func(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Quiz], error) {
		return f.quizzes.ListQuizzes(ctx, owner, domain.QuizFilter{}, page)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

// Subscribe delivers the current list immediately and again after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *QuizFeed) Subscribe(ctx context.Context, owner string) (<-chan []domain.Quiz, func(), error) {
	initial, err := f.List(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan []domain.Quiz, 4)
	ch <- initial

	f.mu.Lock()
	if f.subscribers[owner] == nil {
		f.subscribers[owner] = make(map[chan []domain.Quiz]struct{})
	}
	f.subscribers[owner][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[owner]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(f.subscribers, owner)
		}
	}
	return ch, cancel, nil
}

// Notify re-lists owner's quizzes and pushes the result to their subscribers.
func (f *QuizFeed) Notify(ctx context.Context, owner string) {
	f.mu.Lock()
	watched := len(f.subscribers[owner]) > 0
	f.mu.Unlock()
	if !watched {
		return
	}

	quizzes, err := f.List(ctx, owner)
	if err != nil {
		log.Printf("quiz feed for %s: %v", owner, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[owner] {
		select {
		case ch <- quizzes:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- quizzes
		}
	}
}

// SplitByStatus separates running from completed quizzes, keeping order.
func SplitByStatus(quizzes []domain.Quiz) (running, completed []domain.Quiz) {
	running = []domain.Quiz{}
	completed = []domain.Quiz{}
	for _, q := range quizzes {
		if q.Status == domain.QuizCompleted {
			completed = append(completed, q)
		} else {
			running = append(running, q)
		}
	}
	return running, completed
}
