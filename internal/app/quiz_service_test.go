package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/infra/memory"
)

var alice = domain.User{ID: "alice", Username: "alice"}

func TestCreateQuizAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	service, _, set := newTestService(t, 3)

	quiz, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: set.ID})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.TotalQuestions != 3 || quiz.TimePerQuestion != app.DefaultTimePerQuestion {
		t.Fatalf("unexpected defaults %+v", quiz)
	}
	if quiz.Status != domain.QuizInProgress || quiz.Score != nil || quiz.Owner != alice.ID {
		t.Fatalf("unexpected initial state %+v", quiz)
	}
	seen := map[string]bool{}
	for _, id := range quiz.QuestionIDs {
		if seen[id] {
			t.Fatalf("duplicate question id %s", id)
		}
		seen[id] = true
	}
}

func TestCreateQuizValidatesParams(t *testing.T) {
	ctx := context.Background()
	service, store, set := newTestService(t, 3)

	cases := []app.CreateQuizParams{
		{QuestionSetID: set.ID, QuestionCount: 4},
		{QuestionSetID: set.ID, QuestionCount: -1},
		{QuestionSetID: set.ID, TimePerQuestion: app.MaxTimePerQuestion + 1},
		{},
	}
	for _, params := range cases {
		if _, err := service.CreateQuiz(ctx, alice, params); !domain.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", params, err)
		}
	}

	inactive, _ := store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "Old", Category: "MS Office"})
	if _, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: inactive.ID}); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected inactive set rejected, got %v", err)
	}
}

func TestListQuestionSetsReturnsActiveOnly(t *testing.T) {
	ctx := context.Background()
	service, store, set := newTestService(t, 1)
	_, _ = store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "Hidden", Category: "MS Office"})

	sets, err := service.ListQuestionSets(ctx)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 1 || sets[0].ID != set.ID {
		t.Fatalf("expected only the active set, got %+v", sets)
	}
}

func TestOpenSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	service, _, set := newTestService(t, 2, app.WithEvents(events))

	quiz, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: set.ID, QuestionCount: 1, TimePerQuestion: 30})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	first, err := service.OpenSession(ctx, alice, quiz.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	second, err := service.OpenSession(ctx, alice, quiz.ID)
	if err != nil || second != first {
		t.Fatalf("expected the same live session, got %v", err)
	}
	if _, err := service.OpenSession(ctx, domain.User{ID: "bob"}, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected other user rejected, got %v", err)
	}
	if _, err := service.Results(ctx, alice, quiz.ID); !errors.Is(err, domain.ErrQuizInProgress) {
		t.Fatalf("expected results unavailable while running, got %v", err)
	}

	if _, err := first.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := service.OpenSession(ctx, alice, quiz.ID); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted, got %v", err)
	}
	results, err := service.Results(ctx, alice, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results.Items) != 1 {
		t.Fatalf("expected 1 result item, got %d", len(results.Items))
	}
	if started, completed := events.counts(); started != 1 || completed != 1 {
		t.Fatalf("expected 1 started and 1 completed event, got %d/%d", started, completed)
	}
}

func TestOpenSessionConcurrentCallsShareSession(t *testing.T) {
	ctx := context.Background()
	service, _, set := newTestService(t, 2)
	quiz, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: set.ID})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	var wg sync.WaitGroup
	sessions := make([]*app.Session, 8)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = service.OpenSession(ctx, alice, quiz.ID)
		}(i)
	}
	wg.Wait()
	for i, s := range sessions {
		if s == nil || s != sessions[0] {
			t.Fatalf("session %d differs", i)
		}
	}
}

func TestWatchQuizzesReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _, set := newTestService(t, 2)

	ch, cancel, err := service.WatchQuizzes(ctx, alice)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	if initial := <-ch; len(initial) != 0 {
		t.Fatalf("expected empty initial list, got %d", len(initial))
	}
	if _, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: set.ID}); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	select {
	case update := <-ch:
		running, completed := app.SplitByStatus(update)
		if len(running) != 1 || len(completed) != 0 {
			t.Fatalf("expected one running quiz, got %d/%d", len(running), len(completed))
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for quiz list update")
	}
}

func TestEvictSessionsClosesMatches(t *testing.T) {
	ctx := context.Background()
	service, _, set := newTestService(t, 2)
	quiz, _ := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: set.ID})
	session, err := service.OpenSession(ctx, alice, quiz.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	if n := service.EvictSessions(func(*app.Session) bool { return true }); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	reopened, err := service.OpenSession(ctx, alice, quiz.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened == session {
		t.Fatalf("expected a fresh session after eviction")
	}
}

func newTestService(t *testing.T, questions int, opts ...app.Option) (*app.QuizService, *memory.Store, domain.QuestionSet) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	set, err := store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "MS Word Fundamentals", Category: "MS Office", Difficulty: domain.DifficultyEasy, IsActive: true})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	for i := 0; i < questions; i++ {
		if _, err := store.CreateQuestion(ctx, domain.Question{QuestionSetID: set.ID, Text: "Question", Options: []string{"A", "B"}, CorrectIndex: 0}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	opts = append([]app.Option{app.WithTicker(newManualTicker().factory)}, opts...)
	return app.NewQuizService(store, memory.NewSessionStore(), opts...), store, set
}

type recordingEvents struct {
	mu        sync.Mutex
	started   int
	completed int
}

func (r *recordingEvents) QuizStarted(context.Context, domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return nil
}

func (r *recordingEvents) QuizCompleted(context.Context, domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	return nil
}

func (r *recordingEvents) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.completed
}
