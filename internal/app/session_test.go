package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/countdown"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/infra/memory"
)

func TestSessionTimeoutFinalizesWithUnansweredQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 2, 15)
	completed := make(chan domain.Quiz, 1)
	session := f.session(t, func(d *app.SessionDeps) {
		d.OnComplete = func(q domain.Quiz) { completed <- q }
	})
	views, cancel := session.Subscribe()
	defer cancel()

	if err := session.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}

	for i := 0; i < 30; i++ {
		if !f.ticker.fire() {
			t.Fatalf("tick %d not accepted", i)
		}
	}
	waitForState(t, views, "done")

	quiz := <-completed
	if quiz.Status != domain.QuizCompleted || quiz.Score == nil || *quiz.Score != 1 {
		t.Fatalf("expected completed quiz with score 1, got %+v", quiz)
	}
	answers := f.answers(t)
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if answers[0].SelectedIndex == nil || *answers[0].SelectedIndex != 1 || !answers[0].IsCorrect {
		t.Fatalf("unexpected first answer %+v", answers[0])
	}
	if answers[1].SelectedIndex != nil || answers[1].IsCorrect {
		t.Fatalf("expected second answer unanswered, got %+v", answers[1])
	}
	for _, a := range answers {
		if a.TimeTaken != 15 {
			t.Fatalf("expected time taken 15, got %d", a.TimeTaken)
		}
	}
	if err := session.Select(0); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted after finalize, got %v", err)
	}
}

func TestSessionFinishOnlyOnLastQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 2, 30)
	session := f.session(t)

	if _, err := session.Finish(ctx); !errors.Is(err, domain.ErrNotLastQuestion) {
		t.Fatalf("expected ErrNotLastQuestion, got %v", err)
	}
	if err := session.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := session.Next(ctx); !errors.Is(err, domain.ErrQuestionIndexOutOfRange) {
		t.Fatalf("expected out of range past the end, got %v", err)
	}
	if err := session.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}

	quiz, err := session.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if *quiz.Score != 1 {
		t.Fatalf("expected score 1, got %d", *quiz.Score)
	}

	again, err := session.Finish(ctx)
	if !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted on second finish, got %v", err)
	}
	if again.ID != quiz.ID || *again.Score != 1 {
		t.Fatalf("expected the completed quiz back, got %+v", again)
	}
	if len(f.answers(t)) != 2 {
		t.Fatalf("expected answers written once")
	}
}

func TestSessionNavigationFailureKeepsPosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 3, 30)
	quizzes := &flakyQuizzes{QuizRepository: f.store, failures: 1}
	session := f.session(t, func(d *app.SessionDeps) { d.Quizzes = quizzes })

	if err := session.Next(ctx); err == nil {
		t.Fatalf("expected next to fail")
	}
	view := session.View()
	if view.CurrentIndex != 0 || view.Error == "" {
		t.Fatalf("expected position 0 with an error, got %+v", view)
	}

	if err := session.Next(ctx); err != nil {
		t.Fatalf("retry next: %v", err)
	}
	if view := session.View(); view.CurrentIndex != 1 || view.Error != "" {
		t.Fatalf("expected position 1 without error, got %+v", view)
	}
	stored, _ := f.store.GetQuiz(ctx, f.quiz.Owner, f.quiz.ID)
	if stored.CurrentQuestionIndex != 1 {
		t.Fatalf("expected stored index 1, got %d", stored.CurrentQuestionIndex)
	}
}

func TestSessionFinalizeFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 2, 30)
	answers := &flakyAnswers{AnswerRepository: f.store, failAt: 2}
	session := f.session(t, func(d *app.SessionDeps) { d.Answers = answers })

	_ = session.Select(1)
	_ = session.Next(ctx)
	if _, err := session.Finish(ctx); err == nil {
		t.Fatalf("expected first finish to fail")
	}
	if session.State() != app.StateActive {
		t.Fatalf("expected active after failure, got %s", session.State())
	}
	if session.View().Error == "" {
		t.Fatalf("expected failure in view")
	}

	quiz, err := session.Finish(ctx)
	if err != nil {
		t.Fatalf("retry finish: %v", err)
	}
	if *quiz.Score != 1 {
		t.Fatalf("expected score 1, got %d", *quiz.Score)
	}
	if got := len(f.answers(t)); got != 2 {
		t.Fatalf("expected 2 stored answers, got %d", got)
	}
}

func TestSessionRetryAfterLostCompletionReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 1, 30)
	quizzes := &lostReplyQuizzes{QuizRepository: f.store}
	session := f.session(t, func(d *app.SessionDeps) { d.Quizzes = quizzes })

	if _, err := session.Finish(ctx); err == nil {
		t.Fatalf("expected lost reply error")
	}
	quiz, err := session.Finish(ctx)
	if err != nil {
		t.Fatalf("retry finish: %v", err)
	}
	if quiz.Status != domain.QuizCompleted {
		t.Fatalf("expected completed quiz, got %s", quiz.Status)
	}
}

func TestSessionConcurrentFinalizeRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 1, 30)
	answers := &blockingAnswers{AnswerRepository: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	session := f.session(t, func(d *app.SessionDeps) { d.Answers = answers })

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = session.Finish(ctx)
	}()
	<-answers.entered

	if _, err := session.Finish(ctx); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected ErrSubmissionInProgress, got %v", err)
	}
	if err := session.Select(0); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected select rejected while finalizing, got %v", err)
	}
	close(answers.release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first finish: %v", firstErr)
	}
	if got := len(f.answers(t)); got != 1 {
		t.Fatalf("expected single answer, got %d", got)
	}
}

func TestSessionSelectMapsDisplayPosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 1, 30)
	session := f.session(t, func(d *app.SessionDeps) { d.Perm = reversePerm })

	view := session.View()
	if view.Question == nil || view.Question.Options[0] != "D" {
		t.Fatalf("expected reversed options, got %+v", view.Question)
	}
	if err := session.Select(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if view := session.View(); view.Selected == nil || *view.Selected != 2 {
		t.Fatalf("expected selected position 2, got %+v", view.Selected)
	}
	if err := session.Select(4); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}

	quiz, err := session.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if *quiz.Score != 1 {
		t.Fatalf("expected display position 2 to map to the correct option")
	}
}

func TestSessionResumesRemainingTime(t *testing.T) {
	f := newFixture(t, 2, 2, 15)
	f.now = f.quiz.StartedAt.Add(10 * time.Second)
	session := f.session(t)

	if got := session.View().TimeRemaining; got != 20 {
		t.Fatalf("expected 20s remaining, got %d", got)
	}
	if err := session.GoTo(context.Background(), 1); err != nil {
		t.Fatalf("goto: %v", err)
	}
}

func TestSessionLoadWithSpentBudgetFinalizes(t *testing.T) {
	f := newFixture(t, 2, 2, 15)
	f.now = f.quiz.StartedAt.Add(time.Minute)
	session := app.NewSession(f.quiz, f.deps())

	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if session.State() != app.StateDone {
		t.Fatalf("expected done, got %s", session.State())
	}
	if got := len(f.answers(t)); got != 2 {
		t.Fatalf("expected 2 unanswered answers, got %d", got)
	}
}

func TestSessionLoadFailsOnMissingQuestion(t *testing.T) {
	f := newFixture(t, 2, 2, 15)
	f.quiz.QuestionIDs[1] = "missing"
	session := app.NewSession(f.quiz, f.deps())

	err := session.Load(context.Background())
	if !errors.Is(err, domain.ErrQuestionsUnavailable) || !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected unavailable questions, got %v", err)
	}
	if err := session.Select(0); !errors.Is(err, domain.ErrSessionNotReady) {
		t.Fatalf("expected ErrSessionNotReady, got %v", err)
	}
}

// fixture holds a quiz over the first asked questions of a fresh set whose
// questions all have options A-D, B being correct.
type fixture struct {
	store  *memory.Store
	quiz   domain.Quiz
	ticker *manualTicker
	now    time.Time
}

func newFixture(t *testing.T, questions, asked, timePerQuestion int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	set, err := store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "Office", Category: "MS Office", Difficulty: domain.DifficultyEasy, IsActive: true})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	var ids []string
	for i := 0; i < questions; i++ {
		q, err := store.CreateQuestion(ctx, domain.Question{
			QuestionSetID: set.ID,
			Text:          "Question",
			Options:       []string{"A", "B", "C", "D"},
			CorrectIndex:  1,
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	started := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{
		Owner:           "alice",
		QuestionSetID:   set.ID,
		QuestionSetName: set.Name,
		Status:          domain.QuizInProgress,
		TotalQuestions:  asked,
		TimePerQuestion: timePerQuestion,
		StartedAt:       started,
		QuestionIDs:     ids[:asked],
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return &fixture{store: store, quiz: quiz, ticker: newManualTicker(), now: started}
}

func (f *fixture) deps() app.SessionDeps {
	now := f.now
	return app.SessionDeps{
		Quizzes:   f.store,
		Answers:   f.store,
		Questions: f.store,
		Now:       func() time.Time { return now },
		Ticker:    f.ticker.factory,
		Perm:      identityPerm,
	}
}

func (f *fixture) session(t *testing.T, mods ...func(*app.SessionDeps)) *app.Session {
	t.Helper()
	deps := f.deps()
	for _, mod := range mods {
		mod(&deps)
	}
	session := app.NewSession(f.quiz, deps)
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("load session: %v", err)
	}
	return session
}

func (f *fixture) answers(t *testing.T) []domain.QuizAnswer {
	t.Helper()
	page, err := f.store.ListAnswers(context.Background(), f.quiz.Owner, f.quiz.ID, domain.PageRequest{})
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	return page.Items
}

func waitForState(t *testing.T, views <-chan app.SessionView, state string) app.SessionView {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case view, ok := <-views:
			if !ok {
				t.Fatalf("view channel closed before %s", state)
			}
			if view.State == state {
				return view
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", state)
		}
	}
}

func identityPerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func reversePerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(time.Duration) countdown.Ticker {
	return manualTick{ch: m.ch}
}

func (m *manualTicker) fire() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(time.Second):
		return false
	}
}

type manualTick struct{ ch chan time.Time }

func (t manualTick) C() <-chan time.Time { return t.ch }
func (t manualTick) Stop()               {}

type flakyQuizzes struct {
	app.QuizRepository
	failures int32
}

func (f *flakyQuizzes) UpdateQuiz(ctx context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return domain.Quiz{}, errors.New("store unavailable")
	}
	return f.QuizRepository.UpdateQuiz(ctx, owner, id, update)
}

// lostReplyQuizzes applies the first completion but reports a failure.
type lostReplyQuizzes struct {
	app.QuizRepository
	lost atomic.Bool
}

func (l *lostReplyQuizzes) UpdateQuiz(ctx context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error) {
	quiz, err := l.QuizRepository.UpdateQuiz(ctx, owner, id, update)
	if err == nil && update.Status != nil && l.lost.CompareAndSwap(false, true) {
		return domain.Quiz{}, errors.New("connection reset")
	}
	return quiz, err
}

type flakyAnswers struct {
	app.AnswerRepository
	failAt int32
	calls  int32
}

func (f *flakyAnswers) CreateAnswer(ctx context.Context, answer domain.QuizAnswer) (domain.QuizAnswer, error) {
	if atomic.AddInt32(&f.calls, 1) == f.failAt {
		return domain.QuizAnswer{}, errors.New("store unavailable")
	}
	return f.AnswerRepository.CreateAnswer(ctx, answer)
}

type blockingAnswers struct {
	app.AnswerRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAnswers) CreateAnswer(ctx context.Context, answer domain.QuizAnswer) (domain.QuizAnswer, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.AnswerRepository.CreateAnswer(ctx, answer)
}
