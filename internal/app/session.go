package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"quiz-generator-service/internal/countdown"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/shuffle"
)

// SessionState is the explicit state of a quiz session.
type SessionState int

const (
	StateLoading SessionState = iota
	StateActive
	StateFinalizing
	StateDone
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Trigger identifies what started finalization.
type Trigger string

const (
	TriggerUser    Trigger = "user"
	TriggerTimeout Trigger = "timeout"
)

const defaultFinalizeTimeout = 30 * time.Second

// SessionDeps are the collaborators a session writes through.
type SessionDeps struct {
	Quizzes   QuizRepository
	Answers   AnswerRepository
	Questions QuestionLoader
	// Now defaults to time.Now.
	Now func() time.Time
	// Ticker defaults to the wall clock.
	Ticker countdown.TickerFunc
	// Perm produces the display order of a question's options; defaults to shuffle.Perm.
	Perm func(n int) []int
	// FinalizeTimeout bounds a timer-triggered finalization.
	FinalizeTimeout time.Duration
	// OnComplete runs once after the quiz has been persisted as completed.
	OnComplete func(domain.Quiz)
}

// QuestionView is the current question as displayed, options in display order.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// SessionView is a point-in-time snapshot of a session.
type SessionView struct {
	QuizID        string        `json:"quizId"`
	State         string        `json:"state"`
	CurrentIndex  int           `json:"currentQuestionIndex"`
	Total         int           `json:"totalQuestions"`
	TimeRemaining int           `json:"timeRemaining"`
	Clock         string        `json:"clock"`
	TimeBudget    int           `json:"timeBudget"`
	Expired       bool          `json:"expired"`
	Question      *QuestionView `json:"question,omitempty"`
	Selected      *int          `json:"selected,omitempty"`
	Answered      int           `json:"answered"`
	Score         *int          `json:"score,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Session drives one quiz attempt from loading to completion. It is the only
// writer of the quiz and its answers while it is live.
type Session struct {
	quizID string
	owner  string
	deps   SessionDeps

	mu sync.Mutex
	// submitting marks a pending store write; concurrent writes are rejected.
	submitting bool
	expired    bool
	state      SessionState
	quiz       domain.Quiz
	questions  []domain.Question
	// layouts[i][position] is the original option index shown at position.
	layouts   [][]int
	index     int
	pending   map[int]int
	persisted map[int]domain.QuizAnswer
	timer     *countdown.Countdown
	lastErr   error
	lastSeen  time.Time

	subscribers map[chan SessionView]struct{}
}

// NewSession creates a session in the loading state.
func NewSession(quiz domain.Quiz, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ticker == nil {
		deps.Ticker = countdown.RealTicker
	}
	if deps.Perm == nil {
		deps.Perm = shuffle.Perm
	}
	if deps.FinalizeTimeout <= 0 {
		deps.FinalizeTimeout = defaultFinalizeTimeout
	}
	return &Session{
		quizID:      quiz.ID,
		owner:       quiz.Owner,
		deps:        deps,
		state:       StateLoading,
		quiz:        quiz,
		pending:     make(map[int]int),
		persisted:   make(map[int]domain.QuizAnswer),
		lastSeen:    deps.Now(),
		subscribers: make(map[chan SessionView]struct{}),
	}
}

func (s *Session) QuizID() string { return s.quizID }
func (s *Session) Owner() string  { return s.owner }

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSeen is the time of the last user action.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Busy reports whether a store write is pending.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting || s.state == StateFinalizing
}

// Expired reports whether the countdown has run out.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// Subscribers returns the number of live snapshot subscribers.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Load resolves the quiz's question sequence in QuestionIDs order, builds the
// option layouts and starts the whole-attempt countdown.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return nil
	}
	quiz := s.quiz
	s.mu.Unlock()

	if quiz.Status == domain.QuizCompleted {
		s.mu.Lock()
		s.state = StateDone
		s.mu.Unlock()
		return domain.ErrQuizCompleted
	}
	if len(quiz.QuestionIDs) == 0 {
		return domain.ErrQuestionsUnavailable
	}

	questions := make([]domain.Question, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		q, err := s.deps.Questions.GetQuestion(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: question %s: %w", domain.ErrQuestionsUnavailable, id, err)
		}
		questions = append(questions, q)
	}

	layouts := make([][]int, len(questions))
	for i, q := range questions {
		layouts[i] = s.deps.Perm(len(q.Options))
	}

	budget := quiz.TimeBudget()
	remaining := budget - int(s.deps.Now().Sub(quiz.StartedAt)/time.Second)
	if remaining > budget {
		remaining = budget
	}
	if remaining < 0 {
		remaining = 0
	}

	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return nil
	}
	s.questions = questions
	s.layouts = layouts
	s.index = clamp(quiz.CurrentQuestionIndex, 0, len(questions)-1)
	s.timer = countdown.New(remaining,
		countdown.WithTicker(s.deps.Ticker),
		countdown.OnTick(s.handleTick),
		countdown.OnExpire(s.handleExpire),
	)
	s.state = StateActive
	spent := remaining == 0
	if spent {
		s.expired = true
	} else {
		s.timer.Start()
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if spent {
		_, err := s.finalize(ctx, TriggerTimeout)
		return err
	}
	return nil
}

// Select records the option at a display position for the current question,
// replacing an earlier choice.
func (s *Session) Select(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}
	layout := s.layouts[s.index]
	if position < 0 || position >= len(layout) {
		return domain.ErrOptionNotFound
	}
	s.pending[s.index] = layout[position]
	s.lastSeen = s.deps.Now()
	s.broadcastLocked()
	return nil
}

// Next moves to the following question.
func (s *Session) Next(ctx context.Context) error {
	return s.GoTo(ctx, s.currentIndex()+1)
}

// Previous moves to the preceding question.
func (s *Session) Previous(ctx context.Context) error {
	return s.GoTo(ctx, s.currentIndex()-1)
}

// GoTo persists the new position and then moves there. A failed write leaves
// the position unchanged.
func (s *Session) GoTo(ctx context.Context, target int) error {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if target < 0 || target >= len(s.questions) {
		s.mu.Unlock()
		return domain.ErrQuestionIndexOutOfRange
	}
	if target == s.index {
		s.mu.Unlock()
		return nil
	}
	s.submitting = true
	s.mu.Unlock()

	_, err := s.deps.Quizzes.UpdateQuiz(ctx, s.owner, s.quizID, domain.QuizUpdate{CurrentQuestionIndex: &target})

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.lastErr = fmt.Errorf("update quiz progress: %w", err)
	} else {
		s.index = target
		s.quiz.CurrentQuestionIndex = target
		s.lastErr = nil
	}
	s.lastSeen = s.deps.Now()
	// The countdown may have run out while the write was pending.
	expiredMeanwhile := s.expired && s.state == StateActive
	s.broadcastLocked()
	resultErr := s.lastErr
	s.mu.Unlock()

	if expiredMeanwhile {
		go s.finalizeOnExpiry()
	}
	return resultErr
}

// Finish finalizes the attempt on user request.
func (s *Session) Finish(ctx context.Context) (domain.Quiz, error) {
	return s.finalize(ctx, TriggerUser)
}

// View returns a snapshot of the session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the countdown of a session that is being discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Pause()
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) finalize(ctx context.Context, trigger Trigger) (domain.Quiz, error) {
	s.mu.Lock()
	switch {
	case s.state == StateDone:
		quiz := s.quiz
		s.mu.Unlock()
		return quiz, domain.ErrQuizCompleted
	case s.state == StateLoading:
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrSessionNotReady
	case s.state == StateFinalizing || s.submitting:
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrSubmissionInProgress
	}
	if trigger == TriggerUser && !s.expired && s.index != len(s.questions)-1 {
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrNotLastQuestion
	}
	s.state = StateFinalizing
	s.submitting = true
	s.timer.Pause()
	answers := s.materializeLocked()
	s.broadcastLocked()
	s.mu.Unlock()

	for _, answer := range answers {
		stored, err := s.deps.Answers.CreateAnswer(ctx, answer)
		if errors.Is(err, domain.ErrAnswerExists) {
			stored, err = answer, nil
		}
		if err != nil {
			return domain.Quiz{}, s.abortFinalize(fmt.Errorf("submit answer %d: %w", answer.QuestionIndex, err))
		}
		s.mu.Lock()
		s.persisted[answer.QuestionIndex] = stored
		s.mu.Unlock()
	}

	s.mu.Lock()
	score := 0
	for _, a := range s.persisted {
		if a.IsCorrect {
			score++
		}
	}
	s.mu.Unlock()

	status := domain.QuizCompleted
	completedAt := s.deps.Now().UTC()
	completed, err := s.deps.Quizzes.UpdateQuiz(ctx, s.owner, s.quizID, domain.QuizUpdate{
		Status:      &status,
		Score:       &score,
		CompletedAt: &completedAt,
	})
	if errors.Is(err, domain.ErrQuizCompleted) {
		// An earlier attempt reached the store even though its reply was lost.
		completed, err = s.deps.Quizzes.GetQuiz(ctx, s.owner, s.quizID)
	}
	if err != nil {
		return domain.Quiz{}, s.abortFinalize(fmt.Errorf("complete quiz: %w", err))
	}

	s.mu.Lock()
	s.state = StateDone
	s.submitting = false
	s.quiz = completed
	s.lastErr = nil
	s.broadcastLocked()
	s.mu.Unlock()

	log.Printf("quiz %s completed by %s trigger with score %d/%d", s.quizID, trigger, score, len(s.questions))
	if s.deps.OnComplete != nil {
		s.deps.OnComplete(completed)
	}
	return completed, nil
}

// materializeLocked builds one answer per not yet persisted position. Elapsed
// whole-attempt time is split evenly across all questions.
func (s *Session) materializeLocked() []domain.QuizAnswer {
	n := len(s.questions)
	elapsed := s.quiz.TimeBudget() - s.timer.Remaining()
	if elapsed < 0 {
		elapsed = 0
	}
	perQuestion := int(math.Round(float64(elapsed) / float64(n)))

	answers := make([]domain.QuizAnswer, 0, n)
	for i, q := range s.questions {
		if _, ok := s.persisted[i]; ok {
			continue
		}
		answer := domain.QuizAnswer{
			Owner:         s.owner,
			QuizID:        s.quizID,
			QuestionID:    q.ID,
			QuestionIndex: i,
			TimeTaken:     perQuestion,
		}
		if selected, ok := s.pending[i]; ok {
			chosen := selected
			answer.SelectedIndex = &chosen
			answer.IsCorrect = chosen == q.CorrectIndex
		}
		answers = append(answers, answer)
	}
	return answers
}

func (s *Session) abortFinalize(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateActive
	s.submitting = false
	s.lastErr = err
	if !s.expired {
		s.timer.Start()
	}
	s.broadcastLocked()
	log.Printf("quiz %s: %v", s.quizID, err)
	return err
}

func (s *Session) handleTick(int) {
	s.mu.Lock()
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *Session) handleExpire() {
	s.mu.Lock()
	s.expired = true
	busy := s.submitting || s.state != StateActive
	s.broadcastLocked()
	s.mu.Unlock()
	if busy {
		return
	}
	s.finalizeOnExpiry()
}

func (s *Session) finalizeOnExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), s.deps.FinalizeTimeout)
	defer cancel()
	_, err := s.finalize(ctx, TriggerTimeout)
	if err != nil && !errors.Is(err, domain.ErrQuizCompleted) && !errors.Is(err, domain.ErrSubmissionInProgress) {
		log.Printf("quiz %s: finalize on timeout failed: %v", s.quizID, err)
	}
}

func (s *Session) currentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// mutableLocked reports why the session cannot accept input, if it cannot.
func (s *Session) mutableLocked() error {
	switch s.state {
	case StateLoading:
		return domain.ErrSessionNotReady
	case StateFinalizing:
		return domain.ErrSubmissionInProgress
	case StateDone:
		return domain.ErrQuizCompleted
	}
	if s.submitting {
		return domain.ErrSubmissionInProgress
	}
	if s.expired {
		return domain.ErrTimeExpired
	}
	return nil
}

func (s *Session) viewLocked() SessionView {
	view := SessionView{
		QuizID:        s.quizID,
		State:         s.state.String(),
		CurrentIndex:  s.index,
		Total:         s.quiz.TotalQuestions,
		TimeBudget:    s.quiz.TimeBudget(),
		TimeRemaining: s.quiz.TimeBudget(),
		Expired:       s.expired,
		Answered:      len(s.pending),
	}
	if s.timer != nil {
		view.TimeRemaining = s.timer.Remaining()
	}
	view.Clock = countdown.Format(view.TimeRemaining)
	if s.lastErr != nil {
		view.Error = s.lastErr.Error()
	}
	if s.state == StateDone {
		if s.quiz.Score != nil {
			score := *s.quiz.Score
			view.Score = &score
		}
		return view
	}
	if len(s.questions) == 0 {
		return view
	}

	q := s.questions[s.index]
	layout := s.layouts[s.index]
	options := make([]string, len(layout))
	for pos, original := range layout {
		options[pos] = q.Options[original]
	}
	view.Question = &QuestionView{ID: q.ID, Text: q.Text, Options: options}
	if original, ok := s.pending[s.index]; ok {
		for pos, idx := range layout {
			if idx == original {
				selected := pos
				view.Selected = &selected
				break
			}
		}
	}
	return view
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the oldest snapshot so slow subscribers never block the session.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
