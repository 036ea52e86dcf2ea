package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-generator-service/internal/domain"
)

func TestStoreScopesQuizzesToOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, "alice")

	if _, err := store.GetQuiz(ctx, "alice", quiz.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := store.GetQuiz(ctx, "bob", quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	page, err := store.ListQuizzes(ctx, "bob", domain.QuizFilter{}, domain.PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no quizzes for bob, got %d", len(page.Items))
	}
}

func TestStoreRejectsDuplicateAnswerPosition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, "alice")

	answer := domain.QuizAnswer{Owner: "alice", QuizID: quiz.ID, QuestionID: quiz.QuestionIDs[0], QuestionIndex: 0}
	if _, err := store.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := store.CreateAnswer(ctx, answer); !errors.Is(err, domain.ErrAnswerExists) {
		t.Fatalf("expected ErrAnswerExists, got %v", err)
	}
}

func TestStoreRejectsUpdateOfCompletedQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, "alice")

	status := domain.QuizCompleted
	score := 1
	now := time.Now()
	if _, err := store.UpdateQuiz(ctx, "alice", quiz.ID, domain.QuizUpdate{Status: &status, Score: &score, CompletedAt: &now}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	index := 1
	if _, err := store.UpdateQuiz(ctx, "alice", quiz.ID, domain.QuizUpdate{CurrentQuestionIndex: &index}); !errors.Is(err, domain.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted, got %v", err)
	}
}

func TestStoreValidatesWrites(t *testing.T) {
	store := NewStore()
	_, err := store.CreateQuestionSet(context.Background(), domain.QuestionSet{Category: "x"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStorePaginates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	set, err := store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "Set", Category: "Cat", IsActive: true})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.CreateQuestion(ctx, domain.Question{QuestionSetID: set.ID, Text: "q", Options: []string{"a", "b"}}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	seen := 0
	req := domain.PageRequest{Limit: 2}
	pages := 0
	for {
		page, err := store.ListQuestions(ctx, set.ID, req)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		pages++
		seen += len(page.Items)
		if page.NextToken == "" {
			break
		}
		req.NextToken = page.NextToken
	}
	if seen != 5 || pages != 3 {
		t.Fatalf("expected 5 items over 3 pages, got %d over %d", seen, pages)
	}

	if _, err := store.ListQuestions(ctx, set.ID, domain.PageRequest{NextToken: "%%%"}); !errors.Is(err, domain.ErrInvalidCursor) {
		t.Fatalf("expected invalid cursor, got %v", err)
	}
}

func seedQuiz(t *testing.T, store *Store, owner string) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	set, err := store.CreateQuestionSet(ctx, domain.QuestionSet{Name: "Set", Category: "Cat", IsActive: true})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	var ids []string
	for i := 0; i < 2; i++ {
		q, err := store.CreateQuestion(ctx, domain.Question{QuestionSetID: set.ID, Text: "q", Options: []string{"a", "b"}, CorrectIndex: 1})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{
		Owner:           owner,
		QuestionSetID:   set.ID,
		Status:          domain.QuizInProgress,
		TotalQuestions:  2,
		TimePerQuestion: 30,
		QuestionIDs:     ids,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}
