package app

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"quiz-generator-service/internal/domain"
)

const defaultFetchConcurrency = 8

// OptionReview is one option of a reviewed question.
type OptionReview struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
	IsSelected bool   `json:"isSelected"`
}

// ResultItem pairs a stored answer with its question.
type ResultItem struct {
	Question domain.Question   `json:"question"`
	Answer   domain.QuizAnswer `json:"answer"`
}

// Matched reports whether the selected option was the correct one.
func (r ResultItem) Matched() bool {
	return r.Answer.SelectedIndex != nil && *r.Answer.SelectedIndex == r.Question.CorrectIndex
}

// Options returns every option marked correct and/or selected.
func (r ResultItem) Options() []OptionReview {
	out := make([]OptionReview, len(r.Question.Options))
	for i, text := range r.Question.Options {
		out[i] = OptionReview{
			Index:      i,
			Text:       text,
			IsCorrect:  i == r.Question.CorrectIndex,
			IsSelected: r.Answer.SelectedIndex != nil && *r.Answer.SelectedIndex == i,
		}
	}
	return out
}

// Results is the per-question review of a completed quiz, ordered by question index.
type Results struct {
	Quiz  domain.Quiz  `json:"quiz"`
	Items []ResultItem `json:"items"`
}

// Percentage is the rounded score over the quiz's total questions.
func (r Results) Percentage() int {
	if r.Quiz.TotalQuestions <= 0 || r.Quiz.Score == nil {
		return 0
	}
	return int(math.Round(float64(*r.Quiz.Score) / float64(r.Quiz.TotalQuestions) * 100))
}

func (r Results) CorrectCount() int {
	n := 0
	for _, item := range r.Items {
		if item.Answer.IsCorrect {
			n++
		}
	}
	return n
}

func (r Results) IncorrectCount() int {
	return len(r.Items) - r.CorrectCount()
}

func (r Results) TotalTimeTaken() int {
	total := 0
	for _, item := range r.Items {
		total += item.Answer.TimeTaken
	}
	return total
}

// AverageTimeTaken is the rounded mean time per reviewed answer.
func (r Results) AverageTimeTaken() int {
	if len(r.Items) == 0 {
		return 0
	}
	return int(math.Round(float64(r.TotalTimeTaken()) / float64(len(r.Items))))
}

// ResultsCompiler joins a completed quiz's answers with their questions. It never writes.
type ResultsCompiler struct {
	answers     AnswerRepository
	questions   QuestionLoader
	pageSize    int
	concurrency int
}

func NewResultsCompiler(answers AnswerRepository, questions QuestionLoader) *ResultsCompiler {
	return &ResultsCompiler{
		answers:     answers,
		questions:   questions,
		pageSize:    domain.DefaultPageSize,
		concurrency: defaultFetchConcurrency,
	}
}

// Compile builds the review. Answers whose question cannot be fetched are left out.
func (c *ResultsCompiler) Compile(ctx context.Context, quiz domain.Quiz) (Results, error) {
	if quiz.Status != domain.QuizCompleted {
		return Results{}, domain.ErrQuizInProgress
	}

	var (
		answers   []domain.QuizAnswer
		mu        sync.Mutex
		questions = make(map[string]domain.Question, len(quiz.QuestionIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := ListAll(gctx, c.pageSize, func(ctx context.Context, page domain.PageRequest) (domain.Page[domain.QuizAnswer], error) {
			return c.answers.ListAnswers(ctx, quiz.Owner, quiz.ID, page)
		})
		answers = all
		return err
	})

	fetch, fetchCtx := errgroup.WithContext(gctx)
	fetch.SetLimit(c.concurrency)
	g.Go(func() error {
		for _, id := range uniqueIDs(quiz.QuestionIDs) {
			id := id
			fetch.Go(func() error {
				q, err := c.questions.GetQuestion(fetchCtx, id)
				if err != nil {
					log.Printf("results for quiz %s: fetch question %s: %v", quiz.ID, id, err)
					return nil
				}
				mu.Lock()
				questions[id] = q
				mu.Unlock()
				return nil
			})
		}
		return fetch.Wait()
	})

	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].QuestionIndex < answers[j].QuestionIndex
	})
	items := make([]ResultItem, 0, len(answers))
	for _, answer := range answers {
		q, ok := questions[answer.QuestionID]
		if !ok {
			continue
		}
		items = append(items, ResultItem{Question: q, Answer: answer})
	}
	return Results{Quiz: quiz, Items: items}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
