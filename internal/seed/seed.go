// Package seed creates question sets and their questions from the built-in
// banks or an imported workbook.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"quiz-generator-service/internal/domain"
)

// ErrNoMatch is returned when a selection names no known bank.
var ErrNoMatch = errors.New("selection matches no question set")

// Store is the subset of the data store the seeder writes to.
type Store interface {
	CreateQuestionSet(ctx context.Context, set domain.QuestionSet) (domain.QuestionSet, error)
	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
}

// Selection chooses banks by flag key or by key/name.
type Selection struct {
	All   bool
	Keys  []string
	Names []string
}

func (s Selection) empty() bool {
	return !s.All && len(s.Keys) == 0 && len(s.Names) == 0
}

// Select returns the banks chosen by sel in the order of banks. An empty
// selection means all of them. Every key and name must match a bank.
func Select(banks []Bank, sel Selection) ([]Bank, error) {
	if sel.All || sel.empty() {
		if len(banks) == 0 {
			return nil, ErrNoMatch
		}
		return banks, nil
	}

	chosen := make(map[int]bool)
	var unknown []string
	for _, want := range append(append([]string(nil), sel.Keys...), sel.Names...) {
		matched := false
		for i, b := range banks {
			if strings.EqualFold(b.Key, want) || strings.EqualFold(b.Name, want) {
				chosen[i] = true
				matched = true
			}
		}
		if !matched {
			unknown = append(unknown, want)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, strings.Join(unknown, ", "))
	}

	out := make([]Bank, 0, len(chosen))
	for i, b := range banks {
		if chosen[i] {
			out = append(out, b)
		}
	}
	return out, nil
}

// SetReport is the outcome for one bank.
type SetReport struct {
	Name  string
	SetID string
	Added int
	Total int
	Err   error
}

// Report summarizes a seeding run.
type Report struct {
	Sets []SetReport
}

// Added is the number of questions created across all sets.
func (r Report) Added() int {
	n := 0
	for _, s := range r.Sets {
		n += s.Added
	}
	return n
}

// Failed reports whether any set or question could not be created.
func (r Report) Failed() bool {
	for _, s := range r.Sets {
		if s.Err != nil || s.Added < s.Total {
			return true
		}
	}
	return false
}

type Seeder struct {
	store Store
	log   *log.Logger
}

// NewSeeder writes progress to out.
func NewSeeder(store Store, out io.Writer) *Seeder {
	return &Seeder{store: store, log: log.New(out, "", 0)}
}

// Run creates every bank as an active question set. A failing set or
// question is logged and skipped.
func (s *Seeder) Run(ctx context.Context, banks []Bank) Report {
	var report Report
	for _, bank := range banks {
		report.Sets = append(report.Sets, s.seedBank(ctx, bank))
	}
	s.log.Printf("Seed complete: %d questions added", report.Added())
	return report
}

func (s *Seeder) seedBank(ctx context.Context, bank Bank) SetReport {
	rep := SetReport{Name: bank.Name, Total: len(bank.Questions)}
	s.log.Printf("Creating question set: %s", bank.Name)

	difficulty := domain.DifficultyMedium
	if bank.Difficulty != "" {
		d, err := domain.ParseDifficulty(bank.Difficulty)
		if err != nil {
			rep.Err = err
			s.log.Printf("  failed to create question set %s: %v", bank.Name, err)
			return rep
		}
		difficulty = d
	}

	set, err := s.store.CreateQuestionSet(ctx, domain.QuestionSet{
		Name:        bank.Name,
		Description: bank.Description,
		Category:    bank.Category,
		Difficulty:  difficulty,
		IsActive:    true,
	})
	if err != nil {
		rep.Err = err
		s.log.Printf("  failed to create question set %s: %v", bank.Name, err)
		return rep
	}
	rep.SetID = set.ID
	s.log.Printf("  Created set with ID: %s", set.ID)

	for i, q := range bank.Questions {
		_, err := s.store.CreateQuestion(ctx, domain.Question{
			QuestionSetID: set.ID,
			Text:          q.Text,
			Options:       q.Options,
			CorrectIndex:  q.CorrectIndex,
			Explanation:   q.Explanation,
		})
		if err != nil {
			s.log.Printf("  failed to create question %d: %v", i+1, err)
			continue
		}
		rep.Added++
	}
	s.log.Printf("  Added %d/%d questions", rep.Added, rep.Total)
	return rep
}
