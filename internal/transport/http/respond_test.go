package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-generator-service/internal/domain"
)

func TestWriteServiceErrorSplitsUnavailableQuestions(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing question", fmt.Errorf("%w: question q1: %w", domain.ErrQuestionsUnavailable, domain.ErrQuestionNotFound), http.StatusNotFound},
		{"backend failure", fmt.Errorf("%w: question q1: %w", domain.ErrQuestionsUnavailable, errors.New("connection refused")), http.StatusServiceUnavailable},
		{"empty sequence", domain.ErrQuestionsUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, "quiz-1", tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}
