package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"quiz-generator-service/internal/domain"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeBody decodes a JSON body into dst; an empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func sessionPath(quizID string) string { return "/api/quizzes/" + quizID + "/session" }
func resultsPath(quizID string) string { return "/api/quizzes/" + quizID + "/results" }

// writeServiceError maps use-case errors onto status codes. Completed and
// in-progress conflicts point the client at the route that does apply.
func writeServiceError(w http.ResponseWriter, quizID string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, domain.ErrQuizCompleted):
		if quizID != "" {
			w.Header().Set("Location", resultsPath(quizID))
		}
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuizInProgress):
		if quizID != "" {
			w.Header().Set("Location", sessionPath(quizID))
		}
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionSetNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrQuestionIndexOutOfRange),
		errors.Is(err, domain.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSubmissionInProgress),
		errors.Is(err, domain.ErrNotLastQuestion),
		errors.Is(err, domain.ErrTimeExpired),
		errors.Is(err, domain.ErrSessionNotReady),
		errors.Is(err, domain.ErrAnswerExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuestionsUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
