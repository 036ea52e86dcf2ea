package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/domain"
)

type questionSetResponse struct {
	domain.QuestionSet
	QuestionCount int `json:"questionCount"`
}

type quizListResponse struct {
	Running   []domain.Quiz `json:"running"`
	Completed []domain.Quiz `json:"completed"`
}

type finishResponse struct {
	Quiz       domain.Quiz `json:"quiz"`
	ResultsURL string      `json:"resultsUrl"`
}

type resultItemResponse struct {
	QuestionIndex int                `json:"questionIndex"`
	QuestionID    string             `json:"questionId"`
	Text          string             `json:"text"`
	Options       []app.OptionReview `json:"options"`
	SelectedIndex *int               `json:"selectedIndex"`
	IsCorrect     bool               `json:"isCorrect"`
	TimeTaken     int                `json:"timeTaken"`
	Explanation   string             `json:"explanation,omitempty"`
}

type resultsResponse struct {
	Quiz             domain.Quiz          `json:"quiz"`
	Score            int                  `json:"score"`
	TotalQuestions   int                  `json:"totalQuestions"`
	Percentage       int                  `json:"percentage"`
	Correct          int                  `json:"correct"`
	Incorrect        int                  `json:"incorrect"`
	TotalTimeTaken   int                  `json:"totalTimeTaken"`
	AverageTimeTaken int                  `json:"averageTimeTaken"`
	Items            []resultItemResponse `json:"items"`
}

type selectRequest struct {
	Option *int `json:"option"`
}

type goToRequest struct {
	Index *int `json:"index"`
}

func (h *Handler) listQuestionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.ListQuestionSets(r.Context())
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sets})
}

func (h *Handler) getQuestionSet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	set, err := h.service.GetQuestionSet(r.Context(), id)
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	count, err := h.service.CountQuestions(r.Context(), id)
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, questionSetResponse{QuestionSet: set, QuestionCount: count})
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var params app.CreateQuizParams
	if err := decodeBody(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), currentUser(r), params)
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	w.Header().Set("Location", sessionPath(quiz.ID))
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, splitQuizzes(quizzes))
}

func splitQuizzes(quizzes []domain.Quiz) quizListResponse {
	running, completed := app.SplitByStatus(quizzes)
	resp := quizListResponse{Running: running, Completed: completed}
	if resp.Running == nil {
		resp.Running = []domain.Quiz{}
	}
	if resp.Completed == nil {
		resp.Completed = []domain.Quiz{}
	}
	return resp
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quiz, err := h.service.GetQuiz(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// withSession resolves the caller's live session and runs fn on it. On success
// the fresh snapshot is returned.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(*app.Session) error) {
	id := mux.Vars(r)["id"]
	session, err := h.service.OpenSession(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	if fn != nil {
		if err := fn(session); err != nil {
			writeServiceError(w, id, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, nil)
}

func (h *Handler) selectOption(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil || req.Option == nil {
		writeError(w, http.StatusBadRequest, "option is required")
		return
	}
	h.withSession(w, r, func(s *app.Session) error { return s.Select(*req.Option) })
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *app.Session) error { return s.Next(r.Context()) })
}

func (h *Handler) previous(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *app.Session) error { return s.Previous(r.Context()) })
}

func (h *Handler) goTo(w http.ResponseWriter, r *http.Request) {
	var req goToRequest
	if err := decodeBody(r, &req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	h.withSession(w, r, func(s *app.Session) error { return s.GoTo(r.Context(), *req.Index) })
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := h.service.OpenSession(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	quiz, err := session.Finish(r.Context())
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	w.Header().Set("Location", resultsPath(id))
	writeJSON(w, http.StatusOK, finishResponse{Quiz: quiz, ResultsURL: resultsPath(id)})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := h.service.Results(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultsResponse(res))
}

func newResultsResponse(res app.Results) resultsResponse {
	resp := resultsResponse{
		Quiz:             res.Quiz,
		TotalQuestions:   res.Quiz.TotalQuestions,
		Percentage:       res.Percentage(),
		Correct:          res.CorrectCount(),
		Incorrect:        res.IncorrectCount(),
		TotalTimeTaken:   res.TotalTimeTaken(),
		AverageTimeTaken: res.AverageTimeTaken(),
		Items:            make([]resultItemResponse, 0, len(res.Items)),
	}
	if res.Quiz.Score != nil {
		resp.Score = *res.Quiz.Score
	}
	for _, item := range res.Items {
		resp.Items = append(resp.Items, resultItemResponse{
			QuestionIndex: item.Answer.QuestionIndex,
			QuestionID:    item.Question.ID,
			Text:          item.Question.Text,
			Options:       item.Options(),
			SelectedIndex: item.Answer.SelectedIndex,
			IsCorrect:     item.Answer.IsCorrect,
			TimeTaken:     item.Answer.TimeTaken,
			Explanation:   item.Question.Explanation,
		})
	}
	return resp
}
