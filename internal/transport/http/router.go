package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/auth"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/preferences"
)

// Handler serves the REST and WebSocket surface of the quiz service.
type Handler struct {
	service  *app.QuizService
	authn    *auth.Authenticator
	prefs    *preferences.Store
	upgrader websocket.Upgrader
}

func NewHandler(service *app.QuizService, authn *auth.Authenticator, prefs *preferences.Store) *Handler {
	return &Handler{
		service: service,
		authn:   authn,
		prefs:   prefs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router wires every route. Everything except /healthz requires a token.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.authn.Middleware)
	api.HandleFunc("/auth/signout", h.signOut).Methods(http.MethodPost)
	api.HandleFunc("/question-sets", h.listQuestionSets).Methods(http.MethodGet)
	api.HandleFunc("/question-sets/{id}", h.getQuestionSet).Methods(http.MethodGet)
	api.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes", h.listQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}/session", h.openSession).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}/session/select", h.selectOption).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/session/next", h.next).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/session/previous", h.previous).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/session/goto", h.goTo).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/session/finish", h.finish).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/results", h.results).Methods(http.MethodGet)
	api.HandleFunc("/preferences", h.getPreferences).Methods(http.MethodGet)
	api.HandleFunc("/preferences", h.updatePreferences).Methods(http.MethodPut)

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(h.authn.Middleware)
	ws.HandleFunc("/quizzes", h.ServeQuizFeed)
	ws.HandleFunc("/quizzes/{id}", h.ServeSession)
	return r
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authn.SignOut(r.Context(), auth.TokenFrom(r)); err != nil {
		writeServiceError(w, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentUser is set by the auth middleware on every routed request.
func currentUser(r *http.Request) domain.User {
	user, _ := auth.UserFrom(r.Context())
	return user
}
