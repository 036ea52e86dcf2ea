package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"quiz-generator-service/internal/app"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type optionPayload struct {
	Option int `json:"option"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

// ServeSession upgrades to a websocket bound to the caller's quiz session.
// Snapshots are pushed on every change, including countdown ticks.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["id"]
	session, err := h.service.OpenSession(r.Context(), currentUser(r), quizID)
	if err != nil {
		writeServiceError(w, quizID, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, session, inbound); err != nil {
			select {
			case send <- errorMessage(err.Error()):
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *Handler) dispatch(ctx context.Context, session *app.Session, msg inboundMessage) error {
	switch msg.Type {
	case "select":
		var payload optionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.Select(payload.Option)
	case "next":
		return session.Next(ctx)
	case "previous":
		return session.Previous(ctx)
	case "goto":
		var payload indexPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.GoTo(ctx, payload.Index)
	case "finish":
		_, err := session.Finish(ctx)
		return err
	default:
		return errUnsupportedMessage
	}
}

// ServeQuizFeed pushes the caller's quiz list, split by status, on every change.
func (h *Handler) ServeQuizFeed(w http.ResponseWriter, r *http.Request) {
	updates, cancel, err := h.service.WatchQuizzes(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case quizzes, ok := <-updates:
			if !ok {
				return
			}
			msg := outboundMessage[quizListResponse]{Type: "quizzes", Payload: splitQuizzes(quizzes)}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}

var (
	errInvalidPayload     = errors.New("invalid payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)
