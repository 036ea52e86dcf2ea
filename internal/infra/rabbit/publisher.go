// Package rabbit publishes quiz lifecycle events to a RabbitMQ topic exchange.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"quiz-generator-service/internal/domain"
)

const (
	DefaultExchange = "quiz.events"

	QuizStartedRoutingKey   = "quiz.started"
	QuizCompletedRoutingKey = "quiz.completed"
)

// QuizEvent is the message body of every published event.
type QuizEvent struct {
	Type            string            `json:"type"`
	QuizID          string            `json:"quizId"`
	Owner           string            `json:"owner"`
	QuestionSetID   string            `json:"questionSetId"`
	Status          domain.QuizStatus `json:"status"`
	TotalQuestions  int               `json:"totalQuestions"`
	TimePerQuestion int               `json:"timePerQuestion"`
	Score           *int              `json:"score,omitempty"`
	OccurredAt      time.Time         `json:"occurredAt"`
}

// NewQuizEvent builds the event published for quiz under routingKey.
func NewQuizEvent(routingKey string, quiz domain.Quiz, at time.Time) QuizEvent {
	return QuizEvent{
		Type:            routingKey,
		QuizID:          quiz.ID,
		Owner:           quiz.Owner,
		QuestionSetID:   quiz.QuestionSetID,
		Status:          quiz.Status,
		TotalQuestions:  quiz.TotalQuestions,
		TimePerQuestion: quiz.TimePerQuestion,
		Score:           quiz.Score,
		OccurredAt:      at.UTC(),
	}
}

// Publisher implements app.EventPublisher over one AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	clock    func() time.Time

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to url and declares the durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, exchange: exchange, clock: time.Now, ch: ch}, nil
}

func (p *Publisher) QuizStarted(ctx context.Context, quiz domain.Quiz) error {
	return p.publish(ctx, QuizStartedRoutingKey, quiz)
}

func (p *Publisher) QuizCompleted(ctx context.Context, quiz domain.Quiz) error {
	return p.publish(ctx, QuizCompletedRoutingKey, quiz)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, quiz domain.Quiz) error {
	body, err := json.Marshal(NewQuizEvent(routingKey, quiz, p.clock()))
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    quiz.ID + "." + routingKey,
		Timestamp:    p.clock(),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
