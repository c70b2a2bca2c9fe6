package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange receives every quiz lifecycle event.
const DefaultExchange = "quizwhiz.events"

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends lifecycle events to a topic exchange with routing key "quiz.<event>".
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch channel
}

type envelope struct {
	QuizID  string `json:"quizId"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, quizID, event string, payload any) error {
	body, err := json.Marshal(envelope{QuizID: quizID, Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    quizID,
			Type:         event,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// RoutingKey maps an event name onto the exchange's routing key.
func RoutingKey(event string) string {
	return "quiz." + event
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
