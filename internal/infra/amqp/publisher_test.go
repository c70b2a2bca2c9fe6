package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"quizwhiz-service/internal/app"
)

type fakeChannel struct {
	declared   []string
	kinds      []string
	published  []published
	declareErr error
	closed     bool
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name)
	c.kinds = append(c.kinds, kind)
	return c.declareErr
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	if _, err := newPublisher(ch, ""); err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != DefaultExchange || ch.kinds[0] != amqp.ExchangeTopic {
		t.Fatalf("expected default topic exchange, got %v %v", ch.declared, ch.kinds)
	}
}

func TestPublisherDeclareFailureClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("boom")}
	if _, err := newPublisher(ch, "events"); err == nil {
		t.Fatalf("expected declare error")
	}
	if !ch.closed {
		t.Fatalf("expected channel to be closed")
	}
}

func TestPublisherPublishesJSONEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "events")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	if err := p.Publish(context.Background(), "abc1234", app.EventQuizStarted, app.QuizStarted{QuizID: "abc1234", Questions: 8}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 {
		t.Fatalf("expected one message, got %d", len(ch.published))
	}
	got := ch.published[0]
	if got.exchange != "events" || got.key != "quiz.quiz_started" {
		t.Fatalf("unexpected routing: %s %s", got.exchange, got.key)
	}
	if got.msg.ContentType != "application/json" || got.msg.Type != app.EventQuizStarted {
		t.Fatalf("unexpected message headers: %+v", got.msg)
	}

	var body struct {
		QuizID  string `json:"quizId"`
		Event   string `json:"event"`
		Payload struct {
			Questions int `json:"questions"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(got.msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.QuizID != "abc1234" || body.Event != app.EventQuizStarted || body.Payload.Questions != 8 {
		t.Fatalf("unexpected body: %+v", body)
	}
}
