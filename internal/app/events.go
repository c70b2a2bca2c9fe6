package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quizwhiz-service/internal/domain"
)

// Lifecycle events handed to an EventSink.
const (
	EventQuizCreated     = "quiz_created"
	EventQuizStarted     = "quiz_started"
	EventQuestionStarted = "question_started"
	EventQuizFinished    = "quiz_finished"
)

// EventSink receives quiz lifecycle events for consumers outside the room (notifications, analytics).
// Failures are logged by the service and never affect session state.
type EventSink interface {
	Publish(ctx context.Context, quizID, event string, payload any) error
}

type QuizCreated struct {
	QuizID    string `json:"quizId"`
	Questions int    `json:"questions"`
}

type QuizStarted struct {
	QuizID    string `json:"quizId"`
	Questions int    `json:"questions"`
}

type QuestionStarted struct {
	QuizID   string    `json:"quizId"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Deadline time.Time `json:"deadline"`
}

type QuizFinished struct {
	QuizID      string                    `json:"quizId"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type nopSink struct{}

func (nopSink) Publish(context.Context, string, string, any) error { return nil }

// ErrEventQueueFull is returned by AsyncSink.Publish when an event had to be dropped.
var ErrEventQueueFull = errors.New("event queue full")

// Defaults for AsyncSink.
const (
	DefaultEventBuffer  = 256
	DefaultEventTimeout = 2 * time.Second
)

type queuedEvent struct {
	quizID  string
	event   string
	payload any
}

// AsyncSink hands events to a slower sink from a single goroutine (Run), so publishing never blocks
// the scheduler or a request. Events that do not fit in the buffer are dropped.
type AsyncSink struct {
	sink    EventSink
	queue   chan queuedEvent
	timeout time.Duration
	logger  *slog.Logger
}

func NewAsyncSink(sink EventSink, buffer int, timeout time.Duration, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{
		sink:    sink,
		queue:   make(chan queuedEvent, buffer),
		timeout: timeout,
		logger:  logger,
	}
}

// Publish queues the event without blocking.
func (a *AsyncSink) Publish(_ context.Context, quizID, event string, payload any) error {
	select {
	case a.queue <- queuedEvent{quizID: quizID, event: event, payload: payload}:
		return nil
	default:
		return ErrEventQueueFull
	}
}

// Run delivers queued events until ctx is cancelled. Each delivery is bounded by the sink timeout.
func (a *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.queue:
			a.deliver(ctx, ev)
		}
	}
}

func (a *AsyncSink) deliver(ctx context.Context, ev queuedEvent) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.sink.Publish(ctx, ev.quizID, ev.event, ev.payload); err != nil {
		a.logger.Warn("deliver lifecycle event", "quiz_id", ev.quizID, "event", ev.event, "error", err)
	}
}
