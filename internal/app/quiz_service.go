package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quizwhiz-service/internal/domain"
)

// DefaultTimeLimit is how long each question stays open.
const DefaultTimeLimit = 15 * time.Second

// Room events pushed to clients.
const (
	EventJoinSuccess = "join_success"
	EventJoinError   = "join_error"
	EventStateUpdate = "state_update"
)

// SessionRepository is the process-wide table of live sessions (in-memory, Redis-aware, etc).
// Its own locking only protects the table; each Session guards its state.
type SessionRepository interface {
	LoadOrStore(session *Session) (*Session, bool)
	Get(quizID string) (*Session, bool)
	Bind(connectionID, quizID string)
	Unbind(connectionID string) (string, bool)
}

// QuestionStore owns the question bank and the fixed question order of every quiz.
type QuestionStore interface {
	CreateQuiz(ctx context.Context) (string, error)
	QuizExists(ctx context.Context, quizID string) (bool, error)
	LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// Broadcaster delivers payloads to the connections subscribed to a quiz room.
type Broadcaster interface {
	JoinRoom(connectionID, quizID string)
	PublishToRoom(quizID, event string, payload any)
	EmitToConnection(connectionID, event string, payload any)
}

// JoinAck is sent to a connection whose join was accepted.
type JoinAck struct {
	QuizID string `json:"quizId"`
}

// JoinError is sent to a connection whose join was rejected.
type JoinError struct {
	Message string `json:"message"`
}

// QuizService contains the quiz session use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionStore
	bus       Broadcaster
	sink      EventSink
	deadlines *DeadlineQueue
	timeLimit time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option customises a QuizService.
type Option func(*QuizService)

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithTimeLimit sets how long each question stays open.
func WithTimeLimit(limit time.Duration) Option {
	return func(s *QuizService) {
		if limit > 0 {
			s.timeLimit = limit
		}
	}
}

// WithEventSink publishes lifecycle events to sink.
func WithEventSink(sink EventSink) Option {
	return func(s *QuizService) { s.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *QuizService) { s.logger = logger }
}

func NewQuizService(store SessionRepository, questions QuestionStore, bus Broadcaster, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:  store,
		questions: questions,
		bus:       bus,
		sink:      nopSink{},
		deadlines: NewDeadlineQueue(),
		timeLimit: DefaultTimeLimit,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateQuiz asks the store for a new quiz and registers its pending session.
func (s *QuizService) CreateQuiz(ctx context.Context) (string, error) {
	quizID, err := s.questions.CreateQuiz(ctx)
	if err != nil {
		return "", fmt.Errorf("create quiz: %w", err)
	}
	session, err := s.loadSession(ctx, quizID)
	if err != nil {
		return "", err
	}
	s.logger.Info("quiz created", "quiz_id", quizID, "questions", session.QuestionCount())
	s.publish(ctx, quizID, EventQuizCreated, QuizCreated{QuizID: quizID, Questions: session.QuestionCount()})
	return quizID, nil
}

// Snapshot returns the current room state of a quiz.
func (s *QuizService) Snapshot(ctx context.Context, quizID string) (domain.StateSnapshot, error) {
	session, err := s.lookup(ctx, quizID)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// Join registers a connection as a participant. Rejections are emitted to that connection only.
func (s *QuizService) Join(ctx context.Context, quizID, connectionID, displayName string) error {
	quizID = strings.TrimSpace(quizID)
	session, err := s.lookup(ctx, quizID)
	if err != nil {
		s.rejectJoin(connectionID, err)
		return err
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		s.rejectJoin(connectionID, domain.ErrEmptyName)
		return domain.ErrEmptyName
	}

	s.bus.JoinRoom(connectionID, quizID)

	created, err := session.join(connectionID, name)
	if err != nil {
		s.rejectJoin(connectionID, err)
		return err
	}
	if created {
		s.sessions.Bind(connectionID, quizID)
		s.logger.Info("participant joined", "quiz_id", quizID, "connection_id", connectionID, "name", name)
	}

	s.bus.EmitToConnection(connectionID, EventJoinSuccess, JoinAck{QuizID: quizID})
	s.broadcast(session)
	return nil
}

// Start activates a pending quiz and opens its first question. Repeated starts are ignored.
func (s *QuizService) Start(ctx context.Context, quizID string) bool {
	session, ok := s.sessions.Get(strings.TrimSpace(quizID))
	if !ok {
		return false
	}
	tr, ok := session.start()
	if !ok {
		return false
	}
	s.afterAdvance(ctx, session, tr, true)
	return true
}

// Advance moves a quiz to its next question, or finishes it after the last one.
func (s *QuizService) Advance(ctx context.Context, quizID string) bool {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return false
	}
	tr, ok := session.advance()
	if !ok {
		return false
	}
	s.afterAdvance(ctx, session, tr, false)
	return true
}

// Expire advances every quiz whose question deadline has passed at now and returns how many moved.
// Each popped deadline is checked against the session's current deadline and clock, so stale entries
// are dropped and a deadline advances its quiz at most once.
func (s *QuizService) Expire(ctx context.Context, now time.Time) int {
	advanced := 0
	for _, due := range s.deadlines.PopDue(now) {
		session, ok := s.sessions.Get(due.QuizID)
		if !ok {
			continue
		}
		tr, result := session.expire(due.At)
		switch result {
		case expiryEarly:
			s.deadlines.Push(due.QuizID, due.At)
		case expiryAdvanced:
			advanced++
			s.logger.Debug("question expired", "quiz_id", due.QuizID)
			s.afterAdvance(ctx, session, tr, false)
		}
	}
	return advanced
}

// SubmitAnswer records a participant's answer to the current question.
// Late, repeated, malformed or unauthenticated answers are dropped without a broadcast.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, connectionID, answer string) bool {
	session, ok := s.sessions.Get(strings.TrimSpace(quizID))
	if !ok {
		return false
	}
	outcome, ok := session.submit(connectionID, answer)
	if !ok {
		s.logger.Debug("answer ignored", "quiz_id", session.ID(), "connection_id", connectionID)
		return false
	}
	s.logger.Debug("answer accepted",
		"quiz_id", session.ID(),
		"connection_id", connectionID,
		"index", outcome.Index,
		"correct", outcome.Correct,
		"awarded", outcome.Awarded,
		"elapsed", outcome.Elapsed,
	)
	s.broadcast(session)
	return true
}

// Disconnect removes a connection from the one quiz it joined.
func (s *QuizService) Disconnect(ctx context.Context, connectionID string) bool {
	quizID, ok := s.sessions.Unbind(connectionID)
	if !ok {
		return false
	}
	session, ok := s.sessions.Get(quizID)
	if !ok || !session.leave(connectionID) {
		return false
	}
	s.logger.Info("participant left", "quiz_id", quizID, "connection_id", connectionID)
	s.broadcast(session)
	return true
}

// lookup returns the live session, creating it from the store for quizzes made by an earlier process.
func (s *QuizService) lookup(ctx context.Context, quizID string) (*Session, error) {
	if quizID == "" {
		return nil, domain.ErrInvalidQuiz
	}
	if session, ok := s.sessions.Get(quizID); ok {
		return session, nil
	}
	exists, err := s.questions.QuizExists(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("check quiz %s: %w", quizID, err)
	}
	if !exists {
		return nil, domain.ErrInvalidQuiz
	}
	return s.loadSession(ctx, quizID)
}

func (s *QuizService) loadSession(ctx context.Context, quizID string) (*Session, error) {
	if session, ok := s.sessions.Get(quizID); ok {
		return session, nil
	}
	questions, err := s.questions.LoadQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions for %s: %w", quizID, err)
	}
	session, _ := s.sessions.LoadOrStore(newSessionWithClock(quizID, questions, s.timeLimit, s.now))
	return session, nil
}

// afterAdvance schedules the next deadline, pushes the new state to the room and then hands the
// lifecycle events to the sink.
func (s *QuizService) afterAdvance(ctx context.Context, session *Session, tr transition, started bool) {
	quizID := session.ID()
	if !tr.deadline.IsZero() {
		s.deadlines.Push(quizID, tr.deadline)
	}
	s.bus.PublishToRoom(quizID, EventStateUpdate, tr.snapshot)

	if started {
		s.logger.Info("quiz started", "quiz_id", quizID)
		s.publish(ctx, quizID, EventQuizStarted, QuizStarted{QuizID: quizID, Questions: session.QuestionCount()})
	}
	switch snap := tr.snapshot; {
	case snap.Finished:
		s.logger.Info("quiz finished", "quiz_id", quizID, "participants", len(snap.Leaderboard))
		s.publish(ctx, quizID, EventQuizFinished, QuizFinished{QuizID: quizID, Leaderboard: snap.Leaderboard})
	case snap.Question != nil:
		s.publish(ctx, quizID, EventQuestionStarted, QuestionStarted{
			QuizID:   quizID,
			Index:    snap.Question.Index,
			Total:    snap.Question.Total,
			Deadline: tr.deadline,
		})
	}
}

func (s *QuizService) broadcast(session *Session) {
	s.bus.PublishToRoom(session.ID(), EventStateUpdate, session.Snapshot())
}

func (s *QuizService) rejectJoin(connectionID string, err error) {
	s.logger.Debug("join rejected", "connection_id", connectionID, "error", err)
	s.bus.EmitToConnection(connectionID, EventJoinError, JoinError{Message: domain.JoinErrorMessage(err)})
}

func (s *QuizService) publish(ctx context.Context, quizID, event string, payload any) {
	if err := s.sink.Publish(ctx, quizID, event, payload); err != nil {
		s.logger.Warn("publish lifecycle event", "quiz_id", quizID, "event", event, "error", err)
	}
}
