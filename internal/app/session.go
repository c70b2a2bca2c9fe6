package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"quizwhiz-service/internal/domain"
)

// Session is the in-memory state of one quiz being played.
// Every mutation and every snapshot runs under mu, so observers never see half of a join, answer or advance.
type Session struct {
	id        string
	questions []domain.Question
	timeLimit time.Duration
	now       func() time.Time

	mu           sync.Mutex
	state        domain.SessionState
	current      int
	startedAt    time.Time
	deadline     time.Time
	participants map[string]*domain.Participant
	answers      map[answerKey]domain.Option
}

type answerKey struct {
	connectionID string
	index        int
}

// AnswerOutcome describes an accepted answer.
type AnswerOutcome struct {
	Index   int
	Correct bool
	Awarded int
	Elapsed time.Duration
	Score   int
}

// NewSession creates a pending session over a fixed, ordered list of questions.
func NewSession(id string, questions []domain.Question, timeLimit time.Duration) *Session {
	return newSessionWithClock(id, questions, timeLimit, time.Now)
}

func newSessionWithClock(id string, questions []domain.Question, timeLimit time.Duration, now func() time.Time) *Session {
	// the question list never changes after creation
	fixed := make([]domain.Question, len(questions))
	copy(fixed, questions)
	return &Session{
		id:           id,
		questions:    fixed,
		timeLimit:    timeLimit,
		now:          now,
		state:        domain.StatePending,
		current:      -1,
		participants: make(map[string]*domain.Participant),
		answers:      make(map[answerKey]domain.Option),
	}
}

// ID returns the quiz id the session belongs to.
func (s *Session) ID() string {
	return s.id
}

// QuestionCount is the number of questions fixed at creation.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// State reports the lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// join adds a participant. A repeated join from the same connection is accepted without changes.
func (s *Session) join(connectionID, displayName string) (bool, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return false, domain.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connectionID]; ok {
		return false, nil
	}
	for _, p := range s.participants {
		if strings.EqualFold(p.DisplayName, name) {
			return false, domain.ErrDuplicateName
		}
	}
	s.participants[connectionID] = &domain.Participant{
		ConnectionID: connectionID,
		DisplayName:  name,
	}
	return true, nil
}

// transition is one move of the question index, captured under the session lock so the pushed
// state and the lifecycle events describe the same step.
type transition struct {
	deadline time.Time
	snapshot domain.StateSnapshot
}

// expiry is the result of checking one scheduled deadline against a session.
type expiry int

const (
	// expiryStale: the session already moved past this deadline, or is not active.
	expiryStale expiry = iota
	// expiryEarly: the deadline is current but the session clock has not reached it yet.
	expiryEarly
	expiryAdvanced
)

// start moves a pending session to active and opens the first question.
func (s *Session) start() (transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePending {
		return transition{}, false
	}
	s.state = domain.StateActive
	return s.advanceLocked()
}

func (s *Session) advance() (transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked()
}

// expire advances the session past the deadline at, which must be the current question's deadline
// and must have been reached by the session clock. A deadline advances the session at most once.
func (s *Session) expire(at time.Time) (transition, expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive || s.deadline.IsZero() || !s.deadline.Equal(at) {
		return transition{}, expiryStale
	}
	if s.now().Before(at) {
		return transition{}, expiryEarly
	}
	tr, _ := s.advanceLocked()
	return tr, expiryAdvanced
}

// advanceLocked is the only place the question index moves. The returned deadline is zero once the
// session has finished.
func (s *Session) advanceLocked() (transition, bool) {
	if s.state == domain.StateFinished {
		return transition{}, false
	}

	s.current++
	s.answers = make(map[answerKey]domain.Option)
	if s.current >= len(s.questions) {
		s.state = domain.StateFinished
		s.startedAt = time.Time{}
		s.deadline = time.Time{}
	} else {
		now := s.now()
		s.startedAt = now
		s.deadline = now.Add(s.timeLimit)
	}
	return transition{deadline: s.deadline, snapshot: s.snapshotLocked()}, true
}

// submit records an answer for the current question. Anything that is not a valid first answer
// from a joined participant to an open question is ignored.
func (s *Session) submit(connectionID, answer string) (AnswerOutcome, bool) {
	selected, ok := domain.ParseOption(answer)
	if !ok {
		return AnswerOutcome{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return AnswerOutcome{}, false
	}
	participant, ok := s.participants[connectionID]
	if !ok {
		return AnswerOutcome{}, false
	}
	index := s.current
	if index < 0 || index >= len(s.questions) {
		return AnswerOutcome{}, false
	}
	key := answerKey{connectionID: connectionID, index: index}
	if _, answered := s.answers[key]; answered {
		return AnswerOutcome{}, false
	}

	elapsed := s.now().Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	participant.AnsweredCount++
	participant.TotalAnswerTime += elapsed

	outcome := AnswerOutcome{Index: index, Elapsed: elapsed}
	if s.questions[index].IsCorrect(selected) {
		outcome.Correct = true
		outcome.Awarded = Points(elapsed)
		participant.Score += outcome.Awarded
		participant.CorrectCount++
	}
	outcome.Score = participant.Score
	s.answers[key] = selected
	return outcome, true
}

// leave removes a participant. The lifecycle state is never touched, even when the table empties.
func (s *Session) leave(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[connectionID]; !ok {
		return false
	}
	delete(s.participants, connectionID)
	return true
}

// Snapshot returns the full room state.
func (s *Session) Snapshot() domain.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Leaderboard returns the ranked participants.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Session) snapshotLocked() domain.StateSnapshot {
	snap := domain.StateSnapshot{
		QuizID:      s.id,
		Started:     s.state != domain.StatePending,
		Finished:    s.state == domain.StateFinished,
		Leaderboard: s.leaderboardLocked(),
		TimeLimit:   int(s.timeLimit / time.Second),
	}
	if s.state == domain.StateActive && s.current >= 0 && s.current < len(s.questions) {
		q := s.questions[s.current]
		options := make(map[domain.Option]string, len(domain.Options))
		for _, opt := range domain.Options {
			options[opt] = q.Options[opt]
		}
		snap.Question = &domain.QuestionView{
			Index:   s.current,
			Total:   len(s.questions),
			ID:      q.ID,
			Text:    q.Text,
			Options: options,
		}
	}
	if !s.deadline.IsZero() {
		deadline := epochSeconds(s.deadline)
		snap.Deadline = &deadline
	}
	return snap
}

func (s *Session) leaderboardLocked() []domain.LeaderboardEntry {
	ranked := make([]*domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return rankBefore(ranked[i], ranked[j])
	})

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for _, p := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Name:     p.DisplayName,
			Score:    p.Score,
			Correct:  p.CorrectCount,
			Answered: p.AnsweredCount,
		})
	}
	return entries
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
