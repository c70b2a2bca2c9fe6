package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

// QuestionStore keeps the bank and quiz orders in memory (useful for tests/demos).
type QuestionStore struct {
	perQuiz int

	mu      sync.Mutex
	rnd     *rand.Rand
	bank    []domain.Question
	quizzes map[string][]int64
}

func NewQuestionStore(bank []domain.Question, perQuiz int) *QuestionStore {
	return &QuestionStore{
		perQuiz: perQuiz,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		bank:    bank,
		quizzes: make(map[string][]int64),
	}
}

// AddQuiz registers a quiz with a fixed question order.
func (s *QuestionStore) AddQuiz(quizID string, questionIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quizID] = append([]int64(nil), questionIDs...)
}

// CreateQuiz samples perQuiz distinct questions in random order.
func (s *QuestionStore) CreateQuiz(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.bank) == 0 {
		return "", domain.ErrNotEnoughQuestions
	}
	n := s.perQuiz
	if n <= 0 || n > len(s.bank) {
		n = len(s.bank)
	}
	ids := make([]int64, 0, n)
	for _, i := range s.rnd.Perm(len(s.bank))[:n] {
		ids = append(ids, s.bank[i].ID)
	}

	quizID := app.NewQuizID()
	s.quizzes[quizID] = ids
	return quizID, nil
}

func (s *QuestionStore) QuizExists(_ context.Context, quizID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.quizzes[quizID]
	return ok, nil
}

func (s *QuestionStore) LoadQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	byID := make(map[int64]domain.Question, len(s.bank))
	for _, q := range s.bank {
		byID[q.ID] = q
	}
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// CountQuestions returns the size of the bank.
func (s *QuestionStore) CountQuestions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bank), nil
}

// InsertQuestions appends to the bank, assigning ids after the current maximum.
func (s *QuestionStore) InsertQuestions(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next int64
	for _, q := range s.bank {
		if q.ID > next {
			next = q.ID
		}
	}
	for _, q := range questions {
		next++
		q.ID = next
		s.bank = append(s.bank, q)
	}
	return nil
}
