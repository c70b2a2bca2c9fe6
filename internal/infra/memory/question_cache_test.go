package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	store := NewQuestionStore(sampleBank(), 2)
	store.AddQuiz("quiz-1", 1, 2)
	loader := &countingStore{QuestionStore: store}
	cache := NewQuestionCache(loader, time.Minute)

	questions, err := cache.LoadQuestions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != 1 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if loader.loads() != 1 {
		t.Fatalf("expected loader once, got %d", loader.loads())
	}

	if _, err := cache.LoadQuestions(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load questions 2: %v", err)
	}
	if loader.loads() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.loads())
	}

	exists, err := cache.QuizExists(context.Background(), "quiz-1")
	if err != nil || !exists {
		t.Fatalf("expected cached quiz to exist, got %v %v", exists, err)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	store := NewQuestionStore(sampleBank(), 2)
	store.AddQuiz("quiz-1", 1)
	loader := &countingStore{QuestionStore: store}
	cache := NewQuestionCache(loader, time.Minute)

	now := time.Unix(1_700_000_000, 0)
	cache.clock = func() time.Time { return now }

	_, _ = cache.LoadQuestions(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.LoadQuestions(context.Background(), "quiz-1")
	if loader.loads() != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", loader.loads())
	}
}

func TestQuestionCacheUnknownQuiz(t *testing.T) {
	cache := NewQuestionCache(NewQuestionStore(sampleBank(), 2), time.Minute)
	if _, err := cache.LoadQuestions(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingStore struct {
	app.QuestionStore
	mu    sync.Mutex
	calls int
}

func (s *countingStore) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.QuestionStore.LoadQuestions(ctx, quizID)
}

func (s *countingStore) loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "What is 2 + 2?", Options: options("3", "4", "5", "22"), Correct: domain.OptionB},
		{ID: 2, Text: "Capital of France?", Options: options("Paris", "Rome", "Oslo", "Bern"), Correct: domain.OptionA},
		{ID: 3, Text: "Largest planet?", Options: options("Mars", "Venus", "Jupiter", "Earth"), Correct: domain.OptionC},
	}
}

func options(a, b, c, d string) map[domain.Option]string {
	return map[domain.Option]string{domain.OptionA: a, domain.OptionB: b, domain.OptionC: c, domain.OptionD: d}
}
