package questionbank

import (
	"context"
	"fmt"

	"quizwhiz-service/internal/domain"
)

// Store is the part of a question store the seeder needs.
type Store interface {
	CountQuestions(ctx context.Context) (int, error)
	InsertQuestions(ctx context.Context, questions []domain.Question) error
}

// Seed fills an empty store from src and returns how many questions were inserted.
// A store that already has questions is left alone and src is not read.
func Seed(ctx context.Context, store Store, src Source) (int, error) {
	count, err := store.CountQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	if src == nil {
		return 0, domain.ErrNoQuestionSource
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer rc.Close()

	questions, err := Parse(rc)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", src, err)
	}
	if len(questions) == 0 {
		return 0, fmt.Errorf("%s: %w", src, domain.ErrNotEnoughQuestions)
	}
	if err := store.InsertQuestions(ctx, questions); err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(questions), nil
}
