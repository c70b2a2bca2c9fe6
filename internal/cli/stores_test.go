package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"quizwhiz-service/internal/config"
	"quizwhiz-service/internal/domain"
	"quizwhiz-service/internal/questionbank"
)

func TestOpenSQLiteStoreAndSeed(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "quizwhiz.db")
	cfg.Questions.CSV = filepath.Join("..", "..", "data", "questions.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, release, err := openQuestionStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer release()

	if err := seedQuestions(ctx, cfg, store, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, err := store.CountQuestions(ctx)
	if err != nil || n == 0 {
		t.Fatalf("expected seeded questions, got %d %v", n, err)
	}

	// seeding again leaves the bank alone
	if err := seedQuestions(ctx, cfg, store, logger); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	again, _ := store.CountQuestions(ctx)
	if again != n {
		t.Fatalf("expected %d questions after reseed, got %d", n, again)
	}

	quizID, err := store.CreateQuiz(ctx)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	questions, err := store.LoadQuestions(ctx, quizID)
	if err != nil || len(questions) != cfg.Quiz.QuestionsPerQuiz {
		t.Fatalf("expected %d questions, got %d %v", cfg.Quiz.QuestionsPerQuiz, len(questions), err)
	}
}

func TestSeedFailsWithoutSource(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "quizwhiz.db")
	cfg.Questions.CSV = filepath.Join(t.TempDir(), "missing.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, release, err := openQuestionStore(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer release()

	if err := seedQuestions(ctx, cfg, store, logger); !errors.Is(err, domain.ErrNoQuestionSource) {
		t.Fatalf("expected ErrNoQuestionSource, got %v", err)
	}
}

func TestQuestionSourcePrefersMinio(t *testing.T) {
	cfg := config.Defaults()
	src, err := questionSource(cfg)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, ok := src.(questionbank.FileSource); !ok {
		t.Fatalf("expected file source, got %T", src)
	}

	cfg.Questions.Minio.Endpoint = "localhost:9000"
	cfg.Questions.Minio.Bucket = "quizwhiz"
	cfg.Questions.Minio.Object = "questions.csv"
	src, err = questionSource(cfg)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, ok := src.(*questionbank.MinioSource); !ok {
		t.Fatalf("expected minio source, got %T", src)
	}
}
