package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/config"
	"quizwhiz-service/internal/infra/postgres"
	"quizwhiz-service/internal/infra/sqlite"
	"quizwhiz-service/internal/questionbank"
)

// questionStore is what the server needs from a SQL-backed bank.
type questionStore interface {
	app.QuestionStore
	questionbank.Store
}

// openQuestionStore picks Postgres when configured and SQLite otherwise.
// The returned func releases the store.
func openQuestionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (questionStore, func(), error) {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("using postgres question store")
		return postgres.NewQuestionStore(pool, cfg.Quiz.QuestionsPerQuiz), pool.Close, nil
	}

	store, err := sqlite.Open(ctx, cfg.SQLite.Path, cfg.Quiz.QuestionsPerQuiz)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite question store", "path", cfg.SQLite.Path)
	return store, func() { store.Close() }, nil
}

// questionSource prefers a configured MinIO object over the local CSV file.
func questionSource(cfg config.Config) (questionbank.Source, error) {
	m := cfg.Questions.Minio
	if m.Endpoint != "" {
		return questionbank.NewMinioSource(questionbank.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Object:    m.Object,
			UseSSL:    m.UseSSL,
		})
	}
	if cfg.Questions.CSV == "" {
		return nil, nil
	}
	return questionbank.FileSource{Path: cfg.Questions.CSV}, nil
}

func seedQuestions(ctx context.Context, cfg config.Config, store questionbank.Store, logger *slog.Logger) error {
	src, err := questionSource(cfg)
	if err != nil {
		return err
	}
	inserted, err := questionbank.Seed(ctx, store, src)
	if err != nil {
		return fmt.Errorf("seed question bank: %w", err)
	}
	if inserted > 0 {
		logger.Info("question bank seeded", "source", src.String(), "questions", inserted)
	}
	return nil
}
