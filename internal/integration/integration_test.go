package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/cli"
	"quizwhiz-service/internal/domain"
	"quizwhiz-service/internal/infra/postgres"
	infraredis "quizwhiz-service/internal/infra/redis"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := cli.MigratePostgres(ctx, pgURL, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := postgres.NewQuestionStore(pool, 2)
	if err := store.InsertQuestions(ctx, sampleBank()); err != nil {
		t.Fatalf("insert questions: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	bus := &recorder{}
	service := app.NewQuizService(
		infraredis.NewSessionStore(redisClient, 5*time.Minute),
		infraredis.NewQuestionCache(redisClient, store, 5*time.Minute),
		bus,
		app.WithClock(clock),
		app.WithLogger(logger),
	)

	quizID, err := service.CreateQuiz(ctx)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if err := service.Join(ctx, quizID, "c1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := service.Join(ctx, quizID, "c2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !service.Start(ctx, quizID) {
		t.Fatalf("expected start to be accepted")
	}

	snap, err := service.Snapshot(ctx, quizID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Question == nil || snap.Question.Total != 2 {
		t.Fatalf("expected two-question quiz, got %+v", snap.Question)
	}

	now = now.Add(2 * time.Second)
	if !service.SubmitAnswer(ctx, quizID, "c2", string(correctFor(snap.Question.ID))) {
		t.Fatalf("expected bob's answer to be accepted")
	}
	snap, _ = service.Snapshot(ctx, quizID)
	if snap.Leaderboard[0].Name != "Bob" || snap.Leaderboard[0].Score != 88 {
		t.Fatalf("expected bob leading with 88, got %+v", snap.Leaderboard)
	}

	now = now.Add(15 * time.Second)
	scheduler := app.NewScheduler(service, time.Second)
	if scheduler.Tick(ctx) != 1 {
		t.Fatalf("expected the expired question to advance")
	}
	now = now.Add(15 * time.Second)
	scheduler.Tick(ctx)

	snap, _ = service.Snapshot(ctx, quizID)
	if !snap.Finished || snap.Question != nil || snap.Deadline != nil {
		t.Fatalf("expected finished quiz, got %+v", snap)
	}

	// a fresh process restores the quiz from postgres through the redis cache
	restarted := app.NewQuizService(
		infraredis.NewSessionStore(redisClient, 5*time.Minute),
		infraredis.NewQuestionCache(redisClient, store, 5*time.Minute),
		&recorder{},
		app.WithLogger(logger),
	)
	if err := restarted.Join(ctx, quizID, "c9", "Carol"); err != nil {
		t.Fatalf("join restored quiz: %v", err)
	}
	snap, _ = restarted.Snapshot(ctx, quizID)
	if snap.Started || len(snap.Leaderboard) != 1 {
		t.Fatalf("expected a pending session with Carol, got %+v", snap)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) JoinRoom(string, string) {}

func (r *recorder) PublishToRoom(_, event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) EmitToConnection(_, event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleBank() []domain.Question {
	opts := func(a, b, c, d string) map[domain.Option]string {
		return map[domain.Option]string{domain.OptionA: a, domain.OptionB: b, domain.OptionC: c, domain.OptionD: d}
	}
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: opts("3", "4", "5", "22"), Correct: domain.OptionB},
		{Text: "Capital of France?", Options: opts("Paris", "Rome", "Oslo", "Bern"), Correct: domain.OptionA},
		{Text: "Largest planet?", Options: opts("Mars", "Venus", "Jupiter", "Earth"), Correct: domain.OptionC},
	}
}

func correctFor(questionID int64) domain.Option {
	// ids are assigned in insert order
	bank := sampleBank()
	return bank[questionID-1].Correct
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
