package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/config"
	amqpevents "quizwhiz-service/internal/infra/amqp"
	"quizwhiz-service/internal/infra/memory"
	redisinfra "quizwhiz-service/internal/infra/redis"
	transport "quizwhiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	store, release, err := openQuestionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	if err := seedQuestions(ctx, cfg, store, logger); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}

	var questions app.QuestionStore
	var sessions app.SessionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, store, cfg.CacheTTL())
		sessions = redisinfra.NewSessionStore(redisClient, cfg.RedisTTL())
	} else {
		questions = memory.NewQuestionCache(store, cfg.CacheTTL())
		sessions = memory.NewSessionStore()
	}

	opts := []app.Option{
		app.WithTimeLimit(cfg.TimeLimit()),
		app.WithLogger(logger),
	}
	var events *app.AsyncSink
	if cfg.AMQP.URL != "" {
		publisher, err := amqpevents.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = app.NewAsyncSink(publisher, app.DefaultEventBuffer, app.DefaultEventTimeout, logger)
		opts = append(opts, app.WithEventSink(events))
		logger.Info("publishing lifecycle events", "exchange", cfg.AMQP.Exchange)
	}

	hub := transport.NewHub(logger)
	service := app.NewQuizService(sessions, questions, hub, opts...)
	scheduler := app.NewScheduler(service, cfg.TickInterval())

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           transport.NewRouter(service, hub, transport.RouterConfig{PublicURL: cfg.Server.PublicURL, Logger: logger}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := scheduler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if events != nil {
		g.Go(func() error {
			if err := events.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
