package cli

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/auth"
	"quiz-generator-service/internal/config"
	"quiz-generator-service/internal/infra/memory"
	"quiz-generator-service/internal/infra/rabbit"
	redisinfra "quiz-generator-service/internal/infra/redis"
	"quiz-generator-service/internal/preferences"
	"quiz-generator-service/internal/scheduler"
	"quiz-generator-service/internal/seed"
	transport "quiz-generator-service/internal/transport/http"
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.Store.Driver == config.DriverMemory {
		seed.NewSeeder(store, log.Writer()).Run(ctx, seed.Banks())
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var (
		questions app.QuestionLoader
		sessions  app.SessionRepository
		authOpts  []auth.Option
	)
	if cfg.Auth.Issuer != "" {
		authOpts = append(authOpts, auth.WithIssuer(cfg.Auth.Issuer))
	}
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, store, quizTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
		authOpts = append(authOpts, auth.WithRevocations(redisinfra.NewRevocations(redisClient)))
	} else {
		questions = memory.NewQuestionCache(store, quizTTL)
		sessions = memory.NewSessionStore()
	}

	authn, err := auth.New(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TTL, 24*time.Hour), authOpts...)
	if err != nil {
		return err
	}

	prefs, err := preferences.Open(cfg.Preferences.Path)
	if err != nil {
		return err
	}

	opts := []app.Option{
		app.WithQuestionLoader(questions),
		app.WithFinalizeTimeout(config.TTLDuration(cfg.Quiz.FinalizeTimeout, 30*time.Second)),
	}
	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.Dial(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return err
		}
		defer closeQuietly(publisher)
		opts = append(opts, app.WithEvents(publisher))
	}
	service := app.NewQuizService(store, sessions, opts...)

	sweeper := scheduler.New(service,
		config.TTLDuration(cfg.Sessions.SweepInterval, time.Minute),
		config.TTLDuration(cfg.Sessions.IdleRetention, 30*time.Minute),
	)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewHandler(service, authn, prefs).Router(),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("close: %v", err)
	}
}
