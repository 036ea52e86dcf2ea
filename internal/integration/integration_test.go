package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/domain"
	"quiz-generator-service/internal/infra/postgres"
	pgmigrations "quiz-generator-service/internal/infra/postgres/migrations"
	"quiz-generator-service/internal/infra/rabbit"
	infraredis "quiz-generator-service/internal/infra/redis"
	"quiz-generator-service/internal/seed"
)

func TestQuizAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	amqpURL, rabbitCleanup := startRabbit(t, ctx)
	defer rabbitCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()
	store := postgres.NewStore(pool)

	report := seed.NewSeeder(store, io.Discard).Run(ctx, []seed.Bank{sampleBank()})
	require.False(t, report.Failed())
	setID := report.Sets[0].SetID

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	publisher := dialRabbit(t, amqpURL)
	defer publisher.Close()
	events := consumeEvents(t, amqpURL)

	service := app.NewQuizService(store, sessions,
		app.WithQuestionLoader(infraredis.NewQuestionCache(redisClient, store, 5*time.Minute)),
		app.WithEvents(publisher),
		app.WithPerm(func(n int) []int {
			p := make([]int, n)
			for i := range p {
				p[i] = i
			}
			return p
		}),
	)

	alice := domain.User{ID: "user-alice", Username: "alice"}
	quiz, err := service.CreateQuiz(ctx, alice, app.CreateQuizParams{QuestionSetID: setID, QuestionCount: 2, TimePerQuestion: 30})
	require.NoError(t, err)
	require.Len(t, quiz.QuestionIDs, 2)

	session, err := service.OpenSession(ctx, alice, quiz.ID)
	require.NoError(t, err)
	live, err := sessions.Live(ctx, quiz.ID)
	require.NoError(t, err)
	require.True(t, live)

	require.NoError(t, session.Select(1))
	require.NoError(t, session.Next(ctx))
	completed, err := session.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.QuizCompleted, completed.Status)
	require.NotNil(t, completed.Score)
	require.Equal(t, 1, *completed.Score)

	live, err = sessions.Live(ctx, quiz.ID)
	require.NoError(t, err)
	require.False(t, live)

	_, err = service.OpenSession(ctx, alice, quiz.ID)
	require.ErrorIs(t, err, domain.ErrQuizCompleted)

	results, err := service.Results(ctx, alice, quiz.ID)
	require.NoError(t, err)
	require.Len(t, results.Items, 2)
	require.Equal(t, 50, results.Percentage())
	require.Nil(t, results.Items[1].Answer.SelectedIndex)

	require.Equal(t, rabbit.QuizStartedRoutingKey, nextEvent(t, events).Type)
	done := nextEvent(t, events)
	require.Equal(t, rabbit.QuizCompletedRoutingKey, done.Type)
	require.Equal(t, quiz.ID, done.QuizID)
}

func sampleBank() seed.Bank {
	return seed.Bank{
		Key:        "arithmetic",
		Name:       "Arithmetic",
		Category:   "Math",
		Difficulty: "EASY",
		Questions: []seed.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
			{Text: "What is 3 + 3?", Options: []string{"5", "6", "7"}, CorrectIndex: 1},
			{Text: "What is 4 + 4?", Options: []string{"7", "8", "9"}, CorrectIndex: 1},
		},
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) tc.Container {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	return container
}

func endpoint(t *testing.T, ctx context.Context, container tc.Container, port string) (string, string) {
	t.Helper()
	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "5432/tcp")
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port)
	return dsn, func() { _ = container.Terminate(ctx) }
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), func() { _ = container.Terminate(ctx) }
}

func startRabbit(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "rabbitmq:3-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "5672/tcp")
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port), func() { _ = container.Terminate(ctx) }
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)
}

// dialRabbit retries while the broker finishes booting.
func dialRabbit(t *testing.T, url string) *rabbit.Publisher {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for {
		publisher, err := rabbit.Dial(url, rabbit.DefaultExchange)
		if err == nil {
			return publisher
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial rabbit: %v", err)
		}
		time.Sleep(time.Second)
	}
}

func consumeEvents(t *testing.T, url string) <-chan rabbit.QuizEvent {
	t.Helper()
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "quiz.#", rabbit.DefaultExchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	out := make(chan rabbit.QuizEvent, 4)
	go func() {
		for d := range deliveries {
			var event rabbit.QuizEvent
			if json.Unmarshal(d.Body, &event) == nil {
				out <- event
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan rabbit.QuizEvent) rabbit.QuizEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(10 * time.Second):
		t.Fatalf("no quiz event received")
		return rabbit.QuizEvent{}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
