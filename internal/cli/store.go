package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-generator-service/internal/app"
	"quiz-generator-service/internal/config"
	"quiz-generator-service/internal/infra/memory"
	"quiz-generator-service/internal/infra/postgres"
	"quiz-generator-service/internal/infra/sqlite"
)

// openStore builds the configured data store. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using sqlite store at %s", cfg.SQLite.Path)
		return store, func() { _ = store.Close() }, nil
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Printf("using postgres store")
		return postgres.NewStore(pool), pool.Close, nil
	default:
		log.Printf("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}
}
