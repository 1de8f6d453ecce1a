package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresConfig holds connection parameters for the Postgres event log.
type PostgresConfig struct {
	ConnectionString  string        `env:"ANALYTICS_PG_CONN_URL,required"`                   // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"ANALYTICS_PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections.
	MaxIdleConns      int32         `env:"ANALYTICS_PG_MAX_IDLE_CONNS" envDefault:"5"`       // MaxIdleConns is the maximum number of idle connections.
	HealthCheckPeriod time.Duration `env:"ANALYTICS_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"ANALYTICS_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is how long a connection may sit idle.
	MaxConnLifetime   time.Duration `env:"ANALYTICS_PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is how long a connection may be reused.

	RetryAttempts int           `env:"ANALYTICS_PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"ANALYTICS_PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the delay between connection attempts.

	MigrationsPath  string `env:"ANALYTICS_PG_MIGRATIONS_PATH" envDefault:"migrations/analytics"`   // MigrationsPath is the goose migrations directory.
	MigrationsTable string `env:"ANALYTICS_PG_MIGRATIONS_TABLE" envDefault:"analytics_migrations"` // MigrationsTable stores the applied migration version.
}

// ConnectPostgres establishes a PostgreSQL connection pool with retry logic.
// The linear backoff between attempts avoids hammering a database that is
// itself restarting.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err != nil {
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}

		return pool, nil
	}

	return nil, ErrFailedToOpenDBConnection
}

// MigratePostgres applies the event log schema migrations with goose.
// The pgx pool is bridged to database/sql because goose only speaks the
// standard library interface.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, cfg PostgresConfig) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		_ = db.Close()
	}(db)

	goose.SetTableName(cfg.MigrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// PostgresSink appends events to an append-only Postgres table.
type PostgresSink struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSink creates a sink writing to the given table. An empty table
// name falls back to "experiment_events".
func NewPostgresSink(pool *pgxpool.Pool, table string) *PostgresSink {
	if pool == nil {
		panic("analytics: pgx pool cannot be nil")
	}
	if table == "" {
		table = "experiment_events"
	}
	return &PostgresSink{pool: pool, table: table}
}

// Append inserts the event. Metadata is stored as JSONB.
func (s *PostgresSink) Append(ctx context.Context, event Event) error {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("%w: metadata encoding: %w", ErrAppendFailed, err)
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(id, type, feature, user_id, segment, enabled, variant, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	if _, err := s.pool.Exec(ctx, query,
		event.ID, event.Type, event.Feature, event.UserID, event.Segment,
		event.Enabled, event.Variant, event.Reason, metadata, event.CreatedAt,
	); err != nil {
		return errors.Join(ErrAppendFailed, err)
	}
	return nil
}

// Healthcheck returns a function verifying database connectivity.
func (s *PostgresSink) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	}
}
