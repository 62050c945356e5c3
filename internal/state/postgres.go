package state

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// postgres driver
	_ "github.com/lib/pq"

	"github.com/sevigo/pr-sentry/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresConfig holds the connection parameters for the Postgres backend.
type PostgresConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// PostgresStore keeps review records in a Postgres table, for installations
// where several environments share one review history.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects, pings, and runs pending migrations.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", core.ErrStateStore, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping: %v", core.ErrStateStore, err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &PostgresStore{db: conn}, nil
}

func runMigrations(conn *sqlx.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%w: migration source: %v", core.ErrStateStore, err)
	}
	dbDriver, err := postgres.WithInstance(conn.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("%w: migration driver: %v", core.ErrStateStore, err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("%w: migrator: %v", core.ErrStateStore, err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: apply migrations: %v", core.ErrStateStore, err)
	}
	return nil
}

func (s *PostgresStore) IsReviewed(ctx context.Context, prID int, commitID string) (bool, error) {
	var stored string
	err := s.db.GetContext(ctx, &stored,
		`SELECT commit_id FROM review_records WHERE pull_request_id = $1`, prID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: query: %v", core.ErrStateStore, err)
	}
	return stored == commitID, nil
}

func (s *PostgresStore) MarkReviewed(ctx context.Context, prID int, commitID string, reviewedAt time.Time) error {
	query := `
		INSERT INTO review_records (pull_request_id, commit_id, reviewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (pull_request_id)
		DO UPDATE SET commit_id = EXCLUDED.commit_id, reviewed_at = EXCLUDED.reviewed_at`
	if _, err := s.db.ExecContext(ctx, query, prID, commitID, reviewedAt); err != nil {
		return fmt.Errorf("%w: upsert: %v", core.ErrStateStore, err)
	}
	return nil
}

func (s *PostgresStore) Records(ctx context.Context) ([]core.ReviewRecord, error) {
	var out []core.ReviewRecord
	err := s.db.SelectContext(ctx, &out,
		`SELECT pull_request_id, commit_id, reviewed_at FROM review_records ORDER BY pull_request_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", core.ErrStateStore, err)
	}
	return out, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM review_records`); err != nil {
		return fmt.Errorf("%w: reset: %v", core.ErrStateStore, err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
