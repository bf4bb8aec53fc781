// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *model.FeedEvent) error {
	return queryCreateEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.FeedEvent, error) {
	return queryGetEvent(ctx, s.db, id)
}

func (s *PostgresStore) FetchPage(ctx context.Context, filter model.Filter, cursorToken string, limit int) (*store.Page, error) {
	return queryFetchPage(ctx, s.db, filter, cursorToken, limit)
}

func (s *PostgresStore) UnreadCounts(ctx context.Context, brandID string) (map[model.Workflow]int, error) {
	return queryUnreadCounts(ctx, s.db, brandID)
}

func (s *PostgresStore) MarkRead(ctx context.Context, ids []string) error {
	return queryMarkRead(ctx, s.db, ids)
}

func (s *PostgresStore) Dismiss(ctx context.Context, ids []string) error {
	return queryDismiss(ctx, s.db, ids)
}

func (s *PostgresStore) ResolveAction(ctx context.Context, id string, action model.Action, memoID string, at time.Time) (*model.FeedEvent, error) {
	return queryResolveAction(ctx, s.db, id, action, memoID, at)
}

func (s *PostgresStore) ListAll(ctx context.Context, brandID string) ([]*model.FeedEvent, error) {
	return queryListAll(ctx, s.db, brandID)
}
