package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Registration outcomes.
const (
	OutcomeAdded   = "added"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Registration is one recorded attempt to add a sub-bot. Only the numeric bot id
// is stored; the token secret never reaches the database.
type Registration struct {
	ID        int64     `db:"id"`
	BotID     int64     `db:"bot_id"`
	Username  string    `db:"username"`
	Source    string    `db:"source"`
	Outcome   string    `db:"outcome"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

// Store defines the audit log operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordRegistration inserts a registration attempt.
	RecordRegistration(ctx context.Context, reg *Registration) error

	// PruneRegistrations deletes attempts recorded before cutoff and reports how many were removed.
	PruneRegistrations(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timestamps are stored at second precision in UTC so text comparison in SQLite orders them correctly.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (s *sqlxStore) RecordRegistration(ctx context.Context, reg *Registration) error {
	if reg == nil {
		return errors.New("cannot record nil registration")
	}
	if reg.Source == "" || reg.Outcome == "" {
		return errors.New("registration must have a source and an outcome")
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	reg.CreatedAt = normalizeTime(reg.CreatedAt)

	query := `
        INSERT INTO registrations (bot_id, username, source, outcome, detail, created_at)
        VALUES (:bot_id, :username, :source, :outcome, :detail, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, reg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording registration", "bot_id", reg.BotID, "outcome", reg.Outcome, "error", err)
		return fmt.Errorf("failed to record registration for bot %d: %w", reg.BotID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		reg.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after recording registration", "bot_id", reg.BotID, "error", err)
	}

	s.logger.DebugContext(ctx, "Registration recorded", "id", reg.ID, "bot_id", reg.BotID, "outcome", reg.Outcome)
	return nil
}

// recentRegistrations returns the newest attempts first.
func (s *sqlxStore) recentRegistrations(ctx context.Context, limit int) ([]Registration, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	var regs []Registration
	query := `
        SELECT id, bot_id, username, source, outcome, detail, created_at
        FROM registrations
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `
	if err := s.db.SelectContext(ctx, &regs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

func (s *sqlxStore) PruneRegistrations(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM registrations WHERE created_at < ?;`, normalizeTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune registrations: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned registrations: %w", err)
	}

	s.logger.InfoContext(ctx, "Pruned registration log", "removed", removed, "cutoff", cutoff)
	return removed, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")

	for _, stmt := range []string{"VACUUM;", "ANALYZE;"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}
