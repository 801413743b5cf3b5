// Package sqlite stores the ledger in a SQLite database. The document maps
// onto an ordered activities table plus a key/value app_state table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"carbon/internal/core"
	"carbon/internal/log"
	"carbon/internal/observability"
)

const onboardingKey = "onboarding_done"

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open creates the database file if needed and applies migrations.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the ledger in insertion order. Query failures read as the empty
// ledger and are logged.
func (s *Store) Load(ctx context.Context) core.Document {
	doc, err := s.load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger database unreadable, using empty ledger", log.FieldError, err.Error())
		observability.RecordLoadFallback(observability.ReasonUnreadable)
		return core.EmptyDocument()
	}
	return doc
}

func (s *Store) load(ctx context.Context) (core.Document, error) {
	doc := core.EmptyDocument()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, activity, amount, emissions, date FROM activities ORDER BY position`)
	if err != nil {
		return doc, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r core.ActivityRecord
		if err := rows.Scan(&r.ID, &r.Category, &r.Activity, &r.Amount, &r.Emissions, &r.Date); err != nil {
			return doc, fmt.Errorf("scan activity: %w", err)
		}
		doc.Activities = append(doc.Activities, r)
	}
	if err := rows.Err(); err != nil {
		return doc, fmt.Errorf("iterate activities: %w", err)
	}

	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, onboardingKey).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return doc, fmt.Errorf("query app state: %w", err)
	default:
		doc.OnboardingDone, _ = strconv.ParseBool(value)
	}
	return doc, nil
}

// Save replaces the stored ledger in one transaction.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	if err := s.save(ctx, doc.Normalize()); err != nil {
		s.logger.ErrorContext(ctx, "Ledger save failed", log.FieldError, err.Error(), log.FieldCount, len(doc.Activities))
		observability.RecordSaveFailure()
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, doc core.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities`); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO activities (position, id, category, activity, amount, emissions, date) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range doc.Activities {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Category, r.Activity, r.Amount, r.Emissions, r.Date); err != nil {
			return fmt.Errorf("insert activity %s: %w", r.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		onboardingKey, strconv.FormatBool(doc.OnboardingDone)); err != nil {
		return fmt.Errorf("store app state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
