// Package sqlite implements storage.LifeformStore on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/pkg/types"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store implements storage.LifeformStore using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.LifeformStore = (*Store)(nil)

// NewStore opens the database at dsn (a file path or ":memory:") and
// applies the embedded migrations. If the first open fails because of WAL
// files left behind by a crashed process, the stale files are removed and
// the open is retried once.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	store, err := openStore(ctx, dsn)
	if err == nil {
		return store, nil
	}
	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}
	removeStaleWAL(dbPath)

	store, retryErr := openStore(ctx, dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("sqlite: failed after WAL recovery: %w (original: %v)", retryErr, err)
	}
	slog.Warn("sqlite: recovered from stale WAL files", "path", dbPath)
	return store, nil
}

func openStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// One writer at a time; WAL keeps readers from blocking it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	mgr, err := storage.NewMigrationManager(ctx, db, migrationFS, "migrations", storage.PlaceholderQuestion)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if _, err := mgr.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// EnsureState returns the singleton state row, creating it if needed.
func (s *Store) EnsureState(ctx context.Context) (*types.LifeformState, error) {
	initial := storage.InitialState()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lifeform_state (id, mood, curiosity) VALUES (?, ?, ?)`,
		initial.ID, initial.Mood, initial.Curiosity)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to ensure state: %w", err)
	}

	var (
		state     types.LifeformState
		reflected sql.NullTime
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, mood, curiosity, last_reflected_at FROM lifeform_state WHERE id = ?`, storage.StateID,
	).Scan(&state.ID, &state.Mood, &state.Curiosity, &reflected)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load state: %w", err)
	}
	if reflected.Valid {
		t := reflected.Time
		state.LastReflectedAt = &t
	}
	return &state, nil
}

// PendingQuestion returns the oldest pending question.
func (s *Store) PendingQuestion(ctx context.Context) (*types.Question, error) {
	return s.queryQuestion(ctx,
		`SELECT id, text, status, created_at FROM questions
		 WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT 1`, types.QuestionPending)
}

// GetQuestion retrieves a question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (*types.Question, error) {
	return s.queryQuestion(ctx, `SELECT id, text, status, created_at FROM questions WHERE id = ?`, id)
}

func (s *Store) queryQuestion(ctx context.Context, query string, args ...any) (*types.Question, error) {
	var q types.Question
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&q.ID, &q.Text, &q.Status, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query question: %w", err)
	}
	return &q, nil
}

// LatestReflection returns the newest reflection.
func (s *Store) LatestReflection(ctx context.Context) (*types.Reflection, error) {
	var r types.Reflection
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, text, created_at FROM reflections
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&r.ID, &r.QuestionID, &r.Text, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query reflection: %w", err)
	}
	return &r, nil
}

// CreateQuestion stores a new pending question.
func (s *Store) CreateQuestion(ctx context.Context, text string) (*types.Question, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", storage.ErrInvalidInput)
	}

	q := types.Question{Text: text, Status: types.QuestionPending, CreatedAt: s.now()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (text, status, created_at) VALUES (?, ?, ?)`,
		q.Text, q.Status, q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to insert question: %w", err)
	}
	if q.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read question id: %w", err)
	}
	return &q, nil
}

// AnswerQuestion stores the reply and marks the question answered.
func (s *Store) AnswerQuestion(ctx context.Context, questionID int64, reply string) (*types.Memory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE questions SET status = ? WHERE id = ? AND status = ?`,
		types.QuestionAnswered, questionID, types.QuestionPending)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE id = ?`, questionID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to check question: %w", err)
		}
		if exists == 0 {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrConflict
	}

	m := types.Memory{QuestionID: questionID, UserReply: reply, CreatedAt: s.now()}
	res, err = tx.ExecContext(ctx,
		`INSERT INTO memories (question_id, user_reply, created_at) VALUES (?, ?, ?)`,
		m.QuestionID, m.UserReply, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to insert memory: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read memory id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to commit reply: %w", err)
	}
	return &m, nil
}

// RecordReflection stores the reflection and the updated state together.
func (s *Store) RecordReflection(ctx context.Context, questionID int64, text string, state types.LifeformState) (*types.Reflection, error) {
	if err := storage.ValidateState(state); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := types.Reflection{QuestionID: questionID, Text: text, CreatedAt: s.now()}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO reflections (question_id, text, created_at) VALUES (?, ?, ?)`,
		r.QuestionID, r.Text, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to insert reflection: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read reflection id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lifeform_state (id, mood, curiosity, last_reflected_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET mood = excluded.mood, curiosity = excluded.curiosity,
		 last_reflected_at = excluded.last_reflected_at`,
		storage.StateID, state.Mood, state.Curiosity, nullableTime(state.LastReflectedAt))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to update state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to commit reflection: %w", err)
	}
	return &r, nil
}

// CountMemories returns the number of stored replies.
func (s *Store) CountMemories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count memories: %w", err)
	}
	return n, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("sqlite: WAL checkpoint failed", "error", err)
	}
	return s.db.Close()
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
