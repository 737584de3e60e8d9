package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	email     TEXT NOT NULL,
	question  TEXT NOT NULL,
	answer    TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_email ON chat_history(email);
`

// Store persists conversation turns in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// New opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func New(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Append records a completed question/answer exchange and returns its id.
func (s *Store) Append(ctx context.Context, email, question, answer string) (int64, error) {
	ts := s.now().UTC().Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (email, question, answer, timestamp) VALUES (?, ?, ?, ?)`,
		email, question, answer, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("append history: %w: %w", err, domain.ErrPersistence)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append history: %w: %w", err, domain.ErrPersistence)
	}
	return id, nil
}

// ListByEmail returns all turns for a user in chronological order.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, question, answer, timestamp
		 FROM chat_history WHERE email = ? ORDER BY timestamp ASC, id ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w: %w", err, domain.ErrPersistence)
	}
	defer rows.Close()

	turns := make([]domain.Turn, 0)
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.ID, &t.Email, &t.Question, &t.Answer, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history row: %w: %w", err, domain.ErrPersistence)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w: %w", err, domain.ErrPersistence)
	}
	return turns, nil
}

// DeleteByEmail removes all turns for a user and returns the count removed.
func (s *Store) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE email = ?`, email)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w: %w", err, domain.ErrPersistence)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete history: %w: %w", err, domain.ErrPersistence)
	}
	return n, nil
}

// Ping verifies the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close history db: %w", err)
	}
	return nil
}
