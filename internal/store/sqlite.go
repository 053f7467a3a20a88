package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/lyftr-ai/webhook-service/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/messages.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/messages.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// WAL keeps readers from blocking the writer; busy_timeout makes
	// concurrent writers wait instead of failing immediately.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id  TEXT PRIMARY KEY,
		from_msisdn TEXT NOT NULL,
		to_msisdn   TEXT NOT NULL,
		ts          TEXT NOT NULL,
		text        TEXT,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts);
	CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_msisdn);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertMessage inserts a message record. The primary key on message_id
// enforces at-most-once persistence; a collision maps to
// ErrDuplicateMessage without touching the existing row.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.MessageID, msg.From, msg.To, msg.TS, msg.Text, msg.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// listConditions builds the WHERE clause shared by the count and page
// queries so total and data always agree on the predicate.
func listConditions(f ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if f.From != "" {
		where += " AND from_msisdn = ?"
		args = append(args, f.From)
	}
	if f.Since != "" {
		where += " AND ts >= ?"
		args = append(args, f.Since)
	}
	if f.Query != "" {
		where += ` AND text LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	return where, args
}

// ListMessages retrieves messages matching the filter with pagination.
func (s *SQLiteStore) ListMessages(ctx context.Context, f ListFilter) ([]models.Message, int, error) {
	where, args := listConditions(f)

	// Get total count with the same filters
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages`+where+`
		ORDER BY ts ASC, message_id ASC
		LIMIT ? OFFSET ?
	`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.MessageID,
			&msg.From,
			&msg.To,
			&msg.TS,
			&msg.Text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// CountMessages returns the total number of stored messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// CountDistinctSenders returns the number of distinct sender addresses.
func (s *SQLiteStore) CountDistinctSenders(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT from_msisdn) FROM messages`).Scan(&count)
	return count, err
}

// TopSenders returns the top N senders by message volume, count descending
// with sender ascending as the tie-break.
func (s *SQLiteStore) TopSenders(ctx context.Context, limit int) ([]SenderCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	senders := []SenderCount{}
	for rows.Next() {
		var sc SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return nil, err
		}
		senders = append(senders, sc)
	}
	return senders, rows.Err()
}

// TimeBounds returns the earliest and latest event timestamps, or nils
// when the store is empty.
func (s *SQLiteStore) TimeBounds(ctx context.Context) (*string, *string, error) {
	var first, last *string
	err := s.db.QueryRowContext(ctx, `SELECT MIN(ts), MAX(ts) FROM messages`).Scan(&first, &last)
	if err != nil {
		return nil, nil, err
	}
	return first, last, nil
}
