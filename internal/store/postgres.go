package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyftr-ai/webhook-service/internal/models"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
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
	`)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertMessage inserts a message record, mapping a unique violation on
// message_id to ErrDuplicateMessage.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.MessageID, msg.From, msg.To, msg.TS, msg.Text, msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// pgListConditions builds the WHERE clause shared by the count and page
// queries so total and data always agree on the predicate.
func pgListConditions(f ListFilter) (string, []any) {
	where := " WHERE TRUE"
	var args []any
	if f.From != "" {
		args = append(args, f.From)
		where += fmt.Sprintf(" AND from_msisdn = $%d", len(args))
	}
	if f.Since != "" {
		args = append(args, f.Since)
		where += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+escapeLike(f.Query)+"%")
		where += fmt.Sprintf(` AND text ILIKE $%d ESCAPE '\'`, len(args))
	}
	return where, args
}

// ListMessages retrieves messages matching the filter with pagination.
func (s *PostgresStore) ListMessages(ctx context.Context, f ListFilter) ([]models.Message, int, error) {
	where, args := pgListConditions(f)

	// Get total count with the same filters
	var total int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM messages"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	pageArgs := append(args, f.Limit, f.Offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages%s
		ORDER BY ts ASC, message_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2), pageArgs...)
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
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// CountDistinctSenders returns the number of distinct sender addresses.
func (s *PostgresStore) CountDistinctSenders(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT from_msisdn) FROM messages`).Scan(&count)
	return count, err
}

// TopSenders returns the top N senders by message volume, count descending
// with sender ascending as the tie-break.
func (s *PostgresStore) TopSenders(ctx context.Context, limit int) ([]SenderCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT $1
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
func (s *PostgresStore) TimeBounds(ctx context.Context) (*string, *string, error) {
	var first, last *string
	err := s.pool.QueryRow(ctx, `SELECT MIN(ts), MAX(ts) FROM messages`).Scan(&first, &last)
	if err != nil {
		return nil, nil, err
	}
	return first, last, nil
}
