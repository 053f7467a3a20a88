package store

import (
	"context"
	"errors"
	"strings"

	"github.com/lyftr-ai/webhook-service/internal/models"
)

// ErrDuplicateMessage is returned by InsertMessage when a record with the
// same message_id already exists. The existing row is left untouched.
var ErrDuplicateMessage = errors.New("message already exists")

// ListFilter restricts and pages a message listing. Zero-value string
// fields mean "no filter". Limit and Offset are assumed validated.
type ListFilter struct {
	From   string // exact sender match
	Since  string // inclusive lower bound on ts
	Query  string // case-insensitive substring match on text
	Limit  int
	Offset int
}

// SenderCount is one row of the top-senders aggregate.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// MessageStore defines the interface for durable message storage.
// Both PostgresStore and SQLiteStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Write path. InsertMessage returns ErrDuplicateMessage on a
	// message_id collision; the store's uniqueness constraint is the
	// single point of truth for "already seen".
	InsertMessage(ctx context.Context, msg *models.Message) error

	// Read path. ListMessages returns the page and the total count of
	// rows matching the same filter, ordered by ts then message_id.
	ListMessages(ctx context.Context, f ListFilter) ([]models.Message, int, error)
	CountMessages(ctx context.Context) (int64, error)
	CountDistinctSenders(ctx context.Context) (int64, error)
	TopSenders(ctx context.Context, limit int) ([]SenderCount, error)
	TimeBounds(ctx context.Context) (first, last *string, err error)
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
// Patterns built from it must use ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
