package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lyftr-ai/webhook-service/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func msg(id, from, ts, text string) *models.Message {
	m := &models.Message{
		MessageID: id,
		From:      from,
		To:        "+1011111111",
		TS:        ts,
		CreatedAt: "2025-01-02T00:00:00Z",
	}
	if text != "" {
		m.Text = &text
	}
	return m
}

func seed(t *testing.T, s *SQLiteStore, msgs ...*models.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := s.InsertMessage(context.Background(), m); err != nil {
			t.Fatalf("seed %s: %v", m.MessageID, err)
		}
	}
}

func TestInsertDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := msg("m1", "+1111111111", "2025-01-01T10:00:00Z", "hi")
	if err := s.InsertMessage(ctx, first); err != nil {
		t.Fatal(err)
	}

	// Same identifier, different content: first write wins, no mutation.
	retry := msg("m1", "+2222222222", "2025-01-01T11:00:00Z", "mutated")
	if err := s.InsertMessage(ctx, retry); !errors.Is(err, ErrDuplicateMessage) {
		t.Fatalf("expected ErrDuplicateMessage, got %v", err)
	}

	msgs, total, err := s.ListMessages(ctx, ListFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(msgs) != 1 {
		t.Fatalf("expected exactly one row, got total=%d len=%d", total, len(msgs))
	}
	if msgs[0].From != "+1111111111" || *msgs[0].Text != "hi" {
		t.Fatalf("original row was mutated: %+v", msgs[0])
	}
}

func TestListOrdering(t *testing.T) {
	s := newTestStore(t)

	// Inserted out of chronological order; m2a/m2b share a timestamp.
	seed(t, s,
		msg("m3", "+1111111111", "2025-01-01T12:00:00Z", ""),
		msg("m2b", "+1111111111", "2025-01-01T11:00:00Z", ""),
		msg("m1", "+1111111111", "2025-01-01T10:00:00Z", ""),
		msg("m2a", "+1111111111", "2025-01-01T11:00:00Z", ""),
	)

	for i := 0; i < 3; i++ {
		msgs, _, err := s.ListMessages(context.Background(), ListFilter{Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		got := make([]string, len(msgs))
		for i, m := range msgs {
			got[i] = m.MessageID
		}
		want := []string{"m1", "m2a", "m2b", "m3"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed(t, s,
		msg("m1", "+1111111111", "2025-01-01T10:00:00Z", "apple banana"),
		msg("m2", "+2222222222", "2025-01-01T11:00:00Z", "orange grape"),
		msg("m3", "+1111111111", "2025-01-01T12:00:00Z", "apple kiwi"),
		msg("m4", "+3333333333", "2025-01-01T13:00:00Z", "banana cherry"),
	)

	// Exact sender match
	msgs, total, err := s.ListMessages(ctx, ListFilter{From: "+1111111111", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || msgs[0].MessageID != "m1" || msgs[1].MessageID != "m3" {
		t.Fatalf("from filter: total=%d msgs=%+v", total, msgs)
	}

	// Inclusive lower bound
	msgs, total, err = s.ListMessages(ctx, ListFilter{Since: "2025-01-01T11:00:00Z", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || msgs[0].MessageID != "m2" {
		t.Fatalf("since filter: total=%d msgs=%+v", total, msgs)
	}

	// Substring match, case-insensitive
	msgs, total, err = s.ListMessages(ctx, ListFilter{Query: "APPLE", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || msgs[0].MessageID != "m1" || msgs[1].MessageID != "m3" {
		t.Fatalf("q filter: total=%d msgs=%+v", total, msgs)
	}

	// LIKE metacharacters match literally
	_, total, err = s.ListMessages(ctx, ListFilter{Query: "%", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected literal %% to match nothing, got %d", total)
	}
}

func TestPaginationConsistency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		seed(t, s, msg(
			string(rune('a'+i))+"-id",
			"+1111111111",
			"2025-01-01T10:00:00Z",
			"",
		))
	}

	seen := make(map[string]bool)
	for offset := 0; ; offset += 5 {
		msgs, total, err := s.ListMessages(ctx, ListFilter{Limit: 5, Offset: offset})
		if err != nil {
			t.Fatal(err)
		}
		if total != 12 {
			t.Fatalf("expected total 12 at offset %d, got %d", offset, total)
		}
		for _, m := range msgs {
			if seen[m.MessageID] {
				t.Fatalf("duplicate %s across pages", m.MessageID)
			}
			seen[m.MessageID] = true
		}
		if offset+5 >= total {
			break
		}
	}
	if len(seen) != 12 {
		t.Fatalf("union of pages has %d records, want 12", len(seen))
	}
}

func TestAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed(t, s,
		msg("m1", "+1111111111", "2025-01-01T10:00:00Z", ""),
		msg("m2", "+2222222222", "2025-01-01T11:00:00Z", ""),
		msg("m3", "+1111111111", "2025-01-01T12:00:00Z", ""),
		msg("m4", "+3333333333", "2025-01-01T13:00:00Z", ""),
	)

	total, err := s.CountMessages(ctx)
	if err != nil || total != 4 {
		t.Fatalf("count: %d, %v", total, err)
	}

	senders, err := s.CountDistinctSenders(ctx)
	if err != nil || senders != 3 {
		t.Fatalf("distinct senders: %d, %v", senders, err)
	}

	top, err := s.TopSenders(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 senders, got %d", len(top))
	}
	if top[0].From != "+1111111111" || top[0].Count != 2 {
		t.Fatalf("top sender wrong: %+v", top[0])
	}
	// Tie at count 1: sender ascending
	if top[1].From != "+2222222222" || top[2].From != "+3333333333" {
		t.Fatalf("tie-break not by sender ascending: %+v", top)
	}

	first, last, err := s.TimeBounds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || *first != "2025-01-01T10:00:00Z" {
		t.Fatalf("first: %v", first)
	}
	if last == nil || *last != "2025-01-01T13:00:00Z" {
		t.Fatalf("last: %v", last)
	}
}

func TestAggregatesEmptyStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total, err := s.CountMessages(ctx)
	if err != nil || total != 0 {
		t.Fatalf("count: %d, %v", total, err)
	}

	first, last, err := s.TimeBounds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != nil || last != nil {
		t.Fatalf("expected nil bounds on empty store, got %v %v", first, last)
	}

	top, err := s.TopSenders(ctx, 10)
	if err != nil || len(top) != 0 {
		t.Fatalf("top senders on empty store: %v, %v", top, err)
	}
}
