package models

import (
	"strings"
	"testing"
	"time"
)

func validPayload() WebhookPayload {
	text := "hello"
	return WebhookPayload{
		MessageID: "m1",
		From:      "+1234567890",
		To:        "+9876543210",
		TS:        "2025-01-01T12:00:00Z",
		Text:      &text,
	}
}

func fieldNames(errs []FieldError) map[string]bool {
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	return fields
}

func TestValidPayload(t *testing.T) {
	p := validPayload()
	if errs := p.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestNilTextIsValid(t *testing.T) {
	p := validPayload()
	p.Text = nil
	if errs := p.Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestMissingFields(t *testing.T) {
	p := WebhookPayload{}
	errs := p.Validate()
	fields := fieldNames(errs)
	for _, want := range []string{"message_id", "from", "to", "ts"} {
		if !fields[want] {
			t.Fatalf("expected error for %q, got %v", want, errs)
		}
	}
}

func TestInvalidMSISDN(t *testing.T) {
	cases := []string{"", "1234567890", "+0123", "+1", "not-a-number", "+12345678901234567890"}
	for _, from := range cases {
		p := validPayload()
		p.From = from
		if !fieldNames(p.Validate())["from"] {
			t.Fatalf("expected from error for %q", from)
		}
	}
}

func TestInvalidTimestamp(t *testing.T) {
	cases := []string{
		"2025-01-01 12:00:00",
		"2025-01-01T12:00:00",      // no zone
		"2025-01-01T12:00:00+0000", // not Z
		"2025-13-01T12:00:00Z",     // month 13
		"not-a-date",
	}
	for _, ts := range cases {
		p := validPayload()
		p.TS = ts
		if !fieldNames(p.Validate())["ts"] {
			t.Fatalf("expected ts error for %q", ts)
		}
	}
}

func TestTextLengthBoundary(t *testing.T) {
	// Multibyte runes: the limit counts code points, not bytes.
	atLimit := strings.Repeat("é", MaxTextLength)
	p := validPayload()
	p.Text = &atLimit
	if errs := p.Validate(); len(errs) != 0 {
		t.Fatalf("text of exactly %d code points should pass, got %v", MaxTextLength, errs)
	}

	overLimit := strings.Repeat("é", MaxTextLength+1)
	p.Text = &overLimit
	if !fieldNames(p.Validate())["text"] {
		t.Fatalf("text of %d code points should fail", MaxTextLength+1)
	}
}

func TestRecordStampsServerTime(t *testing.T) {
	p := validPayload()
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	msg := p.Record(now)

	if msg.CreatedAt != "2025-06-01T08:30:00Z" {
		t.Fatalf("expected server-assigned created_at, got %q", msg.CreatedAt)
	}
	if msg.MessageID != p.MessageID || msg.From != p.From || msg.To != p.To || msg.TS != p.TS {
		t.Fatal("record should carry payload fields unchanged")
	}
}

func TestValidTimestamp(t *testing.T) {
	if !ValidTimestamp("2025-01-01T00:00:00Z") {
		t.Fatal("expected valid")
	}
	if ValidTimestamp("2025-01-01") || ValidTimestamp("") {
		t.Fatal("expected invalid")
	}
}
