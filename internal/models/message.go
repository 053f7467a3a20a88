package models

import (
	"regexp"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the maximum message text length in Unicode code points.
const MaxTextLength = 4096

// msisdnRegex validates phone numbers in E.164 format.
var msisdnRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// tsRegex validates ISO-8601 UTC timestamps like 2025-01-01T12:00:00Z.
var tsRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

// Message represents a stored message record. MessageID is the natural key;
// CreatedAt is assigned by the server at ingestion time, never by the caller.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text"`
	CreatedAt string  `json:"-"`
}

// WebhookPayload is the inbound JSON body of POST /webhook.
type WebhookPayload struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text"`
}

// FieldError describes a single invalid payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the payload against the schema contract and returns one
// error per invalid field. An empty slice means the payload is valid.
func (p *WebhookPayload) Validate() []FieldError {
	var errs []FieldError

	if p.MessageID == "" {
		errs = append(errs, FieldError{"message_id", "must not be empty"})
	}
	if !msisdnRegex.MatchString(p.From) {
		errs = append(errs, FieldError{"from", "must be an E.164 phone number"})
	}
	if !msisdnRegex.MatchString(p.To) {
		errs = append(errs, FieldError{"to", "must be an E.164 phone number"})
	}
	if !tsRegex.MatchString(p.TS) {
		errs = append(errs, FieldError{"ts", "must be an ISO-8601 UTC timestamp (YYYY-MM-DDTHH:MM:SSZ)"})
	} else if _, err := time.Parse(time.RFC3339, p.TS); err != nil {
		errs = append(errs, FieldError{"ts", "must be a valid instant"})
	}
	if p.Text != nil && utf8.RuneCountInString(*p.Text) > MaxTextLength {
		errs = append(errs, FieldError{"text", "must be at most 4096 characters"})
	}

	return errs
}

// Record builds the message to persist, stamping the server-side
// ingestion time.
func (p *WebhookPayload) Record(now time.Time) *Message {
	return &Message{
		MessageID: p.MessageID,
		From:      p.From,
		To:        p.To,
		TS:        p.TS,
		Text:      p.Text,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// ValidTimestamp reports whether s has the shape accepted for the ts field
// and the since filter.
func ValidTimestamp(s string) bool {
	if !tsRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
