package model

import "time"

// Attachment is a raw MIME part as fetched from the mailbox.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data,omitempty"`
}

// RawMessage is an inbox message exactly as the mail client produced it.
// It is immutable once fetched and identified by MessageID.
type RawMessage struct {
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Date        string       `json:"date"`
	MessageID   string       `json:"message_id"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments"`
	// UID of the message in the source folder, used for mark-read.
	UID uint32 `json:"uid,omitempty"`
}

// ProcessedAttachment carries the text extracted from a raw attachment.
type ProcessedAttachment struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	ExtractedText string `json:"extracted_text"`
	Data          []byte `json:"data,omitempty"`
}

// ParsedEmail is the cleaned, structured view of a RawMessage. BodyText is
// always non-empty-safe: an empty string when cleaning produced nothing.
type ParsedEmail struct {
	Subject     string                `json:"subject"`
	Sender      string                `json:"sender"`
	Recipient   string                `json:"recipient"`
	Date        string                `json:"date"`
	MessageID   string                `json:"message_id"`
	BodyText    string                `json:"body_text"`
	HTMLBody    string                `json:"html_body,omitempty"`
	Attachments []ProcessedAttachment `json:"attachments"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}
