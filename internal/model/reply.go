package model

import "time"

// GeneratedReply is the reply stage output.
type GeneratedReply struct {
	ReplySubject     string    `json:"reply_subject"`
	ReplyBody        string    `json:"reply_body"`
	ReplyType        string    `json:"reply_type"`
	MissingFields    []string  `json:"missing_fields"`
	PolicyReferences []string  `json:"policy_references"`
	Tone             string    `json:"tone"`
	UrgencyLevel     string    `json:"urgency_level"`
	ConfidenceScore  float64   `json:"confidence_score"`
	Timestamp        time.Time `json:"generation_timestamp"`
}

// ReplyAttachment is a file attached to an outbound reply, currently only
// generated invoice PDFs.
type ReplyAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
