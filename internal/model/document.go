package model

import "time"

// Pending transaction status tags.
const (
	TransactionStatusPending = "pending"
)

// EmailDoc is a record in the emails collection. The classifier writes the
// same email again with Classification populated; the collection is
// append-only for audit.
type EmailDoc struct {
	ID             int64           `json:"id,omitempty"`
	EmailID        string          `json:"email_id"`
	ParsedEmail    *ParsedEmail    `json:"parsed_email,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	AgentVersion   string          `json:"agent_version,omitempty"`
	CreatedAt      time.Time       `json:"processing_timestamp"`
}

// TransactionDoc is a record in the transactions collection. The extractor
// writes one with only ExtractedData; the ledger mapper writes the pending
// transaction proper, bundling the full pipeline context so the confirmation
// webhook can rebuild and resend the reply later.
type TransactionDoc struct {
	ID             int64           `json:"id,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	EmailID        string          `json:"email_id"`
	Status         string          `json:"status,omitempty"`
	ParsedEmail    *ParsedEmail    `json:"parsed_email,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	ExtractedData  *ExtractedData  `json:"extracted_data,omitempty"`
	LedgerEntry    *LedgerEntry    `json:"ledger_entry,omitempty"`
	GLMapping      *GLMapping      `json:"gl_mapping,omitempty"`

	ExtractionTimestamp *time.Time `json:"extraction_timestamp,omitempty"`
	MappingTimestamp    *time.Time `json:"mapping_timestamp,omitempty"`
	CreatedAt           time.Time  `json:"timestamp"`
}

// PreferredTimestamp returns the first populated timestamp in the order
// mapping, extraction, created. Listings sort descending on this value.
func (d *TransactionDoc) PreferredTimestamp() time.Time {
	if d.MappingTimestamp != nil {
		return *d.MappingTimestamp
	}
	if d.ExtractionTimestamp != nil {
		return *d.ExtractionTimestamp
	}
	return d.CreatedAt
}

// TemplateDoc is a policy or response template in the templates collection.
type TemplateDoc struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

// ResponseDoc is a generated reply in the responses collection.
type ResponseDoc struct {
	ID             int64             `json:"id,omitempty"`
	EmailID        string            `json:"email_id"`
	GeneratedReply *GeneratedReply   `json:"generated_reply"`
	Classification *Classification   `json:"classification,omitempty"`
	ExtractedData  *ExtractedData    `json:"extracted_data,omitempty"`
	Attachments    []ReplyAttachment `json:"attachments,omitempty"`
	CreatedAt      time.Time         `json:"generation_timestamp"`
}
