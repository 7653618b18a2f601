package model

import "time"

// ExtractedData is the extractor stage output. Optional string fields are
// empty when the value could not be determined; Amount is nil when no amount
// was found.
type ExtractedData struct {
	Amount          *float64  `json:"amount,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	VendorName      string    `json:"vendor_name,omitempty"`
	PayerName       string    `json:"payer_name,omitempty"`
	InvoiceNumber   string    `json:"invoice_number,omitempty"`
	PaymentTerms    string    `json:"payment_terms,omitempty"`
	DueDate         string    `json:"due_date,omitempty"`
	TransactionDate string    `json:"transaction_date,omitempty"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	ConfidenceScore float64   `json:"confidence_score"`
	UncertainFields []string  `json:"uncertain_fields"`
	Timestamp       time.Time `json:"extraction_timestamp"`
}
