package model

import "time"

// Urgency levels assigned by the classifier.
const (
	UrgencyLow      = "Low"
	UrgencyMedium   = "Medium"
	UrgencyHigh     = "High"
	UrgencyCritical = "Critical"
)

// Classification is the classifier stage output for one parsed email.
type Classification struct {
	PrimaryIntent        string    `json:"primary_intent"`
	SecondaryIntent      string    `json:"secondary_intent,omitempty"`
	ConfidenceScore      float64   `json:"confidence_score"`
	ClassificationReason string    `json:"classification_reason,omitempty"`
	FinancialRelevance   bool      `json:"financial_relevance"`
	UrgencyLevel         string    `json:"urgency_level"`
	Tags                 []string  `json:"tags"`
	Timestamp            time.Time `json:"timestamp"`
}
