package agent

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/internal/repository"
)

func TestClassifyFallbackKeywords(t *testing.T) {
	tests := []struct {
		name         string
		subject      string
		body         string
		wantIntent   string
		wantUrgency  string
		wantRelevant bool
	}{
		{
			name:         "invoice keyword",
			subject:      "Invoice #INV-2024-001",
			body:         "Please find attached.",
			wantIntent:   "Invoice",
			wantUrgency:  model.UrgencyMedium,
			wantRelevant: true,
		},
		{
			name:         "payment due phrase",
			subject:      "Reminder",
			body:         "Your payment due date is approaching.",
			wantIntent:   "Invoice",
			wantUrgency:  model.UrgencyMedium,
			wantRelevant: true,
		},
		{
			name:         "payment confirmation",
			subject:      "We received your payment",
			body:         "Your account is settled.",
			wantIntent:   "Payment Confirmation",
			wantUrgency:  model.UrgencyLow,
			wantRelevant: true,
		},
		{
			name:         "alert keyword",
			subject:      "Urgent: account warning",
			body:         "Action required.",
			wantIntent:   "Alert",
			wantUrgency:  model.UrgencyHigh,
			wantRelevant: true,
		},
		{
			name:         "no keyword",
			subject:      "Team lunch on Friday",
			body:         "See you there.",
			wantIntent:   "General Communication",
			wantUrgency:  model.UrgencyLow,
			wantRelevant: false,
		},
	}

	store := repository.NewMemoryStore()
	classifier := NewClassifier(nil, store, zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := &model.ParsedEmail{
				Subject:   tt.subject,
				BodyText:  tt.body,
				MessageID: "<" + tt.name + "@test>",
			}
			got, err := classifier.Classify(context.Background(), parsed)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got.PrimaryIntent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", got.PrimaryIntent, tt.wantIntent)
			}
			if got.UrgencyLevel != tt.wantUrgency {
				t.Errorf("urgency = %q, want %q", got.UrgencyLevel, tt.wantUrgency)
			}
			if got.FinancialRelevance != tt.wantRelevant {
				t.Errorf("relevance = %v, want %v", got.FinancialRelevance, tt.wantRelevant)
			}
			if got.ConfidenceScore != 0.6 {
				t.Errorf("confidence = %v, want 0.6", got.ConfidenceScore)
			}
			if len(got.Tags) != 1 || got.Tags[0] != "fallback_classification" {
				t.Errorf("tags = %v, want [fallback_classification]", got.Tags)
			}
		})
	}
}

func TestClassifyAlwaysValid(t *testing.T) {
	store := repository.NewMemoryStore()
	classifier := NewClassifier(nil, store, zap.NewNop())

	inputs := []*model.ParsedEmail{
		{MessageID: "<empty@test>"},
		{Subject: "hello", BodyText: "world", MessageID: "<plain@test>"},
	}
	for _, parsed := range inputs {
		got, err := classifier.Classify(context.Background(), parsed)
		if err != nil {
			t.Fatalf("Classify returned error: %v", err)
		}
		if got.PrimaryIntent == "" {
			t.Error("primary intent must not be empty")
		}
		if got.ConfidenceScore < 0 || got.ConfidenceScore > 1 {
			t.Errorf("confidence %v outside [0,1]", got.ConfidenceScore)
		}
	}
}

func TestClassifyPersistsEmailDoc(t *testing.T) {
	store := repository.NewMemoryStore()
	classifier := NewClassifier(nil, store, zap.NewNop())

	parsed := &model.ParsedEmail{
		Subject:   "Invoice for March",
		MessageID: "<persist@test>",
	}
	if _, err := classifier.Classify(context.Background(), parsed); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	docs, err := store.ListEmails(context.Background())
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("stored %d email docs, want 1", len(docs))
	}
	if docs[0].EmailID != "<persist@test>" {
		t.Errorf("email_id = %q", docs[0].EmailID)
	}
	if docs[0].Classification == nil {
		t.Error("stored doc missing classification")
	}
}
