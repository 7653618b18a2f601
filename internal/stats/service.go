// Package stats aggregates processing statistics over the stored
// collections.
package stats

import (
	"context"

	"financeagent/internal/model"
)

type EmailLister interface {
	ListEmails(ctx context.Context) ([]model.EmailDoc, error)
}

type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]model.TransactionDoc, error)
}

type ResponseLister interface {
	ListResponses(ctx context.Context) ([]model.ResponseDoc, error)
}

// EmailStats summarizes the classified emails collection.
type EmailStats struct {
	Total              int            `json:"total"`
	IntentDistribution map[string]int `json:"intent_distribution"`
	UrgencyLevels      map[string]int `json:"urgency_levels"`
	AverageConfidence  float64        `json:"average_confidence"`
}

// TransactionStats summarizes the transactions collection.
type TransactionStats struct {
	Total                int            `json:"total"`
	Pending              int            `json:"pending"`
	CurrencyDistribution map[string]int `json:"currency_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	TotalAmount          float64        `json:"total_amount"`
}

// ResponseStats summarizes the generated replies collection.
type ResponseStats struct {
	Total             int            `json:"total"`
	TypeDistribution  map[string]int `json:"type_distribution"`
	AverageConfidence float64        `json:"average_confidence"`
}

// Overview bundles all collection summaries.
type Overview struct {
	Emails       EmailStats       `json:"emails"`
	Transactions TransactionStats `json:"transactions"`
	Responses    ResponseStats    `json:"responses"`
}

type Service struct {
	emails       EmailLister
	transactions TransactionLister
	responses    ResponseLister
}

func NewService(emails EmailLister, transactions TransactionLister, responses ResponseLister) *Service {
	return &Service{emails: emails, transactions: transactions, responses: responses}
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	emails, err := s.emails.ListEmails(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListResponses(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Emails:       emailStats(emails),
		Transactions: transactionStats(transactions),
		Responses:    responseStats(responses),
	}, nil
}

func emailStats(docs []model.EmailDoc) EmailStats {
	stats := EmailStats{
		Total:              len(docs),
		IntentDistribution: map[string]int{},
		UrgencyLevels:      map[string]int{},
	}
	sum := 0.0
	counted := 0
	for _, doc := range docs {
		if doc.Classification == nil {
			continue
		}
		stats.IntentDistribution[doc.Classification.PrimaryIntent]++
		stats.UrgencyLevels[doc.Classification.UrgencyLevel]++
		sum += doc.Classification.ConfidenceScore
		counted++
	}
	if counted > 0 {
		stats.AverageConfidence = sum / float64(counted)
	}
	return stats
}

func transactionStats(docs []model.TransactionDoc) TransactionStats {
	stats := TransactionStats{
		Total:                len(docs),
		CurrencyDistribution: map[string]int{},
		CategoryDistribution: map[string]int{},
	}
	for _, doc := range docs {
		if doc.Status == model.TransactionStatusPending {
			stats.Pending++
		}
		if doc.ExtractedData != nil {
			if doc.ExtractedData.Currency != "" {
				stats.CurrencyDistribution[doc.ExtractedData.Currency]++
			}
			if doc.ExtractedData.Category != "" {
				stats.CategoryDistribution[doc.ExtractedData.Category]++
			}
		}
		if doc.LedgerEntry != nil {
			stats.TotalAmount += doc.LedgerEntry.Amount()
		}
	}
	return stats
}

func responseStats(docs []model.ResponseDoc) ResponseStats {
	stats := ResponseStats{
		Total:            len(docs),
		TypeDistribution: map[string]int{},
	}
	sum := 0.0
	counted := 0
	for _, doc := range docs {
		if doc.GeneratedReply == nil {
			continue
		}
		stats.TypeDistribution[doc.GeneratedReply.ReplyType]++
		sum += doc.GeneratedReply.ConfidenceScore
		counted++
	}
	if counted > 0 {
		stats.AverageConfidence = sum / float64(counted)
	}
	return stats
}
