package pipeline

import (
	"testing"

	"financeagent/internal/model"
)

func TestRelevanceGateAllowList(t *testing.T) {
	allowed := []string{
		"Invoice", "Payment Confirmation", "Bank Alert", "Payment Request",
		"Vendor Communication", "Client Communication", "Financial Report",
		"Expense Report", "Expense", "Bill", "Quotation",
	}
	for _, intent := range allowed {
		c := &model.Classification{PrimaryIntent: intent, FinancialRelevance: true}
		if !RelevanceGate(c) {
			t.Errorf("gate rejected allowed intent %q", intent)
		}
	}

	rejected := []*model.Classification{
		{PrimaryIntent: "Invoice", FinancialRelevance: false},
		{PrimaryIntent: "General Communication", FinancialRelevance: true},
		{PrimaryIntent: "Alert", FinancialRelevance: true},
		nil,
	}
	for _, c := range rejected {
		if RelevanceGate(c) {
			t.Errorf("gate passed %+v", c)
		}
	}
}

func TestRelevanceGateIsPure(t *testing.T) {
	c := &model.Classification{PrimaryIntent: "Invoice", FinancialRelevance: true}
	first := RelevanceGate(c)
	for i := 0; i < 10; i++ {
		if RelevanceGate(c) != first {
			t.Fatal("gate decision changed between calls")
		}
	}
}
