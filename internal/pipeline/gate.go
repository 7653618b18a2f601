package pipeline

import "financeagent/internal/model"

// relevantIntents is the fixed allow-list of intents the pipeline processes
// past classification.
var relevantIntents = map[string]struct{}{
	"Invoice":              {},
	"Payment Confirmation": {},
	"Bank Alert":           {},
	"Payment Request":      {},
	"Vendor Communication": {},
	"Client Communication": {},
	"Financial Report":     {},
	"Expense Report":       {},
	"Expense":              {},
	"Bill":                 {},
	"Quotation":            {},
}

// RelevanceGate decides whether a classified email proceeds to extraction.
// It is a pure predicate: same classification, same answer.
func RelevanceGate(c *model.Classification) bool {
	if c == nil || !c.FinancialRelevance {
		return false
	}
	_, ok := relevantIntents[c.PrimaryIntent]
	return ok
}
