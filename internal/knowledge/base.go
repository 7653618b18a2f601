// Package knowledge holds the policy and template documents reply
// generation draws on. The base is built once at startup from the templates
// collection and is read-only afterwards.
package knowledge

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"financeagent/internal/model"
)

// TemplateStore is the templates collection surface the base needs.
type TemplateStore interface {
	InsertTemplate(ctx context.Context, doc *model.TemplateDoc) error
	ListTemplatesByType(ctx context.Context, templateType string) ([]model.TemplateDoc, error)
}

var seedTemplates = []model.TemplateDoc{
	{
		Title:    "Invoice Processing Policy",
		Content:  "All invoices must be processed within 5 business days. Invoices above 10,000 require manager approval. Payment terms are net 30 unless otherwise negotiated with the vendor.",
		Type:     "policy",
		Category: "invoice",
	},
	{
		Title:    "Payment Confirmation Template",
		Content:  "Thank you for your payment. We confirm receipt of your payment and your account has been updated accordingly. A receipt is available on request.",
		Type:     "template",
		Category: "payment",
	},
	{
		Title:    "Missing Information Request",
		Content:  "We are unable to process your request because required information is missing. Please provide the missing details listed below so we can proceed.",
		Type:     "template",
		Category: "request",
	},
	{
		Title:    "Vendor Registration Policy",
		Content:  "New vendors must complete registration including bank details and tax identification before their first invoice can be processed.",
		Type:     "policy",
		Category: "vendor",
	},
}

// Seed inserts the built-in templates. Existing titles are left untouched,
// so seeding on every start is safe.
func Seed(ctx context.Context, store TemplateStore) error {
	for i := range seedTemplates {
		doc := seedTemplates[i]
		if err := store.InsertTemplate(ctx, &doc); err != nil {
			return err
		}
	}
	return nil
}

// Base is the in-memory snapshot of templates used during reply generation.
type Base struct {
	entries []model.TemplateDoc
}

// Build loads all policy and template documents into a read-only base.
func Build(ctx context.Context, store TemplateStore, logger *zap.Logger) (*Base, error) {
	var entries []model.TemplateDoc
	for _, t := range []string{"policy", "template"} {
		docs, err := store.ListTemplatesByType(ctx, t)
		if err != nil {
			return nil, err
		}
		entries = append(entries, docs...)
	}
	logger.Info("knowledge base built", zap.Int("templates", len(entries)))
	return &Base{entries: entries}, nil
}

// Retrieve returns up to limit documents scored by keyword overlap with the
// query. Documents with no overlap are skipped.
func (b *Base) Retrieve(query string, limit int) []model.TemplateDoc {
	words := strings.Fields(strings.ToLower(query))

	type scored struct {
		doc   model.TemplateDoc
		score int
	}
	var hits []scored
	for _, doc := range b.entries {
		haystack := strings.ToLower(doc.Title + " " + doc.Category + " " + doc.Content)
		score := 0
		for _, w := range words {
			if len(w) < 3 {
				continue
			}
			if strings.Contains(haystack, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc, score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if limit > len(hits) {
		limit = len(hits)
	}
	out := make([]model.TemplateDoc, 0, limit)
	for _, h := range hits[:limit] {
		out = append(out, h.doc)
	}
	return out
}
