package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/pkg/metrics"
)

// Amount patterns are tried in order; the first match wins. Commas are
// stripped before parsing.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\$₹€£¥]\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`([\d,]+\.?\d*)\s*[\$₹€£¥]`),
	regexp.MustCompile(`(?i)Amount[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Total[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Due[:\s]*([\d,]+\.?\d*)`),
}

var (
	invoiceNumberPattern = regexp.MustCompile(`(?i)Invoice[:\s]*([A-Z0-9-]+)`)
	dueDatePattern       = regexp.MustCompile(`(?i)Due[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
)

// Currency markers are checked in order so that mixed-currency text always
// resolves the same way.
var currencyMarkers = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"₹", "INR"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

var currencyCodes = []string{"USD", "INR", "EUR", "GBP", "JPY"}

var vendorKeywords = []string{"vendor", "supplier", "company", "ltd", "inc", "corp"}

// Extractor pulls financial fields out of a classified email. The primary
// strategy is a structured inference call; regex heuristics take over when
// it fails.
type Extractor struct {
	inferer      Inferer
	transactions TransactionStore
	logger       *zap.Logger
}

func NewExtractor(inferer Inferer, transactions TransactionStore, logger *zap.Logger) *Extractor {
	return &Extractor{inferer: inferer, transactions: transactions, logger: logger}
}

// Extract produces ExtractedData for the email and records the result for
// audit. Optional fields stay empty when no value could be determined.
func (e *Extractor) Extract(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification) (*model.ExtractedData, error) {
	extracted := e.extractPrimary(ctx, parsed, classification)
	if extracted == nil {
		metrics.IncrementStageFallback("extract")
		extracted = e.extractFallback(parsed, classification)
	}
	extracted.Timestamp = time.Now()

	now := time.Now()
	doc := &model.TransactionDoc{
		EmailID:             parsed.MessageID,
		ParsedEmail:         parsed,
		Classification:      classification,
		ExtractedData:       extracted,
		ExtractionTimestamp: &now,
		CreatedAt:           now,
	}
	if err := e.transactions.InsertTransaction(ctx, doc); err != nil {
		e.logger.Error("store extraction failed",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
	}

	return extracted, nil
}

func (e *Extractor) extractPrimary(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification) *model.ExtractedData {
	if e.inferer == nil {
		return nil
	}
	prompt := extractionPrompt(parsed, classification)
	var result model.ExtractedData
	if err := e.inferer.Infer(ctx, "extract", prompt, &result); err != nil {
		e.logger.Warn("extraction inference failed, using fallback",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
		return nil
	}
	if result.Amount != nil && *result.Amount < 0 {
		e.logger.Warn("extraction inference returned negative amount, using fallback",
			zap.String("email_id", parsed.MessageID))
		return nil
	}
	return &result
}

// extractFallback is the deterministic regex extractor.
func (e *Extractor) extractFallback(parsed *model.ParsedEmail, classification *model.Classification) *model.ExtractedData {
	content := searchableText(parsed)

	extracted := &model.ExtractedData{
		Description:     parsed.Subject,
		Category:        classification.PrimaryIntent,
		ConfidenceScore: 0.5,
		UncertainFields: []string{},
	}

	if amount, ok := findAmount(content); ok {
		extracted.Amount = &amount
	} else {
		extracted.UncertainFields = []string{"payer_name", "payment_terms", "transaction_date"}
	}
	extracted.Currency = findCurrency(content)
	extracted.VendorName = findVendor(parsed)

	if m := invoiceNumberPattern.FindStringSubmatch(content); m != nil {
		extracted.InvoiceNumber = m[1]
	}
	if m := dueDatePattern.FindStringSubmatch(content); m != nil {
		extracted.DueDate = m[1]
	}

	return extracted
}

// searchableText joins the subject, body and attachment text. Invoices often
// carry the figures only in the attached document.
func searchableText(parsed *model.ParsedEmail) string {
	var b strings.Builder
	b.WriteString(parsed.Subject)
	b.WriteString(" ")
	b.WriteString(parsed.BodyText)
	for _, att := range parsed.Attachments {
		if att.ExtractedText != "" {
			b.WriteString(" ")
			b.WriteString(att.ExtractedText)
		}
	}
	return b.String()
}

func findAmount(content string) (float64, bool) {
	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(content); m != nil {
			cleaned := strings.ReplaceAll(m[1], ",", "")
			amount, err := strconv.ParseFloat(cleaned, 64)
			if err == nil {
				return amount, true
			}
		}
	}
	return 0, false
}

func findCurrency(content string) string {
	for _, m := range currencyMarkers {
		if strings.Contains(content, m.symbol) {
			return m.code
		}
	}
	upper := strings.ToUpper(content)
	for _, code := range currencyCodes {
		if strings.Contains(upper, code) {
			return code
		}
	}
	return ""
}

// findVendor prefers the sender domain's first label, title-cased. When the
// sender has no usable domain, the first body line containing a vendor
// keyword is used instead.
func findVendor(parsed *model.ParsedEmail) string {
	addr := bareAddress(parsed.Sender)
	if at := strings.Index(addr, "@"); at >= 0 && at+1 < len(addr) {
		domain := addr[at+1:]
		label := domain
		if dot := strings.Index(domain, "."); dot > 0 {
			label = domain[:dot]
		}
		if label != "" {
			return strings.ToUpper(label[:1]) + label[1:]
		}
	}

	for _, line := range strings.Split(parsed.BodyText, "\n") {
		lower := strings.ToLower(line)
		for _, keyword := range vendorKeywords {
			if strings.Contains(lower, keyword) {
				return strings.TrimSpace(line)
			}
		}
	}
	return ""
}

func extractionPrompt(parsed *model.ParsedEmail, classification *model.Classification) string {
	return fmt.Sprintf(`Extract financial data from this email classified as %q.

Subject: %s
From: %s
Body: %s

Respond with JSON containing amount, currency, vendor_name, payer_name,
invoice_number, payment_terms, due_date, transaction_date, description,
category, confidence_score and uncertain_fields.`,
		classification.PrimaryIntent, parsed.Subject, parsed.Sender, truncate(parsed.BodyText, 2000))
}
