package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/pkg/metrics"
)

// Ordered keyword list for ledger entry type detection; first match wins.
var ledgerTypeKeywords = []string{"invoice", "bill", "expense", "quotation"}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02 15:04:05",
}

// glAccount pairs a GL code with its account name and type.
type glAccount struct {
	code        string
	name        string
	accountType string
}

var glAccounts = map[string]glAccount{
	"accounts_payable": {"2100", "accounts_payable", "Liability"},
	"cash":             {"1000", "cash", "Asset"},
	"expenses":         {"5000", "expenses", "Expense"},
	"revenue":          {"4000", "revenue", "Revenue"},
	"bank_charges":     {"5200", "bank_charges", "Expense"},
}

// LedgerMapper projects a processed email onto a bookkeeping row, annotates
// it with a general-ledger account, and persists the pending transaction the
// confirmation workflow later acts on.
type LedgerMapper struct {
	inferer      Inferer
	transactions TransactionStore
	logger       *zap.Logger
}

func NewLedgerMapper(inferer Inferer, transactions TransactionStore, logger *zap.Logger) *LedgerMapper {
	return &LedgerMapper{inferer: inferer, transactions: transactions, logger: logger}
}

// MapToLedger builds the ledger entry, mints a transaction id, and stores
// the pending transaction bundling the full pipeline context. The returned
// id goes into the confirm/cancel links.
func (m *LedgerMapper) MapToLedger(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData) (*model.LedgerEntry, string, error) {
	entry := MapLedgerEntry(parsed, classification, extracted)

	gl := m.mapGLPrimary(ctx, parsed, classification, extracted)
	if gl == nil {
		metrics.IncrementStageFallback("map_ledger")
		gl = FallbackGLMapping(classification, extracted)
	}

	transactionID := uuid.New().String()
	now := time.Now()
	doc := &model.TransactionDoc{
		TransactionID:    transactionID,
		EmailID:          parsed.MessageID,
		Status:           model.TransactionStatusPending,
		ParsedEmail:      parsed,
		Classification:   classification,
		ExtractedData:    extracted,
		LedgerEntry:      entry,
		GLMapping:        gl,
		MappingTimestamp: &now,
		CreatedAt:        now,
	}
	if err := m.transactions.InsertTransaction(ctx, doc); err != nil {
		return nil, "", fmt.Errorf("store pending transaction: %w", err)
	}

	return entry, transactionID, nil
}

// MapLedgerEntry is the deterministic mapping policy. It is a pure function
// of its inputs.
func MapLedgerEntry(parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData) *model.LedgerEntry {
	content := strings.ToLower(parsed.Subject + " " + parsed.BodyText)

	entryType := ""
	for _, keyword := range ledgerTypeKeywords {
		if strings.Contains(content, keyword) {
			entryType = capitalize(keyword)
			break
		}
	}
	if entryType == "" {
		entryType = capitalize(classification.PrimaryIntent)
	}

	vendor := extracted.VendorName
	if vendor == "" {
		vendor = extracted.PayerName
	}

	description := parsed.Subject
	if description == "" {
		description = extracted.Description
	}

	entry := &model.LedgerEntry{
		Date:           ledgerDate(extracted.TransactionDate, parsed.Date),
		MailID:         bareAddress(parsed.Sender),
		Type:           entryType,
		Description:    description,
		VendorCustomer: vendor,
	}

	if extracted.Amount != nil {
		amount := *extracted.Amount
		switch entryType {
		case model.LedgerTypeInvoice, model.LedgerTypeQuotation:
			entry.Credit = &amount
		case model.LedgerTypeBill, model.LedgerTypeExpense:
			entry.Debit = &amount
		}
	}

	return entry
}

// ledgerDate reformats the transaction date to dd/mm/yy, falling back to the
// email date header when no transaction date was extracted. An unparsable
// value degrades to its first 10 characters.
func ledgerDate(transactionDate, emailDate string) string {
	raw := transactionDate
	if raw == "" {
		raw = emailDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/06")
		}
	}
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}

func (m *LedgerMapper) mapGLPrimary(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData) *model.GLMapping {
	if m.inferer == nil {
		return nil
	}
	prompt := glMappingPrompt(parsed, classification, extracted)
	var result model.GLMapping
	if err := m.inferer.Infer(ctx, "map_ledger", prompt, &result); err != nil {
		m.logger.Warn("ledger mapping inference failed, using fallback",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
		return nil
	}
	if result.GLCode == "" || result.AccountType == "" {
		m.logger.Warn("ledger mapping inference returned invalid result, using fallback",
			zap.String("email_id", parsed.MessageID))
		return nil
	}
	return &result
}

// FallbackGLMapping chooses an account bucket from the primary intent alone.
func FallbackGLMapping(classification *model.Classification, extracted *model.ExtractedData) *model.GLMapping {
	content := strings.ToLower(classification.PrimaryIntent)

	var account glAccount
	switch {
	case strings.Contains(content, "invoice"):
		account = glAccounts["accounts_payable"]
	case strings.Contains(content, "payment") && strings.Contains(content, "confirmation"):
		account = glAccounts["cash"]
	case strings.Contains(content, "expense"):
		account = glAccounts["expenses"]
	case strings.Contains(content, "revenue"), strings.Contains(content, "income"):
		account = glAccounts["revenue"]
	case strings.Contains(content, "bank"):
		account = glAccounts["bank_charges"]
	case extracted.Amount != nil:
		account = glAccounts["expenses"]
	default:
		account = glAccounts["accounts_payable"]
	}

	gl := &model.GLMapping{
		GLCode:              account.code,
		AccountName:         account.name,
		AccountType:         account.accountType,
		MappingRulesApplied: []string{"fallback_mapping"},
		ConfidenceScore:     0.6,
	}
	if extracted.Amount != nil {
		amount := *extracted.Amount
		if account.accountType == "Asset" || account.accountType == "Expense" {
			gl.Debit = &amount
		} else {
			gl.Credit = &amount
		}
	}
	return gl
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func glMappingPrompt(parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData) string {
	amount := "unknown"
	if extracted.Amount != nil {
		amount = fmt.Sprintf("%.2f %s", *extracted.Amount, extracted.Currency)
	}
	return fmt.Sprintf(`Map this financial transaction to a general ledger account.

Intent: %s
Vendor: %s
Amount: %s
Subject: %s

Respond with JSON containing gl_code, account_name, account_type
(Asset/Liability/Expense/Revenue), debit, credit, mapping_rules_applied
and confidence_score.`,
		classification.PrimaryIntent, extracted.VendorName, amount, parsed.Subject)
}
