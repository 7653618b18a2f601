package agent

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/internal/repository"
)

func invoiceClassification() *model.Classification {
	return &model.Classification{
		PrimaryIntent:      "Invoice",
		ConfidenceScore:    0.6,
		FinancialRelevance: true,
		UrgencyLevel:       model.UrgencyMedium,
	}
}

func TestExtractFallbackInvoiceEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	extractor := NewExtractor(nil, store, zap.NewNop())

	parsed := &model.ParsedEmail{
		Subject:   "Invoice #INV-2024-001",
		Sender:    "billing@acmecorp.example.com",
		BodyText:  "Invoice: INV-2024-001 Amount: $2,500.00 USD Due Date: February 15, 2024",
		MessageID: "<inv-2024-001@test>",
	}

	got, err := extractor.Extract(context.Background(), parsed, invoiceClassification())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if got.Amount == nil || *got.Amount != 2500.00 {
		t.Fatalf("amount = %v, want 2500.00", got.Amount)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if got.InvoiceNumber != "INV-2024-001" {
		t.Errorf("invoice number = %q, want INV-2024-001", got.InvoiceNumber)
	}
	if got.VendorName != "Acmecorp" {
		t.Errorf("vendor = %q, want Acmecorp", got.VendorName)
	}
	if got.Category != "Invoice" {
		t.Errorf("category = %q, want Invoice", got.Category)
	}
	if got.ConfidenceScore != 0.5 {
		t.Errorf("confidence = %v, want 0.5", got.ConfidenceScore)
	}
	if len(got.UncertainFields) != 0 {
		t.Errorf("uncertain fields = %v, want none", got.UncertainFields)
	}
}

func TestExtractFallbackAmountPatterns(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAmount float64
		wantFound  bool
	}{
		{"symbol prefix", "Please pay $1,234.56 today", 1234.56, true},
		{"symbol suffix", "Total of 500€ outstanding", 500, true},
		{"amount keyword", "Amount: 99.95", 99.95, true},
		{"total keyword", "Total: 1200", 1200, true},
		{"due keyword", "Due: 42.00", 42.00, true},
		{"rupee symbol", "₹ 7,500 payable", 7500, true},
		{"no amount", "See you at the meeting", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, found := findAmount(tt.body)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && amount != tt.wantAmount {
				t.Errorf("amount = %v, want %v", amount, tt.wantAmount)
			}
		})
	}
}

func TestExtractFallbackCurrency(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"pay $100", "USD"},
		{"pay ₹100", "INR"},
		{"pay €100", "EUR"},
		{"pay £100", "GBP"},
		{"pay ¥100", "JPY"},
		{"pay 100 EUR", "EUR"},
		{"pay 100 JPY", "JPY"},
		{"pay 100", ""},
		{"Total due € 1,200 (approx $ 1,300)", "USD"},
		{"₹ 500 or about £ 5", "INR"},
	}
	for _, tt := range tests {
		if got := findCurrency(tt.body); got != tt.want {
			t.Errorf("findCurrency(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestExtractFallbackCurrencyIsStable(t *testing.T) {
	body := "Total due € 1,200 (approx $ 1,300)"
	for i := 0; i < 100; i++ {
		if got := findCurrency(body); got != "USD" {
			t.Fatalf("run %d: findCurrency = %q, want USD", i, got)
		}
	}
}

func TestExtractFallbackSearchesAttachmentText(t *testing.T) {
	store := repository.NewMemoryStore()
	extractor := NewExtractor(nil, store, zap.NewNop())

	parsed := &model.ParsedEmail{
		Subject:   "Monthly statement",
		Sender:    "billing@supplies.example.com",
		BodyText:  "Please find the billing document attached.",
		MessageID: "<attached-invoice@test>",
		Attachments: []model.ProcessedAttachment{
			{
				Filename:      "invoice.pdf",
				ContentType:   "application/pdf",
				ExtractedText: "Invoice: INV-55 Amount: 1,250.00 USD Due: 15/03/2024",
			},
		},
	}
	got, err := extractor.Extract(context.Background(), parsed, invoiceClassification())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.Amount == nil || *got.Amount != 1250.00 {
		t.Fatalf("amount = %v, want 1250.00", got.Amount)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if got.InvoiceNumber != "INV-55" {
		t.Errorf("invoice number = %q, want INV-55", got.InvoiceNumber)
	}
	if got.DueDate != "15/03/2024" {
		t.Errorf("due date = %q, want 15/03/2024", got.DueDate)
	}
}

func TestExtractFallbackSeedsUncertainFields(t *testing.T) {
	store := repository.NewMemoryStore()
	extractor := NewExtractor(nil, store, zap.NewNop())

	parsed := &model.ParsedEmail{
		Subject:   "Question about our contract",
		Sender:    "legal@partner.example.com",
		BodyText:  "No numbers here at all.",
		MessageID: "<no-amount@test>",
	}
	got, err := extractor.Extract(context.Background(), parsed, invoiceClassification())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.Amount != nil {
		t.Fatalf("amount = %v, want nil", *got.Amount)
	}
	want := []string{"payer_name", "payment_terms", "transaction_date"}
	if len(got.UncertainFields) != len(want) {
		t.Fatalf("uncertain fields = %v, want %v", got.UncertainFields, want)
	}
	for i := range want {
		if got.UncertainFields[i] != want[i] {
			t.Errorf("uncertain field[%d] = %q, want %q", i, got.UncertainFields[i], want[i])
		}
	}
}

func TestExtractPersistsTransactionDoc(t *testing.T) {
	store := repository.NewMemoryStore()
	extractor := NewExtractor(nil, store, zap.NewNop())

	parsed := &model.ParsedEmail{
		Subject:   "Invoice",
		Sender:    "a@b.example.com",
		BodyText:  "Amount: 10",
		MessageID: "<persist-txn@test>",
	}
	if _, err := extractor.Extract(context.Background(), parsed, invoiceClassification()); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	docs, err := store.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("stored %d transaction docs, want 1", len(docs))
	}
	if docs[0].ExtractionTimestamp == nil {
		t.Error("stored doc missing extraction timestamp")
	}
	if docs[0].ExtractedData == nil {
		t.Error("stored doc missing extracted data")
	}
}
