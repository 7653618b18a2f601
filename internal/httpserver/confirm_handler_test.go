package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"financeagent/config"
	"financeagent/internal/agent"
	"financeagent/internal/mail"
	"financeagent/internal/model"
	"financeagent/internal/repository"
)

type recordingMailer struct {
	sent []mail.OutboundMessage
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.OutboundMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

func testCompany() config.CompanyConfig {
	return config.CompanyConfig{
		Name:    "Test Co",
		Address: "1 Test Street",
		Email:   "accounts@testco.example.com",
	}
}

func newTestRouter(store *repository.MemoryStore, mailer *recordingMailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	replier := agent.NewReplyGenerator(nil, nil, store, logger)
	handler := NewConfirmationHandler(store, replier, mailer, nil, testCompany(), logger)

	r := gin.New()
	r.GET("/confirm", handler.Confirm)
	r.GET("/cancel", handler.Cancel)
	return r
}

func amount(v float64) *float64 { return &v }

func pendingTransaction(transactionID string) *model.TransactionDoc {
	now := time.Now()
	return &model.TransactionDoc{
		TransactionID: transactionID,
		EmailID:       "<pending@test>",
		Status:        model.TransactionStatusPending,
		ParsedEmail: &model.ParsedEmail{
			Subject:   "Invoice for February",
			Sender:    "billing@vendor.example.com",
			MessageID: "<pending@test>",
		},
		Classification: &model.Classification{PrimaryIntent: "Invoice", FinancialRelevance: true},
		ExtractedData:  &model.ExtractedData{Amount: amount(250), Currency: "USD", InvoiceNumber: "INV-77"},
		LedgerEntry: &model.LedgerEntry{
			Date:           "01/02/24",
			MailID:         "billing@vendor.example.com",
			Type:           "Invoice",
			Description:    "Invoice for February",
			VendorCustomer: "Vendor",
			Credit:         amount(250),
		},
		MappingTimestamp: &now,
		CreatedAt:        now,
	}
}

func TestConfirmMissingTransactionID(t *testing.T) {
	router := newTestRouter(repository.NewMemoryStore(), &recordingMailer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/confirm", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if w.Body.String() != "Missing transaction_id" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestConfirmUnknownTransaction(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &recordingMailer{}
	router := newTestRouter(store, mailer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/confirm?transaction_id=nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if w.Body.String() != "Transaction not found" {
		t.Errorf("body = %q", w.Body.String())
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(mailer.sent))
	}
}

func TestConfirmSendsReplyWithInvoice(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &recordingMailer{}
	router := newTestRouter(store, mailer)

	doc := pendingTransaction("txn-123")
	if err := store.InsertTransaction(context.Background(), doc); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/confirm?transaction_id=txn-123", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", w.Code, w.Body.String())
	}
	if w.Body.String() != "Reply and invoice sent successfully!" {
		t.Errorf("body = %q", w.Body.String())
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "billing@vendor.example.com" {
		t.Errorf("recipient = %q", msg.To)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.ContentType != "application/pdf" {
		t.Errorf("attachment content type = %q", att.ContentType)
	}
	if !strings.HasPrefix(att.Filename, "INV-77_") || !strings.HasSuffix(att.Filename, ".pdf") {
		t.Errorf("attachment filename = %q", att.Filename)
	}
	if len(att.Data) == 0 || !strings.HasPrefix(string(att.Data[:4]), "%PDF") {
		t.Error("attachment is not a PDF")
	}

	// Confirm does not mutate the record; a repeat click resends.
	if _, err := store.FindByCorrelationKey(context.Background(), "txn-123"); err != nil {
		t.Errorf("record gone after confirm: %v", err)
	}
}

func TestConfirmFallbackNotificationWithoutContext(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &recordingMailer{}
	router := newTestRouter(store, mailer)

	doc := pendingTransaction("txn-sparse")
	doc.ParsedEmail = nil
	doc.Classification = nil
	doc.ExtractedData = nil
	if err := store.InsertTransaction(context.Background(), doc); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/confirm?transaction_id=txn-sparse", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", w.Code, w.Body.String())
	}
	if w.Body.String() != "Invoice/Quotation sent successfully (fallback)!" {
		t.Errorf("body = %q", w.Body.String())
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if mailer.sent[0].Subject != "Your Invoice or Quotation is Created Successfully" {
		t.Errorf("subject = %q", mailer.sent[0].Subject)
	}
}

func TestCancelTwice(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &recordingMailer{}
	router := newTestRouter(store, mailer)

	if err := store.InsertTransaction(context.Background(), pendingTransaction("txn-cancel")); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cancel?transaction_id=txn-cancel", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d", w.Code)
	}
	if w.Body.String() != "Process cancelled and ledger entry deleted." {
		t.Errorf("first cancel body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cancel?transaction_id=txn-cancel", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second cancel status = %d, want 404", w.Code)
	}
	if w.Body.String() != "Transaction not found" {
		t.Errorf("second cancel body = %q", w.Body.String())
	}

	count, err := store.CountTransactions(context.Background())
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 0 {
		t.Errorf("records remaining = %d, want 0", count)
	}

	if len(mailer.sent) != 0 {
		t.Errorf("cancel sent %d emails, want 0", len(mailer.sent))
	}
}

func TestCancelMissingTransactionID(t *testing.T) {
	router := newTestRouter(repository.NewMemoryStore(), &recordingMailer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cancel", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if w.Body.String() != "Missing transaction_id" {
		t.Errorf("body = %q", w.Body.String())
	}
}
