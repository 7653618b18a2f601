package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"financeagent/internal/agent"
	"financeagent/internal/mail"
	"financeagent/internal/model"
	"financeagent/internal/repository"
)

type fakeFetcher struct {
	msgs   []model.RawMessage
	marked []uint32
}

func (f *fakeFetcher) FetchUnread(ctx context.Context, limit int) ([]model.RawMessage, error) {
	if limit < len(f.msgs) {
		return f.msgs[:limit], nil
	}
	return f.msgs, nil
}

func (f *fakeFetcher) MarkRead(ctx context.Context, uid uint32) error {
	f.marked = append(f.marked, uid)
	return nil
}

type fakeMailer struct {
	sent []mail.OutboundMessage
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.OutboundMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

// failingTxnStore rejects writes for one email id to simulate a hard stage
// failure.
type failingTxnStore struct {
	inner       *repository.MemoryStore
	failEmailID string
}

func (s *failingTxnStore) InsertTransaction(ctx context.Context, doc *model.TransactionDoc) error {
	if doc.EmailID == s.failEmailID {
		return errors.New("write failed")
	}
	return s.inner.InsertTransaction(ctx, doc)
}

func newTestOrchestrator(store *repository.MemoryStore, txns agent.TransactionStore, fetcher Fetcher, mailer Mailer) *Orchestrator {
	logger := zap.NewNop()
	return NewOrchestrator(Options{
		Parser:           agent.NewParser(nil, store, logger),
		Classifier:       agent.NewClassifier(nil, store, logger),
		Extractor:        agent.NewExtractor(nil, txns, logger),
		Mapper:           agent.NewLedgerMapper(nil, txns, logger),
		Replier:          agent.NewReplyGenerator(nil, nil, store, logger),
		Fetcher:          fetcher,
		Mailer:           mailer,
		ConfirmRecipient: "accounts@company.example.com",
		BaseURL:          "http://localhost:8080",
		Logger:           logger,
	})
}

func TestProcessSingleCompleted(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &fakeMailer{}
	o := newTestOrchestrator(store, store, nil, mailer)

	raw := &model.RawMessage{
		Subject:   "Invoice for February",
		From:      "billing@vendor.example.com",
		Body:      "Amount: 2,500.00 USD",
		MessageID: "<complete@test>",
	}
	result := o.ProcessSingle(context.Background(), raw)

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", result.Status, result.Error)
	}
	if result.TransactionID == "" {
		t.Error("transaction id missing from completed result")
	}
	if result.LedgerEntry == nil || result.LedgerEntry.Credit == nil {
		t.Fatal("invoice entry should carry a credit amount")
	}

	// The pending transaction is stored and the confirmation email carries
	// both decision links.
	if _, err := store.FindByCorrelationKey(context.Background(), result.TransactionID); err != nil {
		t.Errorf("pending transaction lookup failed: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1 confirmation", len(mailer.sent))
	}
	body := mailer.sent[0].Body
	if !strings.Contains(body, "/confirm?transaction_id="+result.TransactionID) ||
		!strings.Contains(body, "/cancel?transaction_id="+result.TransactionID) {
		t.Error("confirmation email missing confirm/cancel links")
	}
}

func TestProcessSingleNotRelevantWritesNoTransaction(t *testing.T) {
	store := repository.NewMemoryStore()
	mailer := &fakeMailer{}
	o := newTestOrchestrator(store, store, nil, mailer)

	raw := &model.RawMessage{
		Subject:   "Team lunch on Friday",
		From:      "social@company.example.com",
		Body:      "See you all there.",
		MessageID: "<irrelevant@test>",
	}
	result := o.ProcessSingle(context.Background(), raw)

	if result.Status != StatusNotRelevant {
		t.Fatalf("status = %q, want not_relevant", result.Status)
	}
	if result.Classification == nil {
		t.Error("not_relevant result must carry the classification snapshot")
	}

	count, err := store.CountTransactions(context.Background())
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 0 {
		t.Errorf("transactions written = %d, want 0", count)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(mailer.sent))
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	store := repository.NewMemoryStore()
	txns := &failingTxnStore{inner: store, failEmailID: "<two@test>"}
	fetcher := &fakeFetcher{msgs: []model.RawMessage{
		{Subject: "Invoice A", From: "a@vendor.example.com", Body: "Amount: 100", MessageID: "<one@test>", UID: 1},
		{Subject: "Invoice B", From: "b@vendor.example.com", Body: "Amount: 200", MessageID: "<two@test>", UID: 2},
		{Subject: "Invoice C", From: "c@vendor.example.com", Body: "Amount: 300", MessageID: "<three@test>", UID: 3},
	}}
	mailer := &fakeMailer{}
	o := newTestOrchestrator(store, txns, fetcher, mailer)

	results, err := o.ProcessBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (failed email excluded)", len(results))
	}
	for _, r := range results {
		if r.EmailID == "<two@test>" {
			t.Error("failed email must not appear in results")
		}
		if r.Status != StatusCompleted {
			t.Errorf("result %s status = %q, want completed", r.EmailID, r.Status)
		}
	}
	if len(fetcher.marked) != 3 {
		t.Errorf("marked read = %d messages, want 3", len(fetcher.marked))
	}
}
