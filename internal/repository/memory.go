package repository

import (
	"context"
	"sort"
	"sync"

	"financeagent/internal/model"
)

// MemoryStore is an in-process implementation of the four collections with
// the same insert/query/sort semantics as the Postgres repositories. It backs
// tests and the worker's dry-run mode, where no database is configured.
type MemoryStore struct {
	mu           sync.Mutex
	nextID       int64
	emails       []model.EmailDoc
	transactions []model.TransactionDoc
	templates    []model.TemplateDoc
	responses    []model.ResponseDoc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) InsertEmail(ctx context.Context, doc *model.EmailDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextID
	s.nextID++
	s.emails = append(s.emails, *doc)
	return nil
}

func (s *MemoryStore) ListEmails(ctx context.Context) ([]model.EmailDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EmailDoc, len(s.emails))
	copy(out, s.emails)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountEmails(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails), nil
}

func (s *MemoryStore) InsertTransaction(ctx context.Context, doc *model.TransactionDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextID
	s.nextID++
	s.transactions = append(s.transactions, *doc)
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context) ([]model.TransactionDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TransactionDoc, len(s.transactions))
	copy(out, s.transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PreferredTimestamp().After(out[j].PreferredTimestamp())
	})
	return out, nil
}

func (s *MemoryStore) CountTransactions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions), nil
}

func (s *MemoryStore) matches(doc *model.TransactionDoc, key string) bool {
	if doc.LedgerEntry == nil {
		return false
	}
	return doc.TransactionID == key || doc.LedgerEntry.MailID == key
}

func (s *MemoryStore) FindByCorrelationKey(ctx context.Context, key string) (*model.TransactionDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.matches(&s.transactions[i], key) {
			doc := s.transactions[i]
			return &doc, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (s *MemoryStore) DeleteByCorrelationKey(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.transactions[:0]
	deleted := false
	for i := range s.transactions {
		if s.matches(&s.transactions[i], key) {
			deleted = true
			continue
		}
		kept = append(kept, s.transactions[i])
	}
	s.transactions = kept
	return deleted, nil
}

func (s *MemoryStore) InsertTemplate(ctx context.Context, doc *model.TemplateDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.templates {
		if existing.Title == doc.Title {
			return nil
		}
	}
	doc.ID = s.nextID
	s.nextID++
	s.templates = append(s.templates, *doc)
	return nil
}

func (s *MemoryStore) ListTemplatesByType(ctx context.Context, templateType string) ([]model.TemplateDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.TemplateDoc{}
	for _, doc := range s.templates {
		if doc.Type == templateType {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertResponse(ctx context.Context, doc *model.ResponseDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextID
	s.nextID++
	s.responses = append(s.responses, *doc)
	return nil
}

func (s *MemoryStore) ListResponses(ctx context.Context) ([]model.ResponseDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ResponseDoc, len(s.responses))
	copy(out, s.responses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
