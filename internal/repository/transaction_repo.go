package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"financeagent/internal/model"
)

// ErrTransactionNotFound is returned when no transaction matches the
// correlation key.
var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// InsertTransaction appends a transaction document. The indexed columns
// (transaction_id, mail_id, the timestamps) are denormalized out of the doc
// so the webhook lookup and the preferred-timestamp ordering stay in SQL.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, doc *model.TransactionDoc) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction doc: %w", err)
	}

	mailID := ""
	if doc.LedgerEntry != nil {
		mailID = doc.LedgerEntry.MailID
	}

	query := `
        INSERT INTO transactions (transaction_id, email_id, mail_id, doc, extraction_ts, mapping_ts, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query,
		doc.TransactionID,
		doc.EmailID,
		mailID,
		payload,
		doc.ExtractionTimestamp,
		doc.MappingTimestamp,
		doc.CreatedAt,
	).Scan(&doc.ID)
}

// ListTransactions returns every transaction document ordered by the first
// populated of mapping_ts, extraction_ts, created_at, descending.
func (r *TransactionRepository) ListTransactions(ctx context.Context) ([]model.TransactionDoc, error) {
	query := `
        SELECT doc
        FROM transactions
        ORDER BY COALESCE(mapping_ts, extraction_ts, created_at) DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.TransactionDoc{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc model.TransactionDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction doc: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindByCorrelationKey resolves a pending transaction for the confirmation
// webhook. The key is the minted transaction_id; the sender mail_id is kept
// as a legacy match for links issued before transaction IDs existed. Only
// documents carrying a ledger entry qualify. First match wins.
func (r *TransactionRepository) FindByCorrelationKey(ctx context.Context, key string) (*model.TransactionDoc, error) {
	query := `
        SELECT doc
        FROM transactions
        WHERE (transaction_id = $1 OR mail_id = $1)
          AND doc ? 'ledger_entry'
        ORDER BY id
        LIMIT 1
    `
	var payload []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc model.TransactionDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction doc: %w", err)
	}
	return &doc, nil
}

// DeleteByCorrelationKey removes the ledger records matching the key and
// reports whether anything was deleted. A second delete with the same key
// finds nothing.
func (r *TransactionRepository) DeleteByCorrelationKey(ctx context.Context, key string) (bool, error) {
	query := `
        DELETE FROM transactions
        WHERE (transaction_id = $1 OR mail_id = $1)
          AND doc ? 'ledger_entry'
    `
	tag, err := r.db.Exec(ctx, query, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountTransactions returns the transactions collection size.
func (r *TransactionRepository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}
