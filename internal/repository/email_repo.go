package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"financeagent/internal/model"
)

type EmailRepository struct {
	db *pgxpool.Pool
}

func NewEmailRepository(db *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{db: db}
}

// InsertEmail appends a parsed/classified email document to the emails
// collection. The collection is append-only: the classifier writes a second
// document for the same email_id rather than updating the parser's one.
func (r *EmailRepository) InsertEmail(ctx context.Context, doc *model.EmailDoc) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal email doc: %w", err)
	}

	query := `
        INSERT INTO emails (email_id, doc, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, doc.EmailID, payload, doc.CreatedAt).Scan(&doc.ID)
}

// ListEmails returns every email document, most recent first.
func (r *EmailRepository) ListEmails(ctx context.Context) ([]model.EmailDoc, error) {
	query := `
        SELECT doc
        FROM emails
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.EmailDoc{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc model.EmailDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal email doc: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountEmails returns the emails collection size.
func (r *EmailRepository) CountEmails(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM emails`).Scan(&n)
	return n, err
}
