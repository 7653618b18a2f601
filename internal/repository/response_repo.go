package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"financeagent/internal/model"
)

type ResponseRepository struct {
	db *pgxpool.Pool
}

func NewResponseRepository(db *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// InsertResponse appends a generated reply document. Attachment bytes are
// stripped before storage; only filenames and content types are kept.
func (r *ResponseRepository) InsertResponse(ctx context.Context, doc *model.ResponseDoc) error {
	stored := *doc
	if len(doc.Attachments) > 0 {
		stored.Attachments = make([]model.ReplyAttachment, len(doc.Attachments))
		for i, att := range doc.Attachments {
			stored.Attachments[i] = model.ReplyAttachment{
				Filename:    att.Filename,
				ContentType: att.ContentType,
			}
		}
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal response doc: %w", err)
	}

	query := `
        INSERT INTO responses (email_id, doc, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, doc.EmailID, payload, doc.CreatedAt).Scan(&doc.ID)
}

// ListResponses returns every generated reply, most recent first.
func (r *ResponseRepository) ListResponses(ctx context.Context) ([]model.ResponseDoc, error) {
	query := `
        SELECT doc
        FROM responses
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.ResponseDoc{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc model.ResponseDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response doc: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
