package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"financeagent/internal/model"
)

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// InsertTemplate stores a policy/response template. Seeding runs at every
// startup, so the title carries a uniqueness constraint and re-seeding is a
// no-op.
func (r *TemplateRepository) InsertTemplate(ctx context.Context, doc *model.TemplateDoc) error {
	query := `
        INSERT INTO templates (title, content, type, category)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (title) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, doc.Title, doc.Content, doc.Type, doc.Category)
	return err
}

// ListTemplatesByType returns templates of one type (policy, template).
func (r *TemplateRepository) ListTemplatesByType(ctx context.Context, templateType string) ([]model.TemplateDoc, error) {
	query := `
        SELECT id, title, content, type, category
        FROM templates
        WHERE type = $1
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, templateType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.TemplateDoc{}
	for rows.Next() {
		var doc model.TemplateDoc
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Type, &doc.Category); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
