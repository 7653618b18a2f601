package agent

import (
	"context"

	"financeagent/internal/model"
)

// EmailStore persists classified email documents.
type EmailStore interface {
	InsertEmail(ctx context.Context, doc *model.EmailDoc) error
}

// TransactionStore persists extraction and ledger documents.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, doc *model.TransactionDoc) error
}

// ResponseStore persists generated replies.
type ResponseStore interface {
	InsertResponse(ctx context.Context, doc *model.ResponseDoc) error
}
