// Package pipeline chains the processing stages over inbox messages and
// owns the relevance gate and batch semantics.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"financeagent/internal/agent"
	"financeagent/internal/mail"
	"financeagent/internal/model"
	"financeagent/internal/util"
	"financeagent/pkg/metrics"
	"financeagent/pkg/mq"
)

// Result statuses. No other status is produced.
const (
	StatusCompleted   = "completed"
	StatusNotRelevant = "not_relevant"
	StatusFailed      = "failed"
)

// Result is the terminal record for one processed email.
type Result struct {
	Status         string                `json:"status"`
	EmailID        string                `json:"email_id"`
	TransactionID  string                `json:"transaction_id,omitempty"`
	Classification *model.Classification `json:"classification,omitempty"`
	ExtractedData  *model.ExtractedData  `json:"extracted_data,omitempty"`
	LedgerEntry    *model.LedgerEntry    `json:"ledger_entry,omitempty"`
	Reply          *model.GeneratedReply `json:"generated_reply,omitempty"`
	Error          string                `json:"error,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// Fetcher is the inbox surface the pipeline needs.
type Fetcher interface {
	FetchUnread(ctx context.Context, limit int) ([]model.RawMessage, error)
	MarkRead(ctx context.Context, uid uint32) error
}

// Mailer delivers outbound messages.
type Mailer interface {
	Send(ctx context.Context, msg mail.OutboundMessage) error
}

// Orchestrator runs emails through parse, classify, gate, extract, map and
// reply in strict sequence. Emails are processed one at a time; a failure in
// one email never aborts the batch.
type Orchestrator struct {
	parser     *agent.Parser
	classifier *agent.Classifier
	extractor  *agent.Extractor
	mapper     *agent.LedgerMapper
	replier    *agent.ReplyGenerator

	fetcher   Fetcher
	mailer    Mailer
	publisher *mq.Publisher
	deduper   *util.Deduper

	// confirmRecipient receives the confirm/cancel email for every pending
	// transaction.
	confirmRecipient string
	baseURL          string
	logger           *zap.Logger
}

type Options struct {
	Parser     *agent.Parser
	Classifier *agent.Classifier
	Extractor  *agent.Extractor
	Mapper     *agent.LedgerMapper
	Replier    *agent.ReplyGenerator

	Fetcher   Fetcher
	Mailer    Mailer
	Publisher *mq.Publisher
	Deduper   *util.Deduper

	ConfirmRecipient string
	BaseURL          string
	Logger           *zap.Logger
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		parser:           opts.Parser,
		classifier:       opts.Classifier,
		extractor:        opts.Extractor,
		mapper:           opts.Mapper,
		replier:          opts.Replier,
		fetcher:          opts.Fetcher,
		mailer:           opts.Mailer,
		publisher:        opts.Publisher,
		deduper:          opts.Deduper,
		confirmRecipient: opts.ConfirmRecipient,
		baseURL:          opts.BaseURL,
		logger:           opts.Logger,
	}
}

// ProcessSingle runs the full stage chain over one raw message. Hard stage
// failures come back as a failed Result, never as an error.
func (o *Orchestrator) ProcessSingle(ctx context.Context, raw *model.RawMessage) Result {
	parsed, err := o.parser.Parse(ctx, raw)
	if err != nil {
		emailID := raw.MessageID
		if emailID == "" {
			emailID = "unknown"
		}
		return o.failed(emailID, err)
	}
	result, err := o.processParsed(ctx, parsed)
	if err != nil {
		return o.failed(parsed.MessageID, err)
	}
	return result
}

// ProcessBatch fetches up to limit unread messages and runs each through
// the chain independently. Failed emails are logged and excluded from the
// result list.
func (o *Orchestrator) ProcessBatch(ctx context.Context, limit int) ([]Result, error) {
	raws, err := o.fetcher.FetchUnread(ctx, limit)
	if err != nil {
		return nil, err
	}
	o.logger.Info("fetched unread messages", zap.Int("count", len(raws)))

	var parsedEmails []*model.ParsedEmail
	for i := range raws {
		raw := &raws[i]
		if !o.deduper.AcquireOnce(ctx, raw.MessageID) {
			continue
		}
		parsed, err := o.parser.Parse(ctx, raw)
		if err != nil {
			o.logger.Error("parse failed, skipping message",
				zap.String("message_id", raw.MessageID),
				zap.Error(err))
			metrics.IncrementEmailProcessed(StatusFailed)
			continue
		}
		if raw.UID != 0 {
			if err := o.fetcher.MarkRead(ctx, raw.UID); err != nil {
				o.logger.Warn("mark read failed",
					zap.Uint32("uid", raw.UID),
					zap.Error(err))
			}
		}
		parsedEmails = append(parsedEmails, parsed)
	}

	results := make([]Result, 0, len(parsedEmails))
	for _, parsed := range parsedEmails {
		result, err := o.processParsed(ctx, parsed)
		if err != nil {
			o.logger.Error("email processing failed",
				zap.String("email_id", parsed.MessageID),
				zap.Error(err))
			metrics.IncrementEmailProcessed(StatusFailed)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// processParsed runs the post-parse chain. A returned error is a hard stage
// failure; soft failures were already absorbed by the stages' fallbacks.
func (o *Orchestrator) processParsed(ctx context.Context, parsed *model.ParsedEmail) (Result, error) {
	classification, err := o.classifier.Classify(ctx, parsed)
	if err != nil {
		return Result{}, err
	}

	if !RelevanceGate(classification) {
		o.logger.Info("email not relevant",
			zap.String("email_id", parsed.MessageID),
			zap.String("intent", classification.PrimaryIntent))
		metrics.IncrementEmailProcessed(StatusNotRelevant)
		o.publish(mq.RoutingEmailNotRelevant, map[string]any{
			"email_id": parsed.MessageID,
			"intent":   classification.PrimaryIntent,
		})
		return Result{
			Status:         StatusNotRelevant,
			EmailID:        parsed.MessageID,
			Classification: classification,
			Timestamp:      time.Now(),
		}, nil
	}

	extracted, err := o.extractor.Extract(ctx, parsed, classification)
	if err != nil {
		return Result{}, err
	}

	entry, transactionID, err := o.mapper.MapToLedger(ctx, parsed, classification, extracted)
	if err != nil {
		return Result{}, err
	}

	reply, err := o.replier.GenerateReply(ctx, parsed, classification, extracted)
	if err != nil {
		return Result{}, err
	}

	o.sendConfirmation(ctx, transactionID)

	o.logger.Info("email processed",
		zap.String("email_id", parsed.MessageID),
		zap.String("transaction_id", transactionID),
		zap.String("intent", classification.PrimaryIntent))
	metrics.IncrementEmailProcessed(StatusCompleted)
	o.publish(mq.RoutingEmailProcessed, map[string]any{
		"email_id":       parsed.MessageID,
		"transaction_id": transactionID,
		"intent":         classification.PrimaryIntent,
	})

	return Result{
		Status:         StatusCompleted,
		EmailID:        parsed.MessageID,
		TransactionID:  transactionID,
		Classification: classification,
		ExtractedData:  extracted,
		LedgerEntry:    entry,
		Reply:          reply,
		Timestamp:      time.Now(),
	}, nil
}

// sendConfirmation emails the confirm/cancel links for a pending
// transaction. Delivery failure is logged, not fatal: the transaction is
// already stored and can still be confirmed through the API.
func (o *Orchestrator) sendConfirmation(ctx context.Context, transactionID string) {
	if o.mailer == nil || o.confirmRecipient == "" {
		return
	}
	msg := mail.ConfirmationMessage(o.confirmRecipient, o.baseURL, transactionID)
	if err := o.mailer.Send(ctx, msg); err != nil {
		o.logger.Error("confirmation email send failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		metrics.IncrementMailSend("confirmation", "error")
		return
	}
	metrics.IncrementMailSend("confirmation", "success")
}

func (o *Orchestrator) failed(emailID string, err error) Result {
	o.logger.Error("email processing failed",
		zap.String("email_id", emailID),
		zap.Error(err))
	metrics.IncrementEmailProcessed(StatusFailed)
	return Result{
		Status:    StatusFailed,
		EmailID:   emailID,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
}

func (o *Orchestrator) publish(routingKey string, payload any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(routingKey, payload); err != nil {
		o.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}
