package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"financeagent/config"
	"financeagent/internal/agent"
	"financeagent/internal/mail"
	"financeagent/internal/model"
	"financeagent/internal/pipeline"
	"financeagent/internal/repository"
	"financeagent/pkg/metrics"
	"financeagent/pkg/mq"
)

// TransactionFinder is the store surface the confirmation workflow needs.
type TransactionFinder interface {
	FindByCorrelationKey(ctx context.Context, key string) (*model.TransactionDoc, error)
	DeleteByCorrelationKey(ctx context.Context, key string) (bool, error)
}

const (
	fallbackSubject = "Your Invoice or Quotation is Created Successfully"
	fallbackBody    = "Dear Customer,\n\nYour invoice or quotation has been created successfully. Please find the PDF attached.\n\nThank you!"
)

// ConfirmationHandler implements the confirm/cancel webhook. Confirm is an
// at-least-once action: it resends on repeated clicks and never mutates the
// record. Cancel deletes the record and is naturally idempotent.
type ConfirmationHandler struct {
	transactions TransactionFinder
	replier      *agent.ReplyGenerator
	mailer       pipeline.Mailer
	publisher    *mq.Publisher
	company      config.CompanyConfig
	logger       *zap.Logger
}

func NewConfirmationHandler(
	transactions TransactionFinder,
	replier *agent.ReplyGenerator,
	mailer pipeline.Mailer,
	publisher *mq.Publisher,
	company config.CompanyConfig,
	logger *zap.Logger,
) *ConfirmationHandler {
	return &ConfirmationHandler{
		transactions: transactions,
		replier:      replier,
		mailer:       mailer,
		publisher:    publisher,
		company:      company,
		logger:       logger,
	}
}

// Confirm handles GET /confirm?transaction_id=<key>
func (h *ConfirmationHandler) Confirm(c *gin.Context) {
	key := c.Query("transaction_id")
	if key == "" {
		c.String(http.StatusBadRequest, "Missing transaction_id")
		return
	}

	ctx := c.Request.Context()
	doc, err := h.transactions.FindByCorrelationKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			c.String(http.StatusNotFound, "Transaction not found")
			return
		}
		h.logger.Error("transaction lookup failed", zap.String("key", key), zap.Error(err))
		c.String(http.StatusInternalServerError, "Transaction lookup failed")
		return
	}

	attachment, err := h.buildInvoice(doc)
	if err != nil {
		h.logger.Error("invoice generation failed", zap.String("key", key), zap.Error(err))
		c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to generate invoice: %v", err))
		return
	}

	msg, successText := h.buildReply(ctx, doc, attachment)
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("reply send failed", zap.String("key", key), zap.Error(err))
		metrics.IncrementMailSend("reply", "error")
		c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err))
		return
	}
	metrics.IncrementMailSend("reply", "success")

	h.publish(mq.RoutingTransactionConfirmed, doc)
	c.String(http.StatusOK, successText)
}

// Cancel handles GET /cancel?transaction_id=<key>
func (h *ConfirmationHandler) Cancel(c *gin.Context) {
	key := c.Query("transaction_id")
	if key == "" {
		c.String(http.StatusBadRequest, "Missing transaction_id")
		return
	}

	deleted, err := h.transactions.DeleteByCorrelationKey(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("transaction delete failed", zap.String("key", key), zap.Error(err))
		c.String(http.StatusInternalServerError, "Transaction delete failed")
		return
	}
	if !deleted {
		c.String(http.StatusNotFound, "Transaction not found")
		return
	}

	h.publish(mq.RoutingTransactionCancelled, map[string]string{"transaction_id": key})
	c.String(http.StatusOK, "Process cancelled and ledger entry deleted.")
}

// buildReply prefers the full context path, regenerating a rich reply from
// the stored pipeline context. When context is missing it degrades to a
// minimal notification with just the PDF.
func (h *ConfirmationHandler) buildReply(ctx context.Context, doc *model.TransactionDoc, attachment *model.ReplyAttachment) (mail.OutboundMessage, string) {
	to := doc.LedgerEntry.MailID

	if doc.ParsedEmail != nil && doc.Classification != nil && doc.ExtractedData != nil {
		reply, err := h.replier.GenerateReply(ctx, doc.ParsedEmail, doc.Classification, doc.ExtractedData)
		if err == nil {
			return mail.OutboundMessage{
				To:          to,
				Subject:     reply.ReplySubject,
				Body:        reply.ReplyBody,
				Attachments: attachmentList(attachment),
			}, "Reply and invoice sent successfully!"
		}
		h.logger.Warn("reply regeneration failed, sending fallback notification", zap.Error(err))
	}

	return mail.OutboundMessage{
		To:          to,
		Subject:     fallbackSubject,
		Body:        fallbackBody,
		Attachments: attachmentList(attachment),
	}, "Invoice/Quotation sent successfully (fallback)!"
}

func (h *ConfirmationHandler) buildInvoice(doc *model.TransactionDoc) (*model.ReplyAttachment, error) {
	parsed := doc.ParsedEmail
	if parsed == nil {
		parsed = &model.ParsedEmail{
			Sender:  doc.LedgerEntry.MailID,
			Subject: doc.LedgerEntry.Description,
		}
	}
	extracted := doc.ExtractedData
	if extracted == nil {
		extracted = &model.ExtractedData{}
	}
	return agent.BuildInvoicePDF(h.company, parsed, extracted, doc.LedgerEntry)
}

func (h *ConfirmationHandler) publish(routingKey string, payload any) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(routingKey, payload); err != nil {
		h.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}

func attachmentList(att *model.ReplyAttachment) []model.ReplyAttachment {
	if att == nil {
		return nil
	}
	return []model.ReplyAttachment{*att}
}
