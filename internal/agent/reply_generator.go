package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/pkg/metrics"
)

// Knowledge retrieves policy and template documents relevant to a query.
// Built once at startup and read-only afterwards.
type Knowledge interface {
	Retrieve(query string, limit int) []model.TemplateDoc
}

// ReplyGenerator drafts the outbound reply for a processed email. The reply
// is stored and only delivered later, once the transaction is confirmed.
type ReplyGenerator struct {
	inferer   Inferer
	knowledge Knowledge
	responses ResponseStore
	logger    *zap.Logger
}

func NewReplyGenerator(inferer Inferer, knowledge Knowledge, responses ResponseStore, logger *zap.Logger) *ReplyGenerator {
	return &ReplyGenerator{inferer: inferer, knowledge: knowledge, responses: responses, logger: logger}
}

// GenerateReply produces the reply and records it with its pipeline context.
func (g *ReplyGenerator) GenerateReply(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData) (*model.GeneratedReply, error) {
	references := g.lookupReferences(parsed, classification)

	reply := g.generatePrimary(ctx, parsed, classification, extracted, references)
	if reply == nil {
		metrics.IncrementStageFallback("generate_reply")
		reply = FallbackReply(parsed, classification, nil)
	}
	if len(reply.PolicyReferences) == 0 {
		reply.PolicyReferences = references
	}
	reply.Timestamp = time.Now()

	doc := &model.ResponseDoc{
		EmailID:        parsed.MessageID,
		GeneratedReply: reply,
		Classification: classification,
		ExtractedData:  extracted,
		CreatedAt:      time.Now(),
	}
	if err := g.responses.InsertResponse(ctx, doc); err != nil {
		g.logger.Error("store generated reply failed",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
	}

	return reply, nil
}

func (g *ReplyGenerator) lookupReferences(parsed *model.ParsedEmail, classification *model.Classification) []string {
	if g.knowledge == nil {
		return nil
	}
	templates := g.knowledge.Retrieve(classification.PrimaryIntent+" "+parsed.Subject, 2)
	references := make([]string, 0, len(templates))
	for _, t := range templates {
		references = append(references, t.Title)
	}
	return references
}

func (g *ReplyGenerator) generatePrimary(ctx context.Context, parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData, references []string) *model.GeneratedReply {
	if g.inferer == nil {
		return nil
	}
	prompt := replyPrompt(parsed, classification, extracted, references)
	var result model.GeneratedReply
	if err := g.inferer.Infer(ctx, "generate_reply", prompt, &result); err != nil {
		g.logger.Warn("reply inference failed, using fallback",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
		return nil
	}
	if result.ReplyBody == "" {
		g.logger.Warn("reply inference returned empty body, using fallback",
			zap.String("email_id", parsed.MessageID))
		return nil
	}
	if result.ReplySubject == "" {
		result.ReplySubject = "Re: " + parsed.Subject
	}
	return &result
}

// FallbackReply is the canned reply. Known missing fields turn it into a
// clarification request; otherwise the body is keyed by primary intent.
func FallbackReply(parsed *model.ParsedEmail, classification *model.Classification, missingFields []string) *model.GeneratedReply {
	body := "Thank you for your email. We have received your message and will respond accordingly."
	replyType := "Acknowledgment"

	switch {
	case len(missingFields) > 0:
		body = "Thank you for your email. To process your request, we need the following information: " +
			strings.Join(missingFields, ", ") + ". Please provide this information at your earliest convenience."
		replyType = "Request"
	case classification.PrimaryIntent == "Invoice":
		body = "Thank you for your invoice. We have received it and it is being processed according to our standard procedures."
		replyType = "Confirmation"
	case classification.PrimaryIntent == "Payment Confirmation":
		body = "Thank you for your payment. We have received your payment and your account has been updated."
		replyType = "Confirmation"
	}

	if missingFields == nil {
		missingFields = []string{}
	}

	return &model.GeneratedReply{
		ReplySubject:    "Re: " + parsed.Subject,
		ReplyBody:       body,
		ReplyType:       replyType,
		MissingFields:   missingFields,
		Tone:            "Professional",
		UrgencyLevel:    "Normal",
		ConfidenceScore: 0.7,
	}
}

func replyPrompt(parsed *model.ParsedEmail, classification *model.Classification, extracted *model.ExtractedData, references []string) string {
	amount := ""
	if extracted.Amount != nil {
		amount = fmt.Sprintf("%.2f %s", *extracted.Amount, extracted.Currency)
	}
	return fmt.Sprintf(`Write a professional reply to this financial email.

Subject: %s
From: %s
Intent: %s
Amount: %s
Relevant policies: %s
Body: %s

Respond with JSON containing reply_subject, reply_body, reply_type,
missing_fields, policy_references, tone, urgency_level and
confidence_score.`,
		parsed.Subject, parsed.Sender, classification.PrimaryIntent, amount,
		strings.Join(references, "; "), truncate(parsed.BodyText, 2000))
}
