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

// Classifier assigns a financial intent to a parsed email. The primary
// strategy is a structured inference call; when that fails or returns an
// invalid result, keyword rules take over.
type Classifier struct {
	inferer Inferer
	emails  EmailStore
	logger  *zap.Logger
}

func NewClassifier(inferer Inferer, emails EmailStore, logger *zap.Logger) *Classifier {
	return &Classifier{inferer: inferer, emails: emails, logger: logger}
}

// Classify produces a Classification for the email and records the
// input+output pair for audit. The returned classification always has a
// confidence score in [0,1] and a non-empty primary intent.
func (c *Classifier) Classify(ctx context.Context, parsed *model.ParsedEmail) (*model.Classification, error) {
	classification := c.classifyPrimary(ctx, parsed)
	if classification == nil {
		metrics.IncrementStageFallback("classify")
		classification = c.classifyFallback(parsed)
	}
	classification.Timestamp = time.Now()

	doc := &model.EmailDoc{
		EmailID:        parsed.MessageID,
		ParsedEmail:    parsed,
		Classification: classification,
		AgentVersion:   "1.0",
		CreatedAt:      time.Now(),
	}
	if err := c.emails.InsertEmail(ctx, doc); err != nil {
		c.logger.Error("store classified email failed",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
	}

	return classification, nil
}

func (c *Classifier) classifyPrimary(ctx context.Context, parsed *model.ParsedEmail) *model.Classification {
	if c.inferer == nil {
		return nil
	}
	prompt := classificationPrompt(parsed)
	var result model.Classification
	if err := c.inferer.Infer(ctx, "classify", prompt, &result); err != nil {
		c.logger.Warn("classification inference failed, using fallback",
			zap.String("email_id", parsed.MessageID),
			zap.Error(err))
		return nil
	}
	if result.PrimaryIntent == "" || result.ConfidenceScore < 0 || result.ConfidenceScore > 1 {
		c.logger.Warn("classification inference returned invalid result, using fallback",
			zap.String("email_id", parsed.MessageID))
		return nil
	}
	if result.UrgencyLevel == "" {
		result.UrgencyLevel = model.UrgencyLow
	}
	return &result
}

// classifyFallback is the deterministic keyword classifier. Rules are fixed
// and ordered; the first keyword hit decides intent, urgency and relevance.
func (c *Classifier) classifyFallback(parsed *model.ParsedEmail) *model.Classification {
	content := strings.ToLower(parsed.Subject + " " + parsed.BodyText)

	intent := "General Communication"
	urgency := model.UrgencyLow
	relevant := false

	switch {
	case containsAny(content, "invoice", "bill", "payment due"):
		intent = "Invoice"
		urgency = model.UrgencyMedium
		relevant = true
	case containsAny(content, "payment", "paid", "confirmation"):
		intent = "Payment Confirmation"
		urgency = model.UrgencyLow
		relevant = true
	case containsAny(content, "alert", "warning", "urgent"):
		intent = "Alert"
		urgency = model.UrgencyHigh
		relevant = true
	}

	return &model.Classification{
		PrimaryIntent:        intent,
		ConfidenceScore:      0.6,
		ClassificationReason: "Fallback keyword-based classification",
		FinancialRelevance:   relevant,
		UrgencyLevel:         urgency,
		Tags:                 []string{"fallback_classification"},
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func classificationPrompt(parsed *model.ParsedEmail) string {
	return fmt.Sprintf(`Classify the intent of this email for financial processing.

Subject: %s
From: %s
Body: %s

Respond with JSON containing primary_intent, secondary_intent,
confidence_score (0-1), classification_reason, financial_relevance (bool),
urgency_level (Low/Medium/High/Critical) and tags.`,
		parsed.Subject, parsed.Sender, truncate(parsed.BodyText, 2000))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
