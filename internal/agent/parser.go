package agent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"financeagent/internal/model"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	// 只保留常见正文字符，去掉乱码
	allowedPattern = regexp.MustCompile(`[^\w\s\.\,\!\?\:\;\-\(\)]`)
)

// Parser turns raw inbox messages into cleaned ParsedEmail values. Cleaning
// never fails: an unparsable body degrades to an empty string.
type Parser struct {
	sanitizer *bluemonday.Policy
	ocr       TextExtractor
	emails    EmailStore
	logger    *zap.Logger
}

func NewParser(ocr TextExtractor, emails EmailStore, logger *zap.Logger) *Parser {
	return &Parser{
		sanitizer: bluemonday.StrictPolicy(),
		ocr:       ocr,
		emails:    emails,
		logger:    logger,
	}
}

// Parse cleans the message body, runs attachment text extraction, records
// the parsed document, and returns the immutable parsed view consumed by
// every later stage.
func (p *Parser) Parse(ctx context.Context, raw *model.RawMessage) (*model.ParsedEmail, error) {
	parsed := &model.ParsedEmail{
		Subject:   raw.Subject,
		Sender:    raw.From,
		Recipient: raw.To,
		Date:      raw.Date,
		MessageID: raw.MessageID,
		BodyText:  p.cleanText(raw.Body),
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"source_uid": uidString(raw.UID),
		},
	}

	for _, att := range raw.Attachments {
		processed := model.ProcessedAttachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Data:        att.Data,
		}
		if p.ocr != nil {
			text, err := p.ocr.ExtractText(ctx, att)
			if err != nil {
				p.logger.Warn("attachment text extraction failed",
					zap.String("filename", att.Filename),
					zap.Error(err))
			} else {
				processed.ExtractedText = p.cleanText(text)
			}
		}
		parsed.Attachments = append(parsed.Attachments, processed)
	}

	if p.emails != nil {
		doc := &model.EmailDoc{
			EmailID:      parsed.MessageID,
			ParsedEmail:  parsed,
			AgentVersion: "1.0",
			CreatedAt:    time.Now(),
		}
		if err := p.emails.InsertEmail(ctx, doc); err != nil {
			p.logger.Error("store parsed email failed",
				zap.String("email_id", parsed.MessageID),
				zap.Error(err))
		}
	}

	return parsed, nil
}

// cleanText strips markup and noise from a body. HTML is sanitized first so
// tag contents survive, then leftover angle-bracket fragments, repeated
// whitespace and non-text characters go.
func (p *Parser) cleanText(body string) string {
	if body == "" {
		return ""
	}
	text := p.sanitizer.Sanitize(body)
	text = tagPattern.ReplaceAllString(text, " ")
	text = allowedPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func uidString(uid uint32) string {
	if uid == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(uid), 10)
}
