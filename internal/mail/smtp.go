package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"financeagent/internal/model"
)

// OutboundMessage is one mail to deliver. Body is either plain text or HTML
// depending on the HTML flag.
type OutboundMessage struct {
	To          string
	Subject     string
	Body        string
	HTML        bool
	Attachments []model.ReplyAttachment
}

// SMTPClient delivers outbound mail. Each Send dials a fresh connection.
type SMTPClient struct {
	addr     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

func NewSMTPClient(addr, username, password, from string, logger *zap.Logger) *SMTPClient {
	if from == "" {
		from = username
	}
	return &SMTPClient{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send composes a MIME message and delivers it. The connection is upgraded
// with STARTTLS when the server offers it.
func (c *SMTPClient) Send(ctx context.Context, msg OutboundMessage) error {
	payload, err := c.compose(msg)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	host := c.addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	client, err := smtp.Dial(c.addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", c.addr, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if c.username != "" && c.password != "" {
		auth := smtp.PlainAuth("", c.username, c.password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(c.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	c.logger.Info("mail delivered",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return client.Quit()
}

func (c *SMTPClient) compose(msg OutboundMessage) ([]byte, error) {
	var header gomail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*gomail.Address{{Address: c.from}})
	header.SetAddressList("To", []*gomail.Address{{Address: msg.To}})
	header.SetSubject(msg.Subject)

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, header)
	if err != nil {
		return nil, err
	}

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	var inline gomail.InlineHeader
	inline.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	body, err := mw.CreateSingleInline(inline)
	if err != nil {
		return nil, err
	}
	if _, err := body.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := body.Close(); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		var ah gomail.AttachmentHeader
		ah.SetFilename(att.Filename)
		if att.ContentType != "" {
			ah.SetContentType(att.ContentType, nil)
		}
		w, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(att.Data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
