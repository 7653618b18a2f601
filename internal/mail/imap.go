// Package mail talks to the mailbox: IMAP fetch of unread messages and SMTP
// delivery of replies, confirmations and invoices.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"financeagent/internal/model"
)

// IMAPClient fetches unread messages from one folder. Each call dials a
// fresh connection; the mailbox session is not kept open between polls.
type IMAPClient struct {
	addr     string
	username string
	password string
	folder   string
	logger   *zap.Logger
}

func NewIMAPClient(addr, username, password, folder string, logger *zap.Logger) *IMAPClient {
	if folder == "" {
		folder = "INBOX"
	}
	return &IMAPClient{
		addr:     addr,
		username: username,
		password: password,
		folder:   folder,
		logger:   logger,
	}
}

func (c *IMAPClient) dial() (*imapclient.Client, error) {
	host := c.addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	client, err := imapclient.DialTLS(c.addr, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap connect %s: %w", c.addr, err)
	}
	if err := client.Login(c.username, c.password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("imap login %s: %w", c.username, err)
	}
	return client, nil
}

// FetchUnread returns up to limit unread messages from the folder. Messages
// are fetched with BODY.PEEK so the unread flag survives a crash before the
// pipeline marks them read.
func (c *IMAPClient) FetchUnread(ctx context.Context, limit int) ([]model.RawMessage, error) {
	client, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	defer client.Logout()

	if _, err := client.Select(c.folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", c.folder, err)
	}

	searchCriteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := client.Search(searchCriteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}

	seqNums := searchData.AllSeqNums()
	if len(seqNums) == 0 {
		return nil, nil
	}
	// 只取最新的 limit 封
	if limit > 0 && len(seqNums) > limit {
		seqNums = seqNums[len(seqNums)-limit:]
	}

	seqSet := imap.SeqSetNum(seqNums...)
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	buffers, err := client.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	var messages []model.RawMessage
	for _, buf := range buffers {
		content := buf.FindBodySection(bodySection)
		if len(content) == 0 {
			c.logger.Warn("empty body, skipping", zap.Uint32("seq", buf.SeqNum))
			continue
		}

		raw, err := parseRawMessage(content)
		if err != nil {
			c.logger.Error("failed to parse message", zap.Uint32("seq", buf.SeqNum), zap.Error(err))
			continue
		}
		raw.UID = uint32(buf.UID)
		if raw.MessageID == "" && buf.Envelope != nil {
			raw.MessageID = buf.Envelope.MessageID
		}
		if raw.MessageID == "" {
			raw.MessageID = fmt.Sprintf("imap-%d-%s", buf.UID, c.username)
		}
		messages = append(messages, raw)
	}

	c.logger.Info("fetched unread messages", zap.Int("count", len(messages)))
	return messages, nil
}

// MarkRead sets \Seen on the message with the given UID.
func (c *IMAPClient) MarkRead(ctx context.Context, uid uint32) error {
	client, err := c.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	defer client.Logout()

	if _, err := client.Select(c.folder, nil).Wait(); err != nil {
		return fmt.Errorf("imap select %s: %w", c.folder, err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))
	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := client.Store(uidSet, storeFlags, nil).Close(); err != nil {
		return fmt.Errorf("imap store seen %d: %w", uid, err)
	}
	return nil
}

// parseRawMessage decodes an RFC 5322 message into the pipeline's raw
// representation: headers, a body (plain preferred, HTML as fallback) and the
// raw attachment parts.
func parseRawMessage(content []byte) (model.RawMessage, error) {
	var raw model.RawMessage

	reader, err := gomail.CreateReader(bytes.NewReader(content))
	if err != nil {
		return raw, fmt.Errorf("create mail reader: %w", err)
	}
	defer reader.Close()

	header := reader.Header
	raw.Subject, _ = header.Subject()
	raw.MessageID, _ = header.MessageID()
	if raw.MessageID != "" {
		raw.MessageID = "<" + raw.MessageID + ">"
	}
	if date, err := header.Date(); err == nil && !date.IsZero() {
		raw.Date = date.Format("2006-01-02 15:04:05")
	}
	if addrs, err := header.AddressList("From"); err == nil && len(addrs) > 0 {
		raw.From = addrs[0].String()
	}
	if addrs, err := header.AddressList("To"); err == nil && len(addrs) > 0 {
		raw.To = addrs[0].String()
	}

	var htmlBody string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw, fmt.Errorf("read mail part: %w", err)
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				if raw.Body == "" {
					raw.Body = string(data)
				}
			case "text/html":
				if htmlBody == "" {
					htmlBody = string(data)
				}
			}
		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename == "" {
				continue
			}
			contentType, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			raw.Attachments = append(raw.Attachments, model.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Data:        data,
			})
		}
	}

	// 没有纯文本部分时退回 HTML
	if raw.Body == "" {
		raw.Body = htmlBody
	}
	return raw, nil
}
