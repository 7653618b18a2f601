package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"financeagent/internal/model"
)

// TextExtractor pulls readable text out of an email attachment. A nil or
// failing extractor never fails the pipeline; the attachment just carries
// no extracted text.
type TextExtractor interface {
	ExtractText(ctx context.Context, att model.Attachment) (string, error)
}

// OCRClient sends binary attachments to the OCR sidecar. Plain-text
// attachments are decoded locally and never hit the network.
type OCRClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOCRClient(baseURL string, timeout time.Duration) *OCRClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OCRClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OCRClient) ExtractText(ctx context.Context, att model.Attachment) (string, error) {
	if strings.HasPrefix(att.ContentType, "text/") {
		return string(att.Data), nil
	}
	if c.baseURL == "" {
		return "", nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", att.Filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(att.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr sidecar error: %d", resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}
