// Package agent implements the five pipeline stages. Every stage tries a
// model-backed strategy first and falls back to deterministic heuristics, so
// stage execution never fails outward for inference problems alone.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"financeagent/pkg/circuitbreaker"
	"financeagent/pkg/metrics"
)

// Inferer is the capability boundary to the language model. Infer submits a
// prompt and decodes the structured result into out; any error means the
// caller should use its fallback strategy.
type Inferer interface {
	Infer(ctx context.Context, stage, prompt string, out any) error
}

type inferRequest struct {
	Stage  string `json:"stage"`
	Prompt string `json:"prompt"`
}

// InferenceClient calls the inference sidecar over HTTP, guarded by a
// circuit breaker so a dead sidecar fails fast instead of stalling the
// whole batch.
type InferenceClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewInferenceClient(baseURL string, timeout time.Duration) *InferenceClient {
	// 熔断器阈值配置得比默认更严格，保证快速失败
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &InferenceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb: circuitbreaker.New(cbConfig),
	}
}

// Infer posts the prompt to the sidecar and decodes the JSON response into
// out. The error is returned as-is so stages can count and absorb it.
func (c *InferenceClient) Infer(ctx context.Context, stage, prompt string, out any) error {
	return c.cb.Execute(func() error {
		start := time.Now()

		b, err := json.Marshal(inferRequest{Stage: stage, Prompt: prompt})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/infer", bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordInferenceCallLatency(stage, "error", latency)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			status := fmt.Sprintf("%d", resp.StatusCode)
			if resp.StatusCode >= 500 {
				status = "5xx"
			}
			metrics.RecordInferenceCallLatency(stage, status, latency)
			return fmt.Errorf("inference sidecar error: %d", resp.StatusCode)
		}

		metrics.RecordInferenceCallLatency(stage, "success", latency)
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode inference result: %w", err)
		}
		return nil
	})
}
