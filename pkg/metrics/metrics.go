package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推理服务调用延迟（毫秒）
	InferenceCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_call_latency_ms",
			Help:    "Inference sidecar call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"stage", "status"},
	)

	// 各阶段 fallback 计数
	StageFallbackCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_fallback_count",
			Help: "Total number of stage executions that fell back to heuristics",
		},
		[]string{"stage"},
	)

	// 邮件处理计数
	EmailProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_processed_count",
			Help: "Total number of emails processed",
		},
		[]string{"status"}, // status: completed, not_relevant, failed
	)

	// webhook 请求延迟（秒）
	WebhookRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_request_duration_seconds",
			Help:    "Confirmation webhook request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"endpoint", "status"},
	)

	// 邮件发送计数
	MailSendCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_send_count",
			Help: "Total number of outbound mail deliveries",
		},
		[]string{"kind", "status"}, // kind: reply, confirmation, invoice
	)
)

// RecordInferenceCallLatency 记录推理调用延迟
func RecordInferenceCallLatency(stage, status string, duration time.Duration) {
	InferenceCallLatency.WithLabelValues(stage, status).Observe(float64(duration.Milliseconds()))
}

// IncrementStageFallback 增加 fallback 计数
func IncrementStageFallback(stage string) {
	StageFallbackCount.WithLabelValues(stage).Inc()
}

// IncrementEmailProcessed 增加邮件处理计数
func IncrementEmailProcessed(status string) {
	EmailProcessedCount.WithLabelValues(status).Inc()
}

// RecordWebhookRequestDuration 记录 webhook 请求延迟
func RecordWebhookRequestDuration(endpoint, status string, duration time.Duration) {
	WebhookRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// IncrementMailSend 增加邮件发送计数
func IncrementMailSend(kind, status string) {
	MailSendCount.WithLabelValues(kind, status).Inc()
}
