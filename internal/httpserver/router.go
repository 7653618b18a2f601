// Package httpserver wires the confirm/cancel webhook and operational API.
package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"financeagent/pkg/metrics"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(confirmation *ConfirmationHandler, statsHandler *StatsHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics())

	r.GET("/confirm", confirmation.Confirm)
	r.GET("/cancel", confirmation.Cancel)

	r.GET("/stats", statsHandler.Overview)
	r.GET("/ledger/export", statsHandler.ExportLedger)
	r.POST("/process", statsHandler.Process)

	r.GET("/healthz", statsHandler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// requestMetrics records duration and status per endpoint.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordWebhookRequestDuration(endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
