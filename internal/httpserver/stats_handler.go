package httpserver

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"financeagent/internal/model"
	"financeagent/internal/pipeline"
	"financeagent/internal/stats"
)

// StatsHandler exposes processing statistics, the ledger CSV export, and
// manual single-email processing.
type StatsHandler struct {
	stats        *stats.Service
	transactions stats.TransactionLister
	orchestrator *pipeline.Orchestrator
	logger       *zap.Logger
}

func NewStatsHandler(service *stats.Service, transactions stats.TransactionLister, orchestrator *pipeline.Orchestrator, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:        service,
		transactions: transactions,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Overview handles GET /stats
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		h.logger.Error("stats aggregation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate statistics"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ExportLedger handles GET /ledger/export, streaming all ledger rows as CSV
// ordered most recent first.
func (h *StatsHandler) ExportLedger(c *gin.Context) {
	docs, err := h.transactions.ListTransactions(c.Request.Context())
	if err != nil {
		h.logger.Error("ledger export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Date", "Mail ID", "Type", "Description", "Vendor/Customer", "Debit", "Credit"})
	for _, doc := range docs {
		if doc.LedgerEntry == nil {
			continue
		}
		e := doc.LedgerEntry
		_ = w.Write([]string{
			e.Date,
			e.MailID,
			e.Type,
			e.Description,
			e.VendorCustomer,
			money(e.Debit),
			money(e.Credit),
		})
	}
	w.Flush()
}

// Process handles POST /process, running one supplied message through the
// full stage chain synchronously.
func (h *StatsHandler) Process(c *gin.Context) {
	var raw model.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result := h.orchestrator.ProcessSingle(c.Request.Context(), &raw)
	c.JSON(http.StatusOK, result)
}

// Healthz handles GET /healthz
func (h *StatsHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
