package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"financeagent/config"
	"financeagent/internal/agent"
	"financeagent/internal/knowledge"
	"financeagent/internal/mail"
	"financeagent/internal/pipeline"
	"financeagent/internal/repository"
	"financeagent/internal/util"
	"financeagent/pkg/logger"
	"financeagent/pkg/mq"
	"financeagent/pkg/redis"
)

// stores groups the collection surfaces the worker wires into the stages.
type stores struct {
	emails       agent.EmailStore
	transactions agent.TransactionStore
	templates    knowledge.TemplateStore
	responses    agent.ResponseStore
}

func main() {
	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting finance agent worker...")

	dryRun := os.Getenv("DRY_RUN") == "1"

	var st stores
	if dryRun {
		// 本地演练模式，全部数据留在内存里
		logger.Info("Dry-run mode: using in-memory store")
		mem := repository.NewMemoryStore()
		st = stores{emails: mem, transactions: mem, templates: mem, responses: mem}
	} else {
		dbConn, err := repository.NewConnection(cfg.DB, logger)
		if err != nil {
			logger.Fatal("DB connection failed", zap.Error(err))
		}
		defer dbConn.Close()
		logger.Info("DB ready")

		st = stores{
			emails:       repository.NewEmailRepository(dbConn),
			transactions: repository.NewTransactionRepository(dbConn),
			templates:    repository.NewTemplateRepository(dbConn),
			responses:    repository.NewResponseRepository(dbConn),
		}
	}

	ctx := context.Background()
	if err := knowledge.Seed(ctx, st.templates); err != nil {
		logger.Fatal("knowledge base seeding failed", zap.Error(err))
	}
	kb, err := knowledge.Build(ctx, st.templates, logger)
	if err != nil {
		logger.Fatal("knowledge base build failed", zap.Error(err))
	}

	// Redis dedup (skipped in dry-run)
	var deduper *util.Deduper
	if !dryRun {
		rdb := redis.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		deduper = util.NewDeduper(rdb, 24*time.Hour, logger)
	}

	timeout := time.Duration(cfg.Agent.TimeoutSeconds) * time.Second
	inferer := agent.NewInferenceClient(cfg.Agent.URL, timeout)
	ocr := agent.NewOCRClient(cfg.Agent.OCRURL, timeout)

	parser := agent.NewParser(ocr, st.emails, logger)
	classifier := agent.NewClassifier(inferer, st.emails, logger)
	extractor := agent.NewExtractor(inferer, st.transactions, logger)
	mapper := agent.NewLedgerMapper(inferer, st.transactions, logger)
	replier := agent.NewReplyGenerator(inferer, kb, st.responses, logger)

	imapClient := mail.NewIMAPClient(cfg.Mail.IMAPAddr, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Folder, logger)
	smtpClient := mail.NewSMTPClient(cfg.Mail.SMTPAddr, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromAddress, logger)

	var publisher *mq.Publisher
	if !dryRun && cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			logger.Warn("MQ publisher init failed, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Parser:           parser,
		Classifier:       classifier,
		Extractor:        extractor,
		Mapper:           mapper,
		Replier:          replier,
		Fetcher:          imapClient,
		Mailer:           smtpClient,
		Publisher:        publisher,
		Deduper:          deduper,
		ConfirmRecipient: cfg.Mail.Username,
		BaseURL:          cfg.Server.BaseURL,
		Logger:           logger,
	})

	interval := time.Duration(cfg.Pipeline.IntervalSeconds) * time.Second
	logger.Info("Polling inbox",
		zap.Duration("interval", interval),
		zap.Int("batch_limit", cfg.Pipeline.BatchLimit))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runBatch(orchestrator, cfg.Pipeline.BatchLimit, interval, logger)
	for {
		select {
		case <-ticker.C:
			runBatch(orchestrator, cfg.Pipeline.BatchLimit, interval, logger)
		case <-quit:
			logger.Info("Worker stopped")
			return
		}
	}
}

// runBatch runs one poll cycle with its own deadline so a stuck external
// call cannot wedge the loop forever.
func runBatch(orchestrator *pipeline.Orchestrator, limit int, interval time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), interval)
	defer cancel()

	results, err := orchestrator.ProcessBatch(ctx, limit)
	if err != nil {
		logger.Error("batch processing failed", zap.Error(err))
		return
	}

	completed, notRelevant := 0, 0
	for _, r := range results {
		switch r.Status {
		case pipeline.StatusCompleted:
			completed++
		case pipeline.StatusNotRelevant:
			notRelevant++
		}
	}
	logger.Info("batch finished",
		zap.Int("results", len(results)),
		zap.Int("completed", completed),
		zap.Int("not_relevant", notRelevant))
}
