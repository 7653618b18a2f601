package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"financeagent/config"
	"financeagent/internal/agent"
	"financeagent/internal/httpserver"
	"financeagent/internal/knowledge"
	"financeagent/internal/mail"
	"financeagent/internal/pipeline"
	"financeagent/internal/repository"
	"financeagent/internal/stats"
	"financeagent/pkg/logger"
	"financeagent/pkg/mq"
)

func main() {
	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting finance agent server...")

	// DB
	dbConn, err := repository.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("DB ready")

	// repositories
	emailRepo := repository.NewEmailRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	templateRepo := repository.NewTemplateRepository(dbConn)
	responseRepo := repository.NewResponseRepository(dbConn)

	// knowledge base
	ctx := context.Background()
	if err := knowledge.Seed(ctx, templateRepo); err != nil {
		logger.Fatal("knowledge base seeding failed", zap.Error(err))
	}
	kb, err := knowledge.Build(ctx, templateRepo, logger)
	if err != nil {
		logger.Fatal("knowledge base build failed", zap.Error(err))
	}

	// inference and OCR sidecars
	timeout := time.Duration(cfg.Agent.TimeoutSeconds) * time.Second
	inferer := agent.NewInferenceClient(cfg.Agent.URL, timeout)
	ocr := agent.NewOCRClient(cfg.Agent.OCRURL, timeout)

	// stages
	parser := agent.NewParser(ocr, emailRepo, logger)
	classifier := agent.NewClassifier(inferer, emailRepo, logger)
	extractor := agent.NewExtractor(inferer, transactionRepo, logger)
	mapper := agent.NewLedgerMapper(inferer, transactionRepo, logger)
	replier := agent.NewReplyGenerator(inferer, kb, responseRepo, logger)

	// outbound mail
	smtpClient := mail.NewSMTPClient(cfg.Mail.SMTPAddr, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromAddress, logger)

	// event publisher (optional)
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
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
		Mailer:           smtpClient,
		Publisher:        publisher,
		ConfirmRecipient: cfg.Mail.Username,
		BaseURL:          cfg.Server.BaseURL,
		Logger:           logger,
	})

	statsService := stats.NewService(emailRepo, transactionRepo, responseRepo)

	confirmation := httpserver.NewConfirmationHandler(transactionRepo, replier, smtpClient, publisher, cfg.Company, logger)
	statsHandler := httpserver.NewStatsHandler(statsService, transactionRepo, orchestrator, logger)

	router := httpserver.NewRouter(confirmation, statsHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
