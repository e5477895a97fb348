package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"health-journal/internal/advisor"
	"health-journal/internal/config"
	"health-journal/internal/journal"
	"health-journal/internal/llm"
	"health-journal/internal/report"
	"health-journal/internal/scheduler"
	"health-journal/internal/server"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := journal.NewFileStore(cfg.DataFilePath)
	if err != nil {
		logger.Fatal("failed to init journal store", zap.Error(err))
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		logger.Fatal("failed to create llm client", zap.Error(err))
	}
	adv := advisor.New(llmClient)

	renderer, err := report.NewRenderer(cfg.ReportOutputDir)
	if err != nil {
		logger.Fatal("failed to init report renderer", zap.Error(err))
	}

	srv := server.New(store, adv, renderer, cfg, logger)

	var sched *scheduler.Scheduler
	if cfg.ReportCron != "" {
		sched = scheduler.New(logger)
		sched.SetReportFunction(func(ctx context.Context) error {
			doc, err := store.Load()
			if err != nil {
				return err
			}
			summary, err := adv.OverallSummary(ctx, doc)
			if err != nil {
				summary = fmt.Sprintf("Automated summary could not be generated (internal error: %v).", err)
			}
			path, err := renderer.Render(doc, summary)
			if err != nil {
				return err
			}
			logger.Info("scheduled report written", zap.String("path", path))
			return nil
		})
		if err := sched.Start(cfg.ReportCron); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	f := &llm.Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	return f.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
}
