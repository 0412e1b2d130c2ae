package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ms-reporting/internal/cache"
	"ms-reporting/internal/config"
	"ms-reporting/internal/database"
	"ms-reporting/internal/kafka"
	"ms-reporting/internal/ledger"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
	"ms-reporting/internal/reports/db"
	"ms-reporting/internal/reports/report_api"
	reports "ms-reporting/internal/reports/service"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger("report-service", cfg.Log.Dir, cfg.Log.Level)
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open ledger: %v", err))
	}
	defer bunDB.Close()
	log.Info("DATABASE", fmt.Sprintf("✅ Ledger store ready (%s)", cfg.Database.Driver))

	responseCache, err := cache.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("CACHE", fmt.Sprintf("Redis unavailable, serving uncached: %v", err))
	}
	defer responseCache.Close()

	policies := ledger.NewPolicies(cfg.Report.SeparateDirectSaleRefunds)
	service := reports.NewReportService(&db.DB{Bun: bunDB}, policies, log)
	handler := report_api.NewHandler(service, log, responseCache, cfg.Redis.ShortTTL, cfg.Redis.LongTTL)

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, []string{cfg.Kafka.ImportTopic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ImportTopic, cfg.Kafka.GroupID, log)
		defer consumer.Close()

		go func() {
			err := consumer.Run(ctx, func(ctx context.Context, event models.ImportCompleted) error {
				_, err := responseCache.Flush(ctx)
				return err
			})
			if err != nil {
				log.Error("KAFKA", fmt.Sprintf("Import consumer stopped: %v", err))
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      report_api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Report Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Report Service shutdown complete")
	}
}
