package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ms-reporting/internal/config"
	"ms-reporting/internal/database"
	"ms-reporting/internal/importer"
	"ms-reporting/internal/kafka"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/reports/db"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present
	cfg := config.Load()

	file := flag.String("file", cfg.Import.DefaultFile, "orders export to import")
	batch := flag.Int("batch", cfg.Import.BatchSize, "rows per insert transaction")
	flag.Parse()

	log := logger.NewLogger("importer", cfg.Log.Dir, cfg.Log.Level)
	defer log.Close()

	if _, err := os.Stat(*file); err != nil {
		log.Fatal("IMPORT", fmt.Sprintf("CSV file not found: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open ledger: %v", err))
	}
	defer bunDB.Close()

	var publisher importer.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ImportTopic, log)
		defer producer.Close()
		publisher = producer
	}

	im := importer.NewImporter(&db.DB{Bun: bunDB}, publisher, log, *batch)
	summary, err := im.ImportFile(ctx, *file)
	if err != nil {
		// Fatal exits without running the deferred closes.
		bunDB.Close()
		log.Fatal("IMPORT", fmt.Sprintf("Import failed: %v", err))
	}

	fmt.Printf("Imported %s: read %d, inserted %d, duplicates %d, skipped %d\n",
		summary.File, summary.Read, summary.Inserted, summary.Duplicates, summary.Skipped)
}
