package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
)

const DefaultBatchSize = 1000

// BatchInserter stores one batch atomically and returns the number of new rows.
type BatchInserter interface {
	InsertBatch(ctx context.Context, records []models.TicketRecord) (int64, error)
}

// EventPublisher announces finished import runs.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, event models.ImportCompleted) error
}

// Importer loads orders exports into the ledger.
type Importer struct {
	Store     BatchInserter
	Publisher EventPublisher
	Logger    *logger.Logger
	BatchSize int
}

func NewImporter(store BatchInserter, publisher EventPublisher, log *logger.Logger, batchSize int) *Importer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{Store: store, Publisher: publisher, Logger: log, BatchSize: batchSize}
}

// ImportFile imports one CSV file. A missing file fails before the store is
// touched.
func (im *Importer) ImportFile(ctx context.Context, path string) (models.ImportCompleted, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ImportCompleted{}, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, path, f)
}

// Import reads a ';'-delimited export with a header line. Malformed rows are
// logged and skipped; a failed batch aborts the run. Rows already in the
// ledger count as duplicates. The completion event is published after a
// successful run; a publish failure is logged only.
func (im *Importer) Import(ctx context.Context, name string, src io.Reader) (models.ImportCompleted, error) {
	summary := models.ImportCompleted{RunID: uuid.NewString(), File: name}
	im.Logger.LogImport("START", name, fmt.Sprintf("run %s, batch size %d", summary.RunID, im.BatchSize))

	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return summary, fmt.Errorf("read header of %s: file is empty", name)
		}
		return summary, fmt.Errorf("read header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	batch := make([]models.TicketRecord, 0, im.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := im.Store.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		summary.Inserted += inserted
		summary.Duplicates += int64(len(batch)) - inserted
		im.Logger.LogImport("BATCH", name, fmt.Sprintf("%d rows read, %d inserted, %d duplicates",
			summary.Read, summary.Inserted, summary.Duplicates))
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		summary.Read++
		if err != nil {
			summary.Skipped++
			im.Logger.Warn("IMPORT", fmt.Sprintf("Skipping malformed line %d: %v", summary.Read+1, err))
			continue
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}

		rec, err := ParseRow(row)
		if err != nil {
			summary.Skipped++
			im.Logger.Warn("IMPORT", fmt.Sprintf("Skipping line %d: %v", summary.Read+1, err))
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= im.BatchSize {
			if err := flush(); err != nil {
				return summary, fmt.Errorf("import %s: %w", name, err)
			}
		}
	}
	if err := flush(); err != nil {
		return summary, fmt.Errorf("import %s: %w", name, err)
	}

	summary.FinishedAt = time.Now().UTC()
	im.Logger.LogImport("DONE", name, fmt.Sprintf("✅ read %d, inserted %d, duplicates %d, skipped %d",
		summary.Read, summary.Inserted, summary.Duplicates, summary.Skipped))

	if im.Publisher != nil {
		if err := im.Publisher.PublishImportCompleted(ctx, summary); err != nil {
			im.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish import %s: %v", summary.RunID, err))
		}
	}
	return summary, nil
}
