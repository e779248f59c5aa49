package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/export"
	"budgetbook/internal/storage"
)

// ExportWorker handles exporting budget snapshots from SQLite to the
// configured snapshot sink. Events carry only the identity; the worker
// always re-reads the committed state from storage.
type ExportWorker struct {
	storage *storage.SQLiteRepository
	writer  export.SnapshotWriter
}

func NewExportWorker(storage *storage.SQLiteRepository, writer export.SnapshotWriter) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		writer:  writer,
	}
}

// HandleBudgetEvent processes a single budget event message from AMQP.
func (w *ExportWorker) HandleBudgetEvent(ctx context.Context, msg *amqp.BudgetEventMessage) error {
	slog.InfoContext(ctx, "Processing budget event",
		"identity", msg.Identity,
		"operation", msg.Operation)

	if err := w.exportIdentity(ctx, msg.Identity); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	return nil
}

// ExportAll snapshots every known account. This is the periodic backup
// mechanism in case AMQP messages are lost; uninitialized accounts are
// skipped, individual failures don't stop the sweep.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	identities, err := w.storage.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("list identities: %w", err)
	}
	if len(identities) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting budget snapshots", "count", len(identities))

	successCount := 0
	errorCount := 0
	for _, identity := range identities {
		if err := w.exportIdentity(ctx, identity); err != nil {
			if errors.Is(err, core.ErrNotInitialized) {
				continue
			}
			slog.ErrorContext(ctx, "Failed to export snapshot",
				"identity", identity,
				"error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Snapshot export completed",
		"total", len(identities),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportIdentity(ctx context.Context, identity string) error {
	acct, err := w.storage.GetAccount(ctx, identity)
	if err != nil {
		return fmt.Errorf("get account from storage: %w", err)
	}

	summary, err := core.Summarize(acct)
	if err != nil {
		return err
	}

	ref, err := w.writer.AppendSnapshot(ctx, summary)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported snapshot",
		"identity", identity,
		"sheets_ref", ref)

	return nil
}
