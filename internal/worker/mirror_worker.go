// Package worker copies ledger events into the Google Sheets mirror.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"carbon/internal/amqp"
	"carbon/internal/log"
	"carbon/internal/sheets"
)

// MirrorWorker appends every activity.logged event to a spreadsheet. It lets
// a process without Sheets credentials publish events while a separate worker
// keeps the mirror up to date.
type MirrorWorker struct {
	mirror sheets.ActivityMirror
	logger *log.Logger

	processed atomic.Int64
	mirrored  atomic.Int64
	failed    atomic.Int64
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Processed int64
	Mirrored  int64
	Failed    int64
}

func NewMirrorWorker(mirror sheets.ActivityMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single ledger event from AMQP. A returned error
// makes the consumer requeue the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.processed.Add(1)

	switch ev.Type {
	case amqp.EventActivityLogged:
		if ev.Activity == nil {
			w.failed.Add(1)
			w.logger.WarnContext(ctx, "Dropping activity event without a record")
			return nil
		}
		rec := *ev.Activity
		if err := rec.Validate(); err != nil {
			w.failed.Add(1)
			w.logger.WarnContext(ctx, "Dropping invalid activity event",
				log.FieldActivityID, rec.ID,
				log.FieldError, err.Error())
			return nil
		}
		row, err := w.mirror.Append(ctx, rec)
		if err != nil {
			w.failed.Add(1)
			w.logger.ErrorContext(ctx, "Failed to mirror activity",
				log.FieldActivityID, rec.ID,
				log.FieldError, err.Error())
			return fmt.Errorf("mirror activity %s: %w", rec.ID, err)
		}
		w.mirrored.Add(1)
		w.logger.InfoContext(ctx, "Successfully mirrored activity",
			log.FieldActivityID, rec.ID,
			"row", row)
	case amqp.EventLedgerCleared:
		// The sheet is an append-only log; cleared rows stay there.
		w.logger.InfoContext(ctx, "Ledger cleared, mirror rows kept", "removed", ev.Removed)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", "type", ev.Type)
	}
	return nil
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Mirrored:  w.mirrored.Load(),
		Failed:    w.failed.Load(),
	}
}
