package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"calm/internal/amqp"
	"calm/internal/log"
	"calm/internal/storage"
)

// JournalStore is the part of the journal repository the worker writes to.
type JournalStore interface {
	Append(ctx context.Context, e storage.JournalEntry) (int64, error)
	TotalsByTask(ctx context.Context) ([]storage.TaskTotal, error)
}

// DurationConsumer delivers duration events until ctx is done.
type DurationConsumer interface {
	ConsumeDurationSaved(ctx context.Context, handler amqp.DurationHandler) error
}

// JournalWorker records every write-back event in the journal.
type JournalWorker struct {
	store    JournalStore
	consumer DurationConsumer
}

func NewJournalWorker(store JournalStore, consumer DurationConsumer) *JournalWorker {
	return &JournalWorker{store: store, consumer: consumer}
}

// HandleDurationSaved appends one event to the journal.
func (w *JournalWorker) HandleDurationSaved(ctx context.Context, msg *amqp.DurationSavedMessage) error {
	if msg == nil || strings.TrimSpace(msg.TaskID) == "" {
		// nothing to requeue
		log.FromContext(ctx).WithComponent(log.ComponentWorker).WarnContext(ctx, "Dropping duration event without task id")
		return nil
	}

	id, err := w.store.Append(ctx, storage.JournalEntry{
		EventID:    msg.ID,
		TaskID:     msg.TaskID,
		AddedHours: msg.AddedHours,
		TotalHours: msg.TotalHours,
		SavedAt:    msg.Timestamp,
	})
	if errors.Is(err, storage.ErrDuplicateEvent) {
		log.FromContext(ctx).WithComponent(log.ComponentWorker).DebugContext(ctx, "Duration event already journaled",
			log.FieldTaskID, msg.TaskID, "message_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("journal duration of %s: %w", msg.TaskID, err)
	}

	fields := log.NewFields().WithTimeLog(msg.TaskID, msg.AddedHours, msg.TotalHours).WithOperation(log.OpConsume)
	fields["journal_id"] = id
	log.FromContext(ctx).WithComponent(log.ComponentWorker).InfoContext(ctx, "Duration event journaled", fields.ToSlice()...)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *JournalWorker) Run(ctx context.Context) error {
	err := w.consumer.ConsumeDurationSaved(ctx, w.HandleDurationSaved)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ReportTotals logs the journal summary per task.
func (w *JournalWorker) ReportTotals(ctx context.Context) error {
	totals, err := w.store.TotalsByTask(ctx)
	if err != nil {
		return fmt.Errorf("journal totals: %w", err)
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentJournal)
	logger.InfoContext(ctx, "Journal summary", "tasks", len(totals))
	for _, t := range totals {
		logger.DebugContext(ctx, "Journal task total",
			log.FieldTaskID, t.TaskID,
			"entries", t.Entries,
			log.FieldAddedHours, t.AddedHours,
			log.FieldTotalHours, t.LastTotal,
			"last_saved", t.LastSaved)
	}
	return nil
}
