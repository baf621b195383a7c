package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"calm/internal/log"
)

// savedAtLayout is fixed width so timestamps sort as text.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z"

// ErrDuplicateEvent is returned by Append for an event id already journaled.
var ErrDuplicateEvent = errors.New("duplicate journal event")

// JournalEntry is one recorded write-back.
type JournalEntry struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"eventId,omitempty"` // empty when the event carried none
	TaskID     string    `json:"taskId"`
	AddedHours float64   `json:"addedHours"`
	TotalHours float64   `json:"totalHours"`
	SavedAt    time.Time `json:"savedAt"`
}

// TaskTotal summarises the journal of one task.
type TaskTotal struct {
	TaskID     string    `json:"taskId"`
	Entries    int       `json:"entries"`
	AddedHours float64   `json:"addedHours"`
	LastTotal  float64   `json:"lastTotal"`
	LastSaved  time.Time `json:"lastSaved"`
}

// JournalRepository stores the history of write-backs in SQLite.
type JournalRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewJournalRepository(dbPath string) (*JournalRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := MigrateJournal(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &JournalRepository{db: db, schemaVersion: version}, nil
}

func (r *JournalRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *JournalRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *JournalRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append records a write-back and returns its row id. An entry whose
// EventID was already recorded is rejected with ErrDuplicateEvent.
func (r *JournalRepository) Append(ctx context.Context, e JournalEntry) (int64, error) {
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}
	eventID := sql.NullString{String: e.EventID, Valid: e.EventID != ""}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO duration_journal (event_id, task_id, added_hours, total_hours, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		eventID, e.TaskID, e.AddedHours, e.TotalHours, e.SavedAt.UTC().Format(savedAtLayout))
	if err != nil {
		return 0, fmt.Errorf("insert journal entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("event %s: %w", e.EventID, ErrDuplicateEvent)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal entry id: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentJournal).DebugContext(ctx, "Journal entry saved",
		"id", id,
		log.FieldTaskID, e.TaskID,
		log.FieldAddedHours, e.AddedHours,
		log.FieldTotalHours, e.TotalHours)
	return id, nil
}

// ListByTask returns the entries of taskID, oldest first.
func (r *JournalRepository) ListByTask(ctx context.Context, taskID string) ([]JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(event_id, ''), task_id, added_hours, total_hours, saved_at
		   FROM duration_journal
		  WHERE task_id = ?
		  ORDER BY saved_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query journal of %s: %w", taskID, err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e       JournalEntry
			savedAt string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.TaskID, &e.AddedHours, &e.TotalHours, &savedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if e.SavedAt, err = time.Parse(savedAtLayout, savedAt); err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TotalsByTask aggregates the journal per task, ordered by task id.
func (r *JournalRepository) TotalsByTask(ctx context.Context) ([]TaskTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT j.task_id, COUNT(*), SUM(j.added_hours),
		        (SELECT total_hours FROM duration_journal l
		          WHERE l.task_id = j.task_id
		          ORDER BY l.saved_at DESC, l.id DESC LIMIT 1),
		        MAX(j.saved_at)
		   FROM duration_journal j
		  GROUP BY j.task_id
		  ORDER BY j.task_id`)
	if err != nil {
		return nil, fmt.Errorf("query journal totals: %w", err)
	}
	defer rows.Close()

	var out []TaskTotal
	for rows.Next() {
		var (
			t       TaskTotal
			savedAt string
		)
		if err := rows.Scan(&t.TaskID, &t.Entries, &t.AddedHours, &t.LastTotal, &savedAt); err != nil {
			return nil, fmt.Errorf("scan journal total: %w", err)
		}
		if t.LastSaved, err = time.Parse(savedAtLayout, savedAt); err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
