package tasks

import (
	"context"
	"fmt"

	"calm/internal/core"
)

// DefaultPageSize is the number of records fetched for one chart.
const DefaultPageSize = 100

// Query selects the tasks of a date range.
type Query struct {
	Start      string // YYYY-MM-DD, inclusive
	End        string // YYYY-MM-DD, inclusive
	IncludeAll bool   // do not restrict to completed tasks
	PageSize   int
}

// Ports for outbound adapters.
type (
	Reader interface {
		QueryTasks(ctx context.Context, q Query) ([]core.Task, error)
	}

	// DurationStore reads and writes the accumulated hours of a single task.
	DurationStore interface {
		GetDuration(ctx context.Context, taskID string) (float64, error)
		SetDuration(ctx context.Context, taskID string, hours float64) error
	}
)

// Operations reported in UpstreamError.
const (
	OpQuery  = "query"
	OpGet    = "get"
	OpUpdate = "update"
)

// UpstreamError is a non-2xx answer from the task tracker. Body holds the raw
// response so it can be passed on unchanged.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}
