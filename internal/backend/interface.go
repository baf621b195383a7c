package backend

import (
	"context"

	"calm/internal/tasks"
)

// Result holds the task ports of one backend. Reader is nil when the backend
// lacks the configuration to serve charts, Store is nil when it cannot write
// durations back. Callers report that per request.
type Result struct {
	Type   BackendType
	Reader tasks.Reader
	Store  tasks.DurationStore
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	NotionBackend   BackendType = "notion"
	AirtableBackend BackendType = "airtable"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case NotionBackend, AirtableBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
