package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"calm/internal/core"
	"calm/internal/tasks"
)

// Store keeps tasks in process. It answers like the real tracker, including a
// 404 UpstreamError for unknown task ids.
type Store struct {
	mu    sync.Mutex
	items []core.Task
}

var (
	_ tasks.Reader        = (*Store)(nil)
	_ tasks.DurationStore = (*Store)(nil)
)

// seedTask is the JSON layout of a seed file entry.
type seedTask struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	Status         string  `json:"status"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	ActualDuration float64 `json:"actualDuration"`
}

func New(items []core.Task) *Store {
	return &Store{items: append([]core.Task(nil), items...)}
}

// NewFromFile seeds the store from a JSON array. A missing file gives an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(nil), nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedTask
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	items := make([]core.Task, 0, len(seeds))
	for _, s := range seeds {
		items = append(items, core.Task{
			ID:             s.ID,
			Date:           s.Date,
			Category:       core.Category(s.Category),
			Status:         s.Status,
			StartTime:      s.StartTime,
			EndTime:        s.EndTime,
			ActualDuration: s.ActualDuration,
		})
	}
	return New(items), nil
}

func (s *Store) QueryTasks(_ context.Context, q tasks.Query) ([]core.Task, error) {
	limit := q.PageSize
	if limit <= 0 || limit > tasks.DefaultPageSize {
		limit = tasks.DefaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Task
	for _, t := range s.items {
		d := t.DateKey()
		if d < q.Start || d > q.End {
			continue
		}
		if !q.IncludeAll && !t.Completed() {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetDuration(_ context.Context, taskID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(taskID, tasks.OpGet)
	if err != nil {
		return 0, err
	}
	return s.items[i].ActualDuration, nil
}

func (s *Store) SetDuration(_ context.Context, taskID string, hours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(taskID, tasks.OpUpdate)
	if err != nil {
		return err
	}
	s.items[i].ActualDuration = hours
	return nil
}

func (s *Store) indexOf(taskID, op string) (int, error) {
	for i, t := range s.items {
		if t.ID == taskID {
			return i, nil
		}
	}
	return -1, &tasks.UpstreamError{
		Op:         op,
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find task with ID: %s."}`, taskID),
	}
}
