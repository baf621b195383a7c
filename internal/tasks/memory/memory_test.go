package memory

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"calm/internal/core"
	"calm/internal/tasks"
)

func TestQueryTasksFiltersRangeAndStatus(t *testing.T) {
	s := New([]core.Task{
		{ID: "a", Date: "2024-01-15", Status: core.StatusCompleted},
		{ID: "b", Date: "2024-01-16", Status: "Planned"},
		{ID: "c", Date: "2024-01-22", Status: core.StatusCompleted},
		{ID: "d", Date: "2024-01-21T10:00:00Z", Status: core.StatusCompleted},
	})

	got, err := s.QueryTasks(context.Background(), tasks.Query{Start: "2024-01-15", End: "2024-01-21"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "d" {
		t.Fatalf("unexpected tasks: %+v", got)
	}

	got, _ = s.QueryTasks(context.Background(), tasks.Query{Start: "2024-01-15", End: "2024-01-21", IncludeAll: true})
	if len(got) != 3 {
		t.Fatalf("expected 3 tasks with IncludeAll, got %d", len(got))
	}
}

func TestDurationRoundTrip(t *testing.T) {
	s := New([]core.Task{{ID: "a", ActualDuration: 2}})
	ctx := context.Background()

	if err := s.SetDuration(ctx, "a", 3.5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if h, err := s.GetDuration(ctx, "a"); err != nil || h != 3.5 {
		t.Fatalf("get = %v, %v", h, err)
	}

	_, err := s.GetDuration(ctx, "missing")
	var upstream *tasks.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 upstream error, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	seed := `[{"id":"t1","date":"2024-01-17","category":"MVT","status":"Completed","startTime":"09:00","endTime":"10:00","actualDuration":1}]`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	got, _ := s.QueryTasks(context.Background(), tasks.Query{Start: "2024-01-01", End: "2024-01-31"})
	if len(got) != 1 || got[0].Category != core.CategoryMVT || got[0].EndTime != "10:00" {
		t.Fatalf("unexpected seeded tasks: %+v", got)
	}

	empty, err := NewFromFile(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if got, _ := empty.QueryTasks(context.Background(), tasks.Query{Start: "0000-01-01", End: "9999-12-31"}); len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}
}
