package airtable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mehanizm/airtable"

	"calm/internal/core"
	"calm/internal/log"
	"calm/internal/tasks"
)

// Field names of the tasks table. They mirror the Notion properties.
const (
	FieldDate           = "Date"
	FieldCategory       = "Category"
	FieldStatus         = "Status"
	FieldStartTime      = "Start Time"
	FieldStart          = "Start"
	FieldEndTime        = "End Time"
	FieldEnd            = "End"
	FieldActualDuration = "Actual Duration"
)

const DefaultTableName = "Tasks"

var (
	ErrMissingAPIKey = errors.New("missing Airtable API key")
	ErrMissingBaseID = errors.New("missing Airtable base id")
)

type Config struct {
	APIKey    string
	BaseID    string
	TableName string
}

// Client keeps tasks in an Airtable table.
type Client struct {
	table *airtable.Table
}

var (
	_ tasks.Reader        = (*Client)(nil)
	_ tasks.DurationStore = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.BaseID) == "" {
		return nil, ErrMissingBaseID
	}
	tableName := strings.TrimSpace(cfg.TableName)
	if tableName == "" {
		tableName = DefaultTableName
	}
	client := airtable.NewClient(cfg.APIKey)
	return &Client{table: client.GetTable(cfg.BaseID, tableName)}, nil
}

// QueryTasks lists the records whose date falls within q.
func (c *Client) QueryTasks(ctx context.Context, q tasks.Query) ([]core.Task, error) {
	limit := q.PageSize
	if limit <= 0 || limit > tasks.DefaultPageSize {
		limit = tasks.DefaultPageSize
	}
	records, err := c.table.GetRecords().
		WithFilterFormula(filterFormula(q)).
		MaxRecords(limit).
		Do()
	if err != nil {
		return nil, upstreamError(ctx, tasks.OpQuery, err)
	}

	out := make([]core.Task, 0, len(records.Records))
	for _, rec := range records.Records {
		out = append(out, recordToTask(rec.ID, rec.Fields))
	}
	return out, nil
}

func (c *Client) GetDuration(ctx context.Context, taskID string) (float64, error) {
	rec, err := c.table.GetRecord(taskID)
	if err != nil {
		return 0, upstreamError(ctx, tasks.OpGet, err)
	}
	return recordToTask(rec.ID, rec.Fields).ActualDuration, nil
}

func (c *Client) SetDuration(ctx context.Context, taskID string, hours float64) error {
	_, err := c.table.UpdateRecordsPartial(&airtable.Records{
		Records: []*airtable.Record{{
			ID:     taskID,
			Fields: map[string]any{FieldActualDuration: hours},
		}},
	})
	if err != nil {
		return upstreamError(ctx, tasks.OpUpdate, err)
	}
	return nil
}

// filterFormula builds the Airtable formula equivalent of the Notion filter.
func filterFormula(q tasks.Query) string {
	clauses := []string{
		fmt.Sprintf("NOT(IS_BEFORE({%s}, '%s'))", FieldDate, q.Start),
		fmt.Sprintf("NOT(IS_AFTER({%s}, '%s'))", FieldDate, q.End),
	}
	if !q.IncludeAll {
		clauses = append(clauses, fmt.Sprintf("{%s}='%s'", FieldStatus, core.StatusCompleted))
	}
	return "AND(" + strings.Join(clauses, ", ") + ")"
}

func recordToTask(id string, fields map[string]any) core.Task {
	return core.Task{
		ID:             id,
		Date:           stringField(fields, FieldDate),
		Category:       core.Category(stringField(fields, FieldCategory)),
		Status:         stringField(fields, FieldStatus),
		StartTime:      stringField(fields, FieldStartTime, FieldStart),
		EndTime:        stringField(fields, FieldEndTime, FieldEnd),
		ActualDuration: numberField(fields, FieldActualDuration),
	}
}

// stringField returns the first non-empty string among the named fields.
func stringField(fields map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := fields[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numberField(fields map[string]any, name string) float64 {
	switch v := fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func upstreamError(ctx context.Context, op string, err error) error {
	var httpErr *airtable.HTTPClientError
	if errors.As(err, &httpErr) {
		log.FromContext(ctx).WithComponent(log.ComponentBackend).ErrorContext(ctx, "Airtable API error",
			log.FieldOperation, op,
			log.FieldStatusCode, httpErr.StatusCode,
			log.FieldError, err)
		return &tasks.UpstreamError{Op: op, StatusCode: httpErr.StatusCode, Body: httpErr.Error()}
	}
	return fmt.Errorf("airtable %s: %w", op, err)
}
