package core

import (
	"errors"
	"strings"
)

const (
	CategoryMVT      Category = "MVT"
	CategoryPriority Category = "Priority"
	CategoryPersonal Category = "Personal"
	CategoryRecharge Category = "Recharge"
)

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// StatusCompleted is the only task status counted unless the status filter is bypassed.
const StatusCompleted = "Completed"

type (
	// Category classifies where a task's time went.
	Category string

	// Period is the granularity of a chart.
	Period string

	// Task is a time entry as read from the task tracker.
	Task struct {
		ID             string
		Date           string // YYYY-MM-DD, optionally followed by a time part
		Category       Category
		Status         string
		StartTime      string // HH:MM
		EndTime        string // HH:MM
		ActualDuration float64
	}
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryMVT, CategoryPriority, CategoryPersonal, CategoryRecharge}

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrIncompleteTask   = errors.New("task is missing date, category, start or end")
	ErrMissingTaskID    = errors.New("missing task id")
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParsePeriod maps a query value onto a Period. Anything unrecognised is a week.
func ParsePeriod(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p
	default:
		return PeriodWeek
	}
}

// DateKey returns the calendar date part of the task date.
func (t Task) DateKey() string {
	d := strings.TrimSpace(t.Date)
	if len(d) > len(DateLayout) {
		return d[:len(DateLayout)]
	}
	return d
}

// Completed reports whether the task is marked as done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Span returns the start and end of the task as times of day.
func (t Task) Span() (TimeOfDay, TimeOfDay, error) {
	if t.DateKey() == "" || t.Category == "" || t.StartTime == "" || t.EndTime == "" {
		return 0, 0, ErrIncompleteTask
	}
	start, err := ParseTimeOfDay(t.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimeOfDay(t.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Duration returns the task length in hours. It may be zero or negative.
func (t Task) Duration() (float64, error) {
	start, end, err := t.Span()
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}
