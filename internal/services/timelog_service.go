package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"calm/internal/core"
	"calm/internal/log"
	"calm/internal/tasks"
)

// DurationPublisher announces write-backs to interested consumers.
type DurationPublisher interface {
	PublishDurationSaved(ctx context.Context, taskID string, addedHours, totalHours float64) error
}

// AddTimeResult is the JSON answer of a write-back.
type AddTimeResult struct {
	Success    bool    `json:"success"`
	TaskID     string  `json:"taskId"`
	AddedHours float64 `json:"addedHours"`
	TotalHours float64 `json:"totalHours"`
}

// TimeLogService adds tracked time to a task's accumulated duration.
//
// The read and the write are two separate upstream calls with nothing in
// between to detect a concurrent update: two racing write-backs for the same
// task can lose one of the additions.
type TimeLogService struct {
	store     tasks.DurationStore
	publisher DurationPublisher
}

// NewTimeLogService creates the service. publisher may be nil.
func NewTimeLogService(store tasks.DurationStore, publisher DurationPublisher) *TimeLogService {
	return &TimeLogService{store: store, publisher: publisher}
}

// SecondsToHours converts seconds to hours rounded to two decimals.
func SecondsToHours(seconds float64) float64 {
	return math.Round(seconds/3600*100) / 100
}

// AddTime adds seconds to the accumulated duration of taskID.
func (s *TimeLogService) AddTime(ctx context.Context, taskID string, seconds float64) (AddTimeResult, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return AddTimeResult{}, core.ErrMissingTaskID
	}
	hours := SecondsToHours(seconds)

	current, err := s.store.GetDuration(ctx, taskID)
	if err != nil {
		return AddTimeResult{}, fmt.Errorf("get duration of %s: %w", taskID, err)
	}
	total := current + hours
	if err := s.store.SetDuration(ctx, taskID, total); err != nil {
		return AddTimeResult{}, fmt.Errorf("set duration of %s: %w", taskID, err)
	}

	logger := log.FromContext(ctx)
	log.NewStructuredLogger(logger).LogTimeSaved(ctx, taskID, hours, total)

	if s.publisher != nil {
		if err := s.publisher.PublishDurationSaved(ctx, taskID, hours, total); err != nil {
			fields := log.NewFields().WithTimeLog(taskID, hours, total)
			log.NewStructuredLogger(logger).LogError(ctx, "Failed to publish duration event", err, log.ComponentAMQP, log.OpPublish, fields)
		}
	}

	return AddTimeResult{
		Success:    true,
		TaskID:     taskID,
		AddedHours: hours,
		TotalHours: total,
	}, nil
}
