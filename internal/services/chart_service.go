package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"calm/internal/cache"
	"calm/internal/core"
	"calm/internal/log"
	"calm/internal/tasks"
)

// ChartRequest carries the query parameters of a chart.
type ChartRequest struct {
	Date   string // YYYY-MM-DD, empty for today
	Period string // day, week, month or year; anything else is a week
	All    bool   // include tasks of every status
}

type DateRangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ChartResponse is the JSON document served to the chart UI.
type ChartResponse struct {
	core.ChartData
	Period         core.Period   `json:"period"`
	DayLabel       string        `json:"dayLabel,omitempty"`
	DateRange      DateRangeView `json:"dateRange"`
	SelectedDate   string        `json:"selectedDate"`
	TasksProcessed int           `json:"tasksProcessed"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// WeekDay is one entry of the legacy current-week view.
type WeekDay struct {
	Day   string
	Date  string
	Hours core.CategoryHours
}

func (d WeekDay) MarshalJSON() ([]byte, error) {
	out := map[string]any{"day": d.Day, "date": d.Date}
	for _, c := range core.Categories {
		out[string(c)] = d.Hours[c]
	}
	return json.Marshal(out)
}

// WeekResponse is the legacy current-week document.
type WeekResponse struct {
	WeekData       []WeekDay     `json:"weekData"`
	GeneratedAt    time.Time     `json:"generatedAt"`
	WeekRange      DateRangeView `json:"weekRange"`
	TasksProcessed int           `json:"tasksProcessed"`
}

type ChartOptions struct {
	CacheSize int
	CacheTTL  time.Duration
	Now       func() time.Time
}

// chartResult is what gets cached: everything that does not depend on the
// exact date the caller asked for.
type chartResult struct {
	dateRange   core.DateRange
	data        core.ChartData
	tasks       int
	generatedAt time.Time
}

// ChartService turns task records into chart data.
type ChartService struct {
	reader tasks.Reader
	cache  *cache.LRUCache[string, chartResult]
	group  singleflight.Group
	now    func() time.Time
}

func NewChartService(reader tasks.Reader, opts ChartOptions) *ChartService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ChartService{
		reader: reader,
		cache:  cache.NewLRUCache[string, chartResult](opts.CacheSize, opts.CacheTTL),
		now:    opts.Now,
	}
}

// Cache exposes the result cache so it can be registered for cleanup.
func (s *ChartService) Cache() cache.Cleaner {
	return s.cache
}

// Chart computes the chart for req. Identical concurrent requests share one
// upstream query and results are reused until the cache TTL runs out.
func (s *ChartService) Chart(ctx context.Context, req ChartRequest) (ChartResponse, error) {
	now := s.now()
	period := core.ParsePeriod(req.Period)
	dateRange, err := core.CalculateDateRange(req.Date, period, now)
	if err != nil {
		return ChartResponse{}, err
	}

	key := fmt.Sprintf("%s|%s|%t", period, dateRange.StartDate(), req.All)
	logger := log.FromContext(ctx).WithComponent(log.ComponentChart)

	result, ok := s.cache.Get(key)
	if ok {
		logger.DebugContext(ctx, "Chart cache hit", "key", key)
	} else {
		// the build is shared by every caller of key, so no single caller's
		// cancellation may abort it
		buildCtx := context.WithoutCancel(ctx)
		ch := s.group.DoChan(key, func() (any, error) {
			res, err := s.build(buildCtx, dateRange, req.All)
			if err != nil {
				return nil, err
			}
			s.cache.Set(key, res)
			return res, nil
		})
		select {
		case <-ctx.Done():
			return ChartResponse{}, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				return ChartResponse{}, r.Err
			}
			result = r.Val.(chartResult)
		}
	}

	selected := req.Date
	if selected == "" {
		selected = core.Today(now).Format(core.DateLayout)
	}

	return ChartResponse{
		ChartData: result.data,
		Period:    result.dateRange.Period,
		DayLabel:  result.dateRange.DayLabel,
		DateRange: DateRangeView{
			Start: result.dateRange.StartDate(),
			End:   result.dateRange.EndDate(),
		},
		SelectedDate:   selected,
		TasksProcessed: result.tasks,
		GeneratedAt:    result.generatedAt,
	}, nil
}

func (s *ChartService) build(ctx context.Context, r core.DateRange, all bool) (chartResult, error) {
	items, err := s.reader.QueryTasks(ctx, tasks.Query{
		Start:      r.StartDate(),
		End:        r.EndDate(),
		IncludeAll: all,
		PageSize:   tasks.DefaultPageSize,
	})
	if err != nil {
		return chartResult{}, fmt.Errorf("query tasks %s..%s: %w", r.StartDate(), r.EndDate(), err)
	}

	data := core.Aggregate(items, r, all)

	fields := log.NewFields().
		WithChart(string(r.Period), r.StartDate(), r.EndDate(), all).
		WithOperation(log.OpChart)
	fields[log.FieldTasks] = len(items)
	log.FromContext(ctx).WithComponent(log.ComponentChart).InfoContext(ctx, "Chart computed", fields.ToSlice()...)

	return chartResult{
		dateRange:   r,
		data:        data,
		tasks:       len(items),
		generatedAt: s.now().UTC(),
	}, nil
}

// Week returns the legacy current-week view.
func (s *ChartService) Week(ctx context.Context) (WeekResponse, error) {
	chart, err := s.Chart(ctx, ChartRequest{Period: string(core.PeriodWeek)})
	if err != nil {
		return WeekResponse{}, err
	}
	days := make([]WeekDay, len(chart.Buckets))
	for i, b := range chart.Buckets {
		days[i] = WeekDay{Day: b.Label, Date: b.Date, Hours: b.Hours}
	}
	return WeekResponse{
		WeekData:       days,
		GeneratedAt:    chart.GeneratedAt,
		WeekRange:      chart.DateRange,
		TasksProcessed: chart.TasksProcessed,
	}, nil
}
