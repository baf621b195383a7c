package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(date string, c Category, start, end string) Task {
	return Task{Date: date, Category: c, Status: StatusCompleted, StartTime: start, EndTime: end}
}

func mustRange(t *testing.T, date string, p Period) DateRange {
	t.Helper()
	r, err := CalculateDateRange(date, p, fixedNow)
	require.NoError(t, err)
	return r
}

func TestAggregate_Week(t *testing.T) {
	r := mustRange(t, "2024-01-17", PeriodWeek)
	tasks := []Task{
		completed("2024-01-17", CategoryPriority, "09:00", "10:30"),
		completed("2024-01-17", CategoryPriority, "11:00", "12:00"),
		completed("2024-01-15", CategoryMVT, "08:00", "08:45"),
		completed("2024-01-21T18:00:00.000+00:00", CategoryRecharge, "18:00", "20:00"),
	}

	data := Aggregate(tasks, r, false)

	require.Len(t, data.Buckets, 7)
	assert.InDelta(t, 2.5, data.Buckets[2].Hours[CategoryPriority], 1e-9)
	assert.InDelta(t, 0.75, data.Buckets[0].Hours[CategoryMVT], 1e-9)
	assert.InDelta(t, 2.0, data.Buckets[6].Hours[CategoryRecharge], 1e-9)
	assert.InDelta(t, 2.5, data.Totals[CategoryPriority], 1e-9)
	assert.InDelta(t, 0.0, data.Totals[CategoryPersonal], 1e-9)
	assert.Equal(t, r.Labels, data.Labels)
}

func TestAggregate_SkipsInvalidTasks(t *testing.T) {
	r := mustRange(t, "2024-01-17", PeriodWeek)
	tasks := []Task{
		{Date: "2024-01-17", Category: CategoryPriority, Status: "In progress", StartTime: "09:00", EndTime: "10:00"},
		completed("2024-01-17", "Chores", "09:00", "10:00"),
		completed("2024-01-17", CategoryPriority, "10:00", "09:00"),
		completed("2024-01-17", CategoryPriority, "10:00", "10:00"),
		completed("2024-01-17", CategoryPriority, "", "10:00"),
		completed("", CategoryPriority, "09:00", "10:00"),
		completed("2024-01-17", CategoryPriority, "nine", "10:00"),
		completed("2024-01-22", CategoryPriority, "09:00", "10:00"),
	}

	data := Aggregate(tasks, r, false)

	for _, c := range Categories {
		assert.Zero(t, data.Totals[c], "category %s", c)
	}
}

func TestAggregate_IncludeAllBypassesStatus(t *testing.T) {
	r := mustRange(t, "2024-01-17", PeriodWeek)
	tasks := []Task{
		{Date: "2024-01-17", Category: CategoryPersonal, Status: "Planned", StartTime: "09:00", EndTime: "10:00"},
		completed("2024-01-17", CategoryPersonal, "10:00", "11:00"),
	}

	assert.InDelta(t, 1.0, Aggregate(tasks, r, false).Totals[CategoryPersonal], 1e-9)
	assert.InDelta(t, 2.0, Aggregate(tasks, r, true).Totals[CategoryPersonal], 1e-9)
}

func TestAggregate_Month(t *testing.T) {
	r := mustRange(t, "2024-01-05", PeriodMonth)
	tasks := []Task{
		completed("2024-01-01", CategoryMVT, "09:00", "10:00"),
		completed("2024-01-07", CategoryMVT, "09:00", "10:00"),
		completed("2024-01-08", CategoryMVT, "09:00", "11:00"),
		completed("2024-01-31", CategoryPersonal, "20:00", "21:30"),
	}

	data := Aggregate(tasks, r, false)

	require.Len(t, data.Buckets, 5)
	assert.InDelta(t, 2.0, data.Buckets[0].Hours[CategoryMVT], 1e-9)
	assert.InDelta(t, 2.0, data.Buckets[1].Hours[CategoryMVT], 1e-9)
	assert.InDelta(t, 1.5, data.Buckets[4].Hours[CategoryPersonal], 1e-9)
	assert.InDelta(t, 4.0, data.Totals[CategoryMVT], 1e-9)
}

func TestAggregate_Year(t *testing.T) {
	r := mustRange(t, "2024-06-01", PeriodYear)
	tasks := []Task{
		completed("2024-01-10", CategoryRecharge, "07:00", "08:00"),
		completed("2024-12-31", CategoryRecharge, "07:00", "07:30"),
		completed("2023-12-31", CategoryRecharge, "07:00", "09:00"),
	}

	data := Aggregate(tasks, r, false)

	require.Len(t, data.Buckets, 12)
	assert.InDelta(t, 1.0, data.Buckets[0].Hours[CategoryRecharge], 1e-9)
	assert.InDelta(t, 0.5, data.Buckets[11].Hours[CategoryRecharge], 1e-9)
	assert.InDelta(t, 1.5, data.Totals[CategoryRecharge], 1e-9)
}

// A task inside the day view contributes its whole duration, split by the
// minutes it spends in each hourly slot.
func TestAggregate_DaySplitsAcrossHours(t *testing.T) {
	r := mustRange(t, "2024-01-17", PeriodDay)
	tasks := []Task{
		completed("2024-01-17", CategoryPriority, "09:30", "10:30"),
		completed("2024-01-17", CategoryMVT, "09:00", "10:30"),
		completed("2024-01-17", CategoryPersonal, "05:00", "06:30"),
		completed("2024-01-18", CategoryPersonal, "12:00", "13:00"),
	}

	data := Aggregate(tasks, r, false)

	nine := 9 - DayStartHour
	ten := 10 - DayStartHour
	assert.InDelta(t, 0.5, data.Buckets[nine].Hours[CategoryPriority], 1e-9)
	assert.InDelta(t, 0.5, data.Buckets[ten].Hours[CategoryPriority], 1e-9)
	assert.InDelta(t, 1.0, data.Buckets[nine].Hours[CategoryMVT], 1e-9)
	assert.InDelta(t, 0.5, data.Buckets[ten].Hours[CategoryMVT], 1e-9)
	assert.InDelta(t, 1.5, data.Totals[CategoryMVT], 1e-9)
	// only 06:00-06:30 falls inside the day view
	assert.InDelta(t, 0.5, data.Buckets[0].Hours[CategoryPersonal], 1e-9)
	assert.InDelta(t, 0.5, data.Totals[CategoryPersonal], 1e-9)
}

func TestAggregate_TotalsMatchBucketSums(t *testing.T) {
	r := mustRange(t, "2024-02-14", PeriodMonth)
	tasks := []Task{
		completed("2024-02-01", CategoryMVT, "09:00", "09:20"),
		completed("2024-02-13", CategoryMVT, "13:10", "15:00"),
		completed("2024-02-29", CategoryMVT, "06:00", "07:15"),
		completed("2024-02-20", CategoryPriority, "10:00", "18:00"),
	}

	data := Aggregate(tasks, r, false)

	var want float64
	for _, task := range tasks[:3] {
		d, err := task.Duration()
		require.NoError(t, err)
		want += d
	}
	var got float64
	for _, b := range data.Buckets {
		got += b.Hours[CategoryMVT]
	}
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, want, data.Totals[CategoryMVT], 1e-9)
}

func TestAggregate_IsPure(t *testing.T) {
	r := mustRange(t, "2024-01-17", PeriodWeek)
	tasks := []Task{
		completed("2024-01-16", CategoryPriority, "09:00", "10:30"),
		completed("2024-01-18", CategoryRecharge, "19:00", "20:00"),
	}

	first, err := json.Marshal(Aggregate(tasks, r, false))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(tasks, r, false))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestBucket_MarshalJSON(t *testing.T) {
	month := 2
	b := Bucket{Label: "Мар", Month: &month, Year: 2024, Hours: NewCategoryHours()}
	b.Hours[CategoryPriority] = 1.5

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Мар","month":2,"year":2024,"MVT":0,"Priority":1.5,"Personal":0,"Recharge":0}`, string(raw))

	week := Bucket{Label: "Пон", Date: "2024-01-15", Hours: NewCategoryHours()}
	raw, err = json.Marshal(week)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Пон","date":"2024-01-15","MVT":0,"Priority":0,"Personal":0,"Recharge":0}`, string(raw))
}
