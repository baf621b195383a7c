package core

import (
	"encoding/json"
	"time"
)

// CategoryHours holds accumulated hours per category.
type CategoryHours map[Category]float64

// NewCategoryHours returns a zeroed entry for every known category.
func NewCategoryHours() CategoryHours {
	h := make(CategoryHours, len(Categories))
	for _, c := range Categories {
		h[c] = 0
	}
	return h
}

// Bucket is one slot of a chart. Which of Date, StartDate/EndDate, Hour and
// Month are set depends on the period the bucket was built for.
type Bucket struct {
	Label     string
	Date      string
	StartDate string
	EndDate   string
	Hour      *int
	Month     *int
	Year      int
	Hours     CategoryHours
}

// MarshalJSON flattens the category hours into the bucket object, which is the
// shape the chart UI reads.
func (b Bucket) MarshalJSON() ([]byte, error) {
	out := map[string]any{"label": b.Label}
	if b.Date != "" {
		out["date"] = b.Date
	}
	if b.StartDate != "" {
		out["startDate"] = b.StartDate
		out["endDate"] = b.EndDate
	}
	if b.Hour != nil {
		out["hour"] = *b.Hour
	}
	if b.Month != nil {
		out["month"] = *b.Month
		out["year"] = b.Year
	}
	for _, c := range Categories {
		out[string(c)] = b.Hours[c]
	}
	return json.Marshal(out)
}

// ChartData is the aggregated result for one range.
type ChartData struct {
	Buckets []Bucket      `json:"chartData"`
	Totals  CategoryHours `json:"totals"`
	Labels  []string      `json:"periodLabels"`
}

// NewBuckets allocates the empty buckets for r. The buckets partition the
// range: hourly slots for a day, days for a week, 7-day spans from the 1st for
// a month (the last one may run past the month end) and months for a year.
func NewBuckets(r DateRange) []Bucket {
	buckets := make([]Bucket, len(r.Labels))
	for i, label := range r.Labels {
		b := Bucket{Label: label, Hours: NewCategoryHours()}
		switch r.Period {
		case PeriodDay:
			hour := DayStartHour + i
			b.Hour = &hour
			b.Date = r.StartDate()
		case PeriodMonth:
			start := r.Start.AddDate(0, 0, i*7)
			b.StartDate = start.Format(DateLayout)
			b.EndDate = start.AddDate(0, 0, 6).Format(DateLayout)
		case PeriodYear:
			month := i
			b.Month = &month
			b.Year = r.Start.Year()
		default:
			b.Date = r.Start.AddDate(0, 0, i).Format(DateLayout)
		}
		buckets[i] = b
	}
	return buckets
}

// Aggregate distributes task durations into the buckets of r. Tasks that are
// incomplete, uncategorised, outside the range, not completed (unless
// includeAll) or of non-positive duration are skipped. It does not modify its
// inputs and keeps no state between calls.
func Aggregate(tasks []Task, r DateRange, includeAll bool) ChartData {
	buckets := NewBuckets(r)

	for _, t := range tasks {
		if !includeAll && !t.Completed() {
			continue
		}
		if !t.Category.Valid() {
			continue
		}
		start, end, err := t.Span()
		if err != nil {
			continue
		}
		duration := end.Sub(start)
		if duration <= 0 {
			continue
		}
		date := t.DateKey()
		if !r.Contains(date) {
			continue
		}

		switch r.Period {
		case PeriodDay:
			spreadOverHours(buckets, t.Category, start, end)
		default:
			if i := bucketIndex(buckets, r, date); i >= 0 {
				buckets[i].Hours[t.Category] += duration
			}
		}
	}

	totals := NewCategoryHours()
	for _, b := range buckets {
		for _, c := range Categories {
			totals[c] += b.Hours[c]
		}
	}

	return ChartData{
		Buckets: buckets,
		Totals:  totals,
		Labels:  append([]string(nil), r.Labels...),
	}
}

// bucketIndex finds the bucket a YYYY-MM-DD date belongs to, or -1.
func bucketIndex(buckets []Bucket, r DateRange, date string) int {
	switch r.Period {
	case PeriodMonth:
		for i, b := range buckets {
			if date >= b.StartDate && date <= b.EndDate {
				return i
			}
		}
	case PeriodYear:
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			return -1
		}
		if i := int(d.Month()) - 1; i < len(buckets) {
			return i
		}
	default:
		for i, b := range buckets {
			if b.Date == date {
				return i
			}
		}
	}
	return -1
}

// spreadOverHours adds the part of [start, end) that overlaps each hourly slot.
func spreadOverHours(buckets []Bucket, c Category, start, end TimeOfDay) {
	for i, b := range buckets {
		if b.Hour == nil {
			continue
		}
		slotStart := TimeOfDay(*b.Hour * 60)
		slotEnd := slotStart + 60
		lo := max(start, slotStart)
		hi := min(end, slotEnd)
		if hi > lo {
			buckets[i].Hours[c] += hi.Sub(lo)
		}
	}
}
