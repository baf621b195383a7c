package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// The day view covers one-hour slots from DayStartHour up to DayEndHour.
const (
	DayStartHour = 6
	DayEndHour   = 22
)

var (
	weekdayLabels = []string{"Пон", "Вт", "Ср", "Чет", "Пет", "Съб", "Нед"}
	monthLabels   = []string{"Яну", "Фев", "Мар", "Апр", "Май", "Юни", "Юли", "Авг", "Сеп", "Окт", "Ное", "Дек"}
)

// DateRange is the inclusive span of dates a chart covers.
type DateRange struct {
	Start    time.Time
	End      time.Time
	Period   Period
	Labels   []string
	DayLabel string // weekday of Start, set for the day view
}

// StartDate returns the range start as YYYY-MM-DD.
func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate returns the range end as YYYY-MM-DD.
func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

// Contains reports whether the YYYY-MM-DD date lies inside the range.
func (r DateRange) Contains(date string) bool {
	return date >= r.StartDate() && date <= r.EndDate()
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

// Today returns the calendar date of now in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateDateRange resolves a reference date and a period into the dates and
// labels of a chart. An empty date means today. Weeks start on Monday.
func CalculateDateRange(date string, period Period, now time.Time) (DateRange, error) {
	base := Today(now)
	if strings.TrimSpace(date) != "" {
		d, err := ParseDate(date)
		if err != nil {
			return DateRange{}, err
		}
		base = d
	}

	switch period {
	case PeriodDay:
		return DateRange{
			Start:    base,
			End:      base,
			Period:   PeriodDay,
			Labels:   hourLabels(),
			DayLabel: WeekdayLabel(base),
		}, nil

	case PeriodMonth:
		start := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return DateRange{
			Start:  start,
			End:    end,
			Period: PeriodMonth,
			Labels: weekOfMonthLabels(end.Day()),
		}, nil

	case PeriodYear:
		return DateRange{
			Start:  time.Date(base.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(base.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
			Period: PeriodYear,
			Labels: append([]string(nil), monthLabels...),
		}, nil

	default:
		start := base.AddDate(0, 0, -daysSinceMonday(base))
		return DateRange{
			Start:  start,
			End:    start.AddDate(0, 0, 6),
			Period: PeriodWeek,
			Labels: append([]string(nil), weekdayLabels...),
		}, nil
	}
}

// WeekdayLabel returns the short label of the weekday of d.
func WeekdayLabel(d time.Time) string {
	return weekdayLabels[daysSinceMonday(d)]
}

// daysSinceMonday maps Sunday (0) to 6 and Monday (1) to 0.
func daysSinceMonday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func hourLabels() []string {
	labels := make([]string, 0, DayEndHour-DayStartHour)
	for h := DayStartHour; h < DayEndHour; h++ {
		labels = append(labels, fmt.Sprintf("%02d:00", h))
	}
	return labels
}

func weekOfMonthLabels(daysInMonth int) []string {
	n := (daysInMonth + 6) / 7
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("С%d", i+1)
	}
	return labels
}
