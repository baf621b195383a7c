package notion

import (
	"calm/internal/core"
	"calm/internal/tasks"
)

// Database property names the task pages are read with.
const (
	PropDate           = "Date"
	PropCategory       = "Category"
	PropStatus         = "Status"
	PropStartTime      = "Start Time"
	PropStart          = "Start"
	PropEndTime        = "End Time"
	PropEnd            = "End"
	PropActualDuration = "Actual Duration"
)

type (
	queryRequest struct {
		Filter   queryFilter `json:"filter"`
		PageSize int         `json:"page_size"`
	}

	queryFilter struct {
		And []filterClause `json:"and"`
	}

	filterClause struct {
		Property string           `json:"property"`
		Date     *dateCondition   `json:"date,omitempty"`
		Select   *selectCondition `json:"select,omitempty"`
	}

	dateCondition struct {
		OnOrAfter  string `json:"on_or_after,omitempty"`
		OnOrBefore string `json:"on_or_before,omitempty"`
	}

	selectCondition struct {
		Equals string `json:"equals"`
	}

	queryResponse struct {
		Results    []page  `json:"results"`
		HasMore    bool    `json:"has_more"`
		NextCursor *string `json:"next_cursor"`
	}

	page struct {
		ID         string              `json:"id"`
		Properties map[string]property `json:"properties"`
	}

	property struct {
		Type   string      `json:"type"`
		Date   *dateValue  `json:"date"`
		Select *selectName `json:"select"`
		Number *float64    `json:"number"`
	}

	dateValue struct {
		Start string `json:"start"`
	}

	selectName struct {
		Name string `json:"name"`
	}

	updateRequest struct {
		Properties map[string]numberValue `json:"properties"`
	}

	numberValue struct {
		Number float64 `json:"number"`
	}
)

func newQueryRequest(q tasks.Query) queryRequest {
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > tasks.DefaultPageSize {
		pageSize = tasks.DefaultPageSize
	}
	and := []filterClause{
		{Property: PropDate, Date: &dateCondition{OnOrAfter: q.Start}},
		{Property: PropDate, Date: &dateCondition{OnOrBefore: q.End}},
	}
	if !q.IncludeAll {
		and = append(and, filterClause{Property: PropStatus, Select: &selectCondition{Equals: core.StatusCompleted}})
	}
	return queryRequest{Filter: queryFilter{And: and}, PageSize: pageSize}
}

func (p page) toTask() core.Task {
	return core.Task{
		ID:             p.ID,
		Date:           p.date(PropDate),
		Category:       core.Category(p.selectName(PropCategory)),
		Status:         p.selectName(PropStatus),
		StartTime:      firstNonEmpty(p.selectName(PropStartTime), p.selectName(PropStart)),
		EndTime:        firstNonEmpty(p.selectName(PropEndTime), p.selectName(PropEnd)),
		ActualDuration: p.number(PropActualDuration),
	}
}

func (p page) date(name string) string {
	if prop, ok := p.Properties[name]; ok && prop.Date != nil {
		return prop.Date.Start
	}
	return ""
}

func (p page) selectName(name string) string {
	if prop, ok := p.Properties[name]; ok && prop.Select != nil {
		return prop.Select.Name
	}
	return ""
}

func (p page) number(name string) float64 {
	if prop, ok := p.Properties[name]; ok && prop.Number != nil {
		return *prop.Number
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
