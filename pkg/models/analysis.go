package models

// QueryFilterData is advisory metadata recovered from generated SQL text.
type QueryFilterData struct {
	TimePeriod *string           `json:"time_period"`
	GroupBy    []string          `json:"group_by"`
	Metrics    []string          `json:"metrics"`
	Filters    map[string]string `json:"filters"`
}

// IsEmpty reports whether nothing was extracted.
func (q QueryFilterData) IsEmpty() bool {
	return q.TimePeriod == nil && len(q.GroupBy) == 0 && len(q.Metrics) == 0 && len(q.Filters) == 0
}

// CategoryValue pairs a category label with its numeric value.
type CategoryValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Statistics summarizes an executed result set.
type Statistics struct {
	TotalRows          int            `json:"total_rows"`
	TotalCategories    *int           `json:"total_categories"`
	GrandTotal         *float64       `json:"grand_total"`
	HighestCategory    *CategoryValue `json:"highest_category"`
	LowestCategory     *CategoryValue `json:"lowest_category"`
	AveragePerCategory *float64       `json:"average_per_category"`
	AdditionalStats    map[string]any `json:"additional_stats"`
}
