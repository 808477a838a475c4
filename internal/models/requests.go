package models

// FilterPredicate is one column/operator/value condition. Operators:
// equals, greater_than, less_than, contains.
type FilterPredicate struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// FilterSet is an ordered list of predicates combined with AND.
type FilterSet struct {
	Predicates []FilterPredicate `json:"predicates"`
}

// ChartOptions configures a chart build. Unused fields are ignored by
// builders that do not recognize them; invalid values are rejected.
type ChartOptions struct {
	Title string `json:"title,omitempty"`

	// time series
	TimeColumn  string `json:"time_column,omitempty"`
	ValueColumn string `json:"value_column,omitempty"`
	Bucket      string `json:"bucket,omitempty"` // day, week, month

	// distribution
	Column   string `json:"column,omitempty"`
	Mode     string `json:"mode,omitempty"` // histogram, boxplot
	BinCount int    `json:"bin_count,omitempty"`

	// category analysis
	GroupColumn string `json:"group_column,omitempty"`
	Aggregation string `json:"aggregation,omitempty"` // sum, mean, median, count
	Limit       int    `json:"limit,omitempty"`

	// correlation heatmap
	Method string `json:"method,omitempty"` // pearson, spearman
}
