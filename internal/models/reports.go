package models

import "time"

// ProfileReport is the output of one profiling strategy. Details holds the
// strategy-specific payload; Note explains empty reports (for example when
// no column of the required kind exists).
type ProfileReport struct {
	Strategy    string      `json:"strategy"`
	Description string      `json:"description"`
	GeneratedAt time.Time   `json:"generated_at"`
	Note        string      `json:"note,omitempty"`
	Details     interface{} `json:"details"`
}

// ProfileBatch collects the reports of a full profiling pass. A strategy
// that fails lands in Errors without blocking the others.
type ProfileBatch struct {
	Reports map[string]*ProfileReport `json:"reports"`
	Errors  map[string]string         `json:"errors,omitempty"`
}

// StrategyInfo describes a registered strategy or chart builder.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BasicStatsDetails summarizes table dimensions and footprint.
type BasicStatsDetails struct {
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	MemoryBytes int64          `json:"memory_bytes"`
	MemoryHuman string         `json:"memory_human"`
	KindCounts  map[string]int `json:"kind_counts"`
}

// ColumnMissing reports nulls for one column.
type ColumnMissing struct {
	Column      string  `json:"column"`
	NullCount   int     `json:"null_count"`
	NullPercent float64 `json:"null_percent"`
}

// MissingValuesDetails reports per-column nulls, worst first, plus the
// table-level completeness ratio. Fully complete columns are not listed.
type MissingValuesDetails struct {
	Completeness    float64         `json:"completeness"`
	TotalCells      int             `json:"total_cells"`
	TotalNulls      int             `json:"total_nulls"`
	ColumnsAffected int             `json:"columns_affected"`
	Columns         []ColumnMissing `json:"columns"`
}

// NumericColumnSummary holds moment statistics for one numeric column.
// Pointer fields are null in JSON when the statistic is undefined (too few
// values, zero variance, or no unique mode).
type NumericColumnSummary struct {
	Column   string   `json:"column"`
	Count    int      `json:"count"`
	Mean     *float64 `json:"mean"`
	Median   *float64 `json:"median"`
	Mode     *float64 `json:"mode"`
	Std      *float64 `json:"std"`
	Skewness *float64 `json:"skewness"`
	Kurtosis *float64 `json:"kurtosis"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

// NumericSummaryDetails reports every numeric column.
type NumericSummaryDetails struct {
	Columns []NumericColumnSummary `json:"columns"`
}

// ValueCount is one value with its frequency.
type ValueCount struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CategoricalColumnSummary holds the value distribution of one categorical
// or boolean column.
type CategoricalColumnSummary struct {
	Column    string       `json:"column"`
	NonNull   int          `json:"non_null"`
	Distinct  int          `json:"distinct"`
	Entropy   float64      `json:"entropy"`
	TopValues []ValueCount `json:"top_values"`
}

// CategoricalSummaryDetails reports categorical columns; free-text columns
// are skipped and named.
type CategoricalSummaryDetails struct {
	Columns         []CategoricalColumnSummary `json:"columns"`
	SkippedFreeText []string                   `json:"skipped_free_text,omitempty"`
}

// QualityWeights documents the composite score weighting.
type QualityWeights struct {
	Completeness float64 `json:"completeness"`
	Duplicates   float64 `json:"duplicates"`
	Outliers     float64 `json:"outliers"`
}

// DataQualityDetails is the composite 0-100 quality score with each
// constituent metric reported separately.
type DataQualityDetails struct {
	Score                float64        `json:"score"`
	Completeness         float64        `json:"completeness"`
	DuplicateRows        int            `json:"duplicate_rows"`
	DuplicateRate        float64        `json:"duplicate_rate"`
	OutlierCells         int            `json:"outlier_cells"`
	OutlierRate          float64        `json:"outlier_rate"`
	Weights              QualityWeights `json:"weights"`
	ColumnsWithZeros     []string       `json:"columns_with_zeros,omitempty"`
	ColumnsWithNegatives []string       `json:"columns_with_negatives,omitempty"`
	ColumnsWithOutliers  []string       `json:"columns_with_outliers,omitempty"`
}

// ChartPoint is one labeled value in a series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is a named sequence of points.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// HistogramData holds equal-width bins: len(Edges) == len(Counts)+1.
type HistogramData struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// BoxPlotData holds five-number summary statistics with 1.5*IQR whiskers
// clamped to observed values, and the points beyond them.
type BoxPlotData struct {
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers"`
}

// CorrelationPair is one off-diagonal matrix entry with its strength label.
// Correlation is null when undefined (zero variance).
type CorrelationPair struct {
	Column1        string   `json:"column1"`
	Column2        string   `json:"column2"`
	Correlation    *float64 `json:"correlation"`
	Interpretation string   `json:"interpretation"`
}

// HeatmapData is the symmetric correlation matrix. Matrix cells are null
// when the correlation is undefined; the diagonal is exactly 1.
type HeatmapData struct {
	Method  string            `json:"method"`
	Columns []string          `json:"columns"`
	Matrix  [][]*float64      `json:"matrix"`
	Pairs   []CorrelationPair `json:"pairs"`
}

// ChartSpec is a renderer-agnostic chart description. Exactly one of the
// payload fields matching Kind is set.
type ChartSpec struct {
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	XLabel    string         `json:"x_label,omitempty"`
	YLabel    string         `json:"y_label,omitempty"`
	Series    []ChartSeries  `json:"series,omitempty"`
	Histogram *HistogramData `json:"histogram,omitempty"`
	BoxPlot   *BoxPlotData   `json:"boxplot,omitempty"`
	Heatmap   *HeatmapData   `json:"heatmap,omitempty"`
}

// TopPerformer is one ranked group.
type TopPerformer struct {
	Rank     int     `json:"rank"`
	Group    string  `json:"group"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"`
	Headline string  `json:"headline"`
}

// TopPerformersResult ranks groups by summed measure, descending, ties in
// first-seen order.
type TopPerformersResult struct {
	GroupColumn   string         `json:"group_column"`
	MeasureColumn string         `json:"measure_column"`
	GrandTotal    float64        `json:"grand_total"`
	Performers    []TopPerformer `json:"performers"`
}

// AnomalySample is one flagged value with its location.
type AnomalySample struct {
	Row   int     `json:"row"`
	Value float64 `json:"value"`
	Bound string  `json:"bound"` // lower or upper
}

// AnomalyColumn reports IQR outlier bounds and flags for one numeric column.
type AnomalyColumn struct {
	Column     string          `json:"column"`
	Q1         float64         `json:"q1"`
	Q3         float64         `json:"q3"`
	IQR        float64         `json:"iqr"`
	LowerBound float64         `json:"lower_bound"`
	UpperBound float64         `json:"upper_bound"`
	Flagged    int             `json:"flagged"`
	FlaggedPct float64         `json:"flagged_pct"`
	Samples    []AnomalySample `json:"samples,omitempty"`
}

// AnomalyReport is the IQR outlier scan over all numeric columns.
type AnomalyReport struct {
	Multiplier float64         `json:"multiplier"`
	Columns    []AnomalyColumn `json:"columns"`
	Summary    string          `json:"summary"`
}

// ColumnTrend is a least-squares fit of one numeric column over time.
type ColumnTrend struct {
	Column    string  `json:"column"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	Direction string  `json:"direction"` // rising, falling, flat
}

// TrendReport summarizes linear trends against the first datetime column.
type TrendReport struct {
	TimeColumn string        `json:"time_column"`
	Columns    []ColumnTrend `json:"columns"`
}
