package service

import (
	"fmt"
	"sort"
	"time"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

// ChartBuilder turns a view plus options into a renderer-agnostic chart
// description.
type ChartBuilder interface {
	Name() string
	Description() string
	Build(v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error)
}

// ChartService dispatches chart builders by kind.
type ChartService struct {
	builders map[string]ChartBuilder
	order    []string
}

// NewChartService registers the built-in chart kinds.
func NewChartService() *ChartService {
	s := &ChartService{builders: make(map[string]ChartBuilder)}
	for _, b := range []ChartBuilder{
		&timeSeriesBuilder{},
		&distributionBuilder{},
		&categoryAnalysisBuilder{},
		&correlationHeatmapBuilder{},
	} {
		s.builders[b.Name()] = b
		s.order = append(s.order, b.Name())
	}
	return s
}

// Builders lists the registered chart kinds in registration order.
func (s *ChartService) Builders() []models.StrategyInfo {
	infos := make([]models.StrategyInfo, 0, len(s.order))
	for _, name := range s.order {
		infos = append(infos, models.StrategyInfo{
			Name:        name,
			Description: s.builders[name].Description(),
		})
	}
	return infos
}

// Build runs one chart builder by kind. Every chart needs at least two rows.
func (s *ChartService) Build(kind string, v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error) {
	b, ok := s.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
	if v.Len() < 2 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("need at least 2 rows, have %d", v.Len()),
		}
	}
	return b.Build(v, opts)
}

// resolveColumn returns the named column when it exists and has the wanted
// kind, or the first column of that kind when name is empty.
func resolveColumn(tbl *dataset.Table, name string, kind dataset.Kind, option string) (*dataset.Column, error) {
	if name == "" {
		col := tbl.FirstOfKind(kind)
		if col == nil {
			return nil, &InsufficientDataError{
				Reason: fmt.Sprintf("no %s column available", kind),
			}
		}
		return col, nil
	}
	col, ok := tbl.Column(name)
	if !ok {
		return nil, &dataset.UnknownColumnError{Column: name}
	}
	if col.Kind != kind {
		return nil, &InvalidOptionError{
			Option: option,
			Value:  name,
			Reason: fmt.Sprintf("column is %s, need %s", col.Kind, kind),
		}
	}
	return col, nil
}

// ============================================================================
// Time series
// ============================================================================

type timeSeriesBuilder struct{}

func (*timeSeriesBuilder) Name() string { return "time_series" }

func (*timeSeriesBuilder) Description() string {
	return "Numeric values summed into day, week, or month buckets over a datetime column"
}

func (b *timeSeriesBuilder) Build(v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error) {
	tbl := v.Table()

	timeCol, err := resolveColumn(tbl, opts.TimeColumn, dataset.Datetime, "time_column")
	if err != nil {
		return nil, err
	}
	valueCol, err := resolveColumn(tbl, opts.ValueColumn, dataset.Numeric, "value_column")
	if err != nil {
		return nil, err
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = "day"
	}
	switch bucket {
	case "day", "week", "month":
	default:
		return nil, &InvalidOptionError{
			Option: "bucket", Value: bucket,
			Reason: "must be day, week, or month",
		}
	}

	sums := make(map[string]float64)
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		t, ok := timeCol.Time(row)
		if !ok {
			continue
		}
		f, ok := valueCol.Float(row)
		if !ok {
			continue
		}
		sums[bucketLabel(t, bucket)] += f
	}
	if len(sums) == 0 {
		return nil, &InsufficientDataError{Reason: "no rows with both a date and a value"}
	}

	// bucket labels are zero-padded, so lexical order is chronological
	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	points := make([]models.ChartPoint, 0, len(labels))
	for _, label := range labels {
		points = append(points, models.ChartPoint{Label: label, Value: sums[label]})
	}

	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("%s over time (per %s)", valueCol.Name, bucket)
	}
	return &models.ChartSpec{
		Kind:   b.Name(),
		Title:  title,
		XLabel: timeCol.Name,
		YLabel: valueCol.Name,
		Series: []models.ChartSeries{{Name: valueCol.Name, Points: points}},
	}, nil
}

func bucketLabel(t time.Time, bucket string) string {
	switch bucket {
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// ============================================================================
// Distribution
// ============================================================================

const defaultBinCount = 20

type distributionBuilder struct{}

func (*distributionBuilder) Name() string { return "distribution" }

func (*distributionBuilder) Description() string {
	return "Histogram or box plot of one numeric column"
}

func (b *distributionBuilder) Build(v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error) {
	col, err := resolveColumn(v.Table(), opts.Column, dataset.Numeric, "column")
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = "histogram"
	}

	vals := collectFloats(v, col)
	if len(vals) < 2 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("column %q has %d non-null values, need at least 2", col.Name, len(vals)),
		}
	}

	spec := &models.ChartSpec{
		Kind:   b.Name(),
		Title:  opts.Title,
		XLabel: col.Name,
	}

	switch mode {
	case "histogram":
		binCount := opts.BinCount
		if binCount == 0 {
			binCount = defaultBinCount
		}
		if binCount < 0 {
			return nil, &InvalidOptionError{
				Option: "bin_count", Value: fmt.Sprint(opts.BinCount),
				Reason: "must be positive",
			}
		}
		spec.Histogram = buildHistogram(vals, binCount)
		spec.YLabel = "count"
		if spec.Title == "" {
			spec.Title = fmt.Sprintf("Distribution of %s", col.Name)
		}
	case "boxplot":
		spec.BoxPlot = buildBoxPlot(vals)
		if spec.Title == "" {
			spec.Title = fmt.Sprintf("Box plot of %s", col.Name)
		}
	default:
		return nil, &InvalidOptionError{
			Option: "mode", Value: mode,
			Reason: "must be histogram or boxplot",
		}
	}
	return spec, nil
}

// buildHistogram cuts the observed range into equal-width bins. The top edge
// is closed so the maximum lands in the last bin. A constant column gets one
// unit-width bin around the value.
func buildHistogram(vals []float64, binCount int) *models.HistogramData {
	lo, hi := vals[0], vals[0]
	for _, f := range vals {
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	if lo == hi {
		return &models.HistogramData{
			Edges:  []float64{lo - 0.5, lo + 0.5},
			Counts: []int{len(vals)},
		}
	}

	width := (hi - lo) / float64(binCount)
	edges := make([]float64, binCount+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[binCount] = hi

	counts := make([]int, binCount)
	for _, f := range vals {
		idx := int((f - lo) / width)
		if idx >= binCount {
			idx = binCount - 1
		}
		counts[idx]++
	}
	return &models.HistogramData{Edges: edges, Counts: counts}
}

// buildBoxPlot computes the five-number summary with Tukey whiskers clamped
// to observed values and the points beyond them listed as outliers.
func buildBoxPlot(vals []float64) *models.BoxPlotData {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lowerFence := q1 - 1.5*iqr
	upperFence := q3 + 1.5*iqr

	box := &models.BoxPlotData{
		Min:      sorted[0],
		Q1:       q1,
		Median:   quantile(sorted, 0.5),
		Q3:       q3,
		Max:      sorted[len(sorted)-1],
		Outliers: []float64{},
	}

	box.LowerWhisker = box.Min
	for _, f := range sorted {
		if f >= lowerFence {
			box.LowerWhisker = f
			break
		}
	}
	box.UpperWhisker = box.Max
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= upperFence {
			box.UpperWhisker = sorted[i]
			break
		}
	}
	for _, f := range vals {
		if f < lowerFence || f > upperFence {
			box.Outliers = append(box.Outliers, f)
		}
	}
	return box
}

// ============================================================================
// Category analysis
// ============================================================================

const defaultCategoryLimit = 10

type categoryAnalysisBuilder struct{}

func (*categoryAnalysisBuilder) Name() string { return "category_analysis" }

func (*categoryAnalysisBuilder) Description() string {
	return "Aggregated numeric values per category, largest first"
}

func (b *categoryAnalysisBuilder) Build(v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error) {
	tbl := v.Table()

	groupCol, err := resolveGroupColumn(tbl, opts.GroupColumn)
	if err != nil {
		return nil, err
	}

	agg := opts.Aggregation
	if agg == "" {
		agg = "sum"
	}
	switch agg {
	case "sum", "mean", "median", "count":
	default:
		return nil, &InvalidOptionError{
			Option: "aggregation", Value: agg,
			Reason: "must be sum, mean, median, or count",
		}
	}

	limit := opts.Limit
	if limit == 0 {
		limit = defaultCategoryLimit
	}
	if limit < 0 {
		return nil, &InvalidOptionError{
			Option: "limit", Value: fmt.Sprint(opts.Limit),
			Reason: "must be positive",
		}
	}

	var valueCol *dataset.Column
	if agg != "count" {
		valueCol, err = resolveColumn(tbl, opts.ValueColumn, dataset.Numeric, "value_column")
		if err != nil {
			return nil, err
		}
	}

	groups := make(map[string][]float64)
	var order []string
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		if groupCol.IsNull(row) {
			continue
		}
		key := groupCol.CellString(row)

		var f float64
		if valueCol != nil {
			var ok bool
			if f, ok = valueCol.Float(row); !ok {
				continue
			}
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}
	if len(order) == 0 {
		return nil, &InsufficientDataError{Reason: "no rows with a group value"}
	}

	points := make([]models.ChartPoint, 0, len(order))
	for _, key := range order {
		points = append(points, models.ChartPoint{
			Label: key,
			Value: aggregate(groups[key], agg),
		})
	}
	// stable keeps first-seen order among equal values
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
	if len(points) > limit {
		points = points[:limit]
	}

	title := opts.Title
	yLabel := agg
	if valueCol != nil {
		yLabel = fmt.Sprintf("%s(%s)", agg, valueCol.Name)
	}
	if title == "" {
		title = fmt.Sprintf("%s by %s", yLabel, groupCol.Name)
	}
	return &models.ChartSpec{
		Kind:   b.Name(),
		Title:  title,
		XLabel: groupCol.Name,
		YLabel: yLabel,
		Series: []models.ChartSeries{{Name: yLabel, Points: points}},
	}, nil
}

// resolveGroupColumn defaults to the first categorical column that is not
// free text; an explicit name may be categorical or boolean.
func resolveGroupColumn(tbl *dataset.Table, name string) (*dataset.Column, error) {
	if name == "" {
		var fallback *dataset.Column
		for _, col := range tbl.ColumnsOfKind(dataset.Categorical) {
			if !col.FreeText {
				return col, nil
			}
			if fallback == nil {
				fallback = col
			}
		}
		if fallback != nil {
			return fallback, nil
		}
		return nil, &InsufficientDataError{Reason: "no categorical column available"}
	}
	col, ok := tbl.Column(name)
	if !ok {
		return nil, &dataset.UnknownColumnError{Column: name}
	}
	if col.Kind != dataset.Categorical && col.Kind != dataset.Boolean {
		return nil, &InvalidOptionError{
			Option: "group_column", Value: name,
			Reason: "grouping needs a categorical or boolean column",
		}
	}
	return col, nil
}

func aggregate(vals []float64, agg string) float64 {
	switch agg {
	case "count":
		return float64(len(vals))
	case "mean":
		return meanOf(vals)
	case "median":
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		return quantile(sorted, 0.5)
	default:
		sum := 0.0
		for _, f := range vals {
			sum += f
		}
		return sum
	}
}

// ============================================================================
// Correlation heatmap
// ============================================================================

type correlationHeatmapBuilder struct{}

func (*correlationHeatmapBuilder) Name() string { return "correlation_heatmap" }

func (*correlationHeatmapBuilder) Description() string {
	return "Pairwise correlation matrix over the numeric columns"
}

func (b *correlationHeatmapBuilder) Build(v *dataset.View, opts models.ChartOptions) (*models.ChartSpec, error) {
	method := opts.Method
	if method == "" {
		method = "pearson"
	}
	if method != "pearson" && method != "spearman" {
		return nil, &InvalidOptionError{
			Option: "method", Value: method,
			Reason: "must be pearson or spearman",
		}
	}

	numCols := v.Table().ColumnsOfKind(dataset.Numeric)
	if len(numCols) < 2 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("need at least 2 numeric columns, have %d", len(numCols)),
		}
	}

	names := make([]string, len(numCols))
	for i, col := range numCols {
		names[i] = col.Name
	}

	matrix := make([][]*float64, len(numCols))
	for i := range matrix {
		matrix[i] = make([]*float64, len(numCols))
		matrix[i][i] = fptr(1)
	}

	var pairs []models.CorrelationPair
	for i := 0; i < len(numCols); i++ {
		for j := i + 1; j < len(numCols); j++ {
			x, y := pairwiseComplete(v, numCols[i], numCols[j])

			var cell *float64
			interpretation := "Undefined"
			if len(x) >= 2 {
				var r float64
				var ok bool
				if method == "spearman" {
					r, ok = spearman(x, y)
				} else {
					r, ok = pearson(x, y)
				}
				if ok {
					cell = fptr(r)
					interpretation = interpretCorrelation(r)
				}
			}
			matrix[i][j] = cell
			matrix[j][i] = cell
			pairs = append(pairs, models.CorrelationPair{
				Column1:        names[i],
				Column2:        names[j],
				Correlation:    cell,
				Interpretation: interpretation,
			})
		}
	}

	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("Correlation matrix (%s)", method)
	}
	return &models.ChartSpec{
		Kind:  b.Name(),
		Title: title,
		Heatmap: &models.HeatmapData{
			Method:  method,
			Columns: names,
			Matrix:  matrix,
			Pairs:   pairs,
		},
	}, nil
}

// pairwiseComplete collects the rows where both columns are non-null.
func pairwiseComplete(v *dataset.View, a, b *dataset.Column) ([]float64, []float64) {
	var x, y []float64
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		fa, okA := a.Float(row)
		fb, okB := b.Float(row)
		if okA && okB {
			x = append(x, fa)
			y = append(y, fb)
		}
	}
	return x, y
}
