package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

// ProfileStrategy is one independent, stateless analysis over a view.
// Strategies are order-insensitive; running all of them is iterating the
// registry.
type ProfileStrategy interface {
	Name() string
	Description() string
	Process(v *dataset.View) (*models.ProfileReport, error)
}

// ProfilingService dispatches profiling strategies by name.
type ProfilingService struct {
	strategies map[string]ProfileStrategy
	order      []string
}

// NewProfilingService registers the built-in strategies.
func NewProfilingService() *ProfilingService {
	s := &ProfilingService{strategies: make(map[string]ProfileStrategy)}
	for _, st := range []ProfileStrategy{
		&basicStatsStrategy{},
		&missingValuesStrategy{},
		&numericSummaryStrategy{},
		&categoricalSummaryStrategy{},
		&dataQualityStrategy{},
	} {
		s.strategies[st.Name()] = st
		s.order = append(s.order, st.Name())
	}
	return s
}

// Strategies lists the registered strategies in registration order.
func (s *ProfilingService) Strategies() []models.StrategyInfo {
	infos := make([]models.StrategyInfo, 0, len(s.order))
	for _, name := range s.order {
		infos = append(infos, models.StrategyInfo{
			Name:        name,
			Description: s.strategies[name].Description(),
		})
	}
	return infos
}

// Run executes one strategy by name.
func (s *ProfilingService) Run(name string, v *dataset.View) (*models.ProfileReport, error) {
	st, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return st.Process(v)
}

// RunAll executes every strategy. A failing strategy lands in Errors and
// does not block the rest.
func (s *ProfilingService) RunAll(v *dataset.View) *models.ProfileBatch {
	batch := &models.ProfileBatch{Reports: make(map[string]*models.ProfileReport)}
	for _, name := range s.order {
		report, err := s.strategies[name].Process(v)
		if err != nil {
			if batch.Errors == nil {
				batch.Errors = make(map[string]string)
			}
			batch.Errors[name] = err.Error()
			continue
		}
		batch.Reports[name] = report
	}
	return batch
}

func newReport(st ProfileStrategy, details interface{}) *models.ProfileReport {
	return &models.ProfileReport{
		Strategy:    st.Name(),
		Description: st.Description(),
		GeneratedAt: time.Now().UTC(),
		Details:     details,
	}
}

func fptr(v float64) *float64 { return &v }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ============================================================================
// Basic statistics
// ============================================================================

type basicStatsStrategy struct{}

func (*basicStatsStrategy) Name() string { return "basic_statistics" }

func (*basicStatsStrategy) Description() string {
	return "Row and column counts, columns per kind, and an estimated memory footprint"
}

func (st *basicStatsStrategy) Process(v *dataset.View) (*models.ProfileReport, error) {
	tbl := v.Table()

	kindCounts := make(map[string]int)
	for _, col := range tbl.Columns() {
		kindCounts[string(col.Kind)]++
	}

	var mem int64
	if v.Filtered() {
		for _, col := range tbl.Columns() {
			for i := 0; i < v.Len(); i++ {
				mem += col.CellBytes(v.Row(i))
			}
		}
	} else {
		mem = tbl.MemoryBytes()
	}

	return newReport(st, &models.BasicStatsDetails{
		Rows:        v.Len(),
		Columns:     tbl.NumCols(),
		MemoryBytes: mem,
		MemoryHuman: humanBytes(mem),
		KindCounts:  kindCounts,
	}), nil
}

// ============================================================================
// Missing values
// ============================================================================

type missingValuesStrategy struct{}

func (*missingValuesStrategy) Name() string { return "missing_values" }

func (*missingValuesStrategy) Description() string {
	return "Per-column null counts and the table-level completeness ratio"
}

func (st *missingValuesStrategy) Process(v *dataset.View) (*models.ProfileReport, error) {
	tbl := v.Table()
	details := &models.MissingValuesDetails{
		Completeness: 1,
		TotalCells:   v.Len() * tbl.NumCols(),
	}

	for _, col := range tbl.Columns() {
		nulls := 0
		for i := 0; i < v.Len(); i++ {
			if col.IsNull(v.Row(i)) {
				nulls++
			}
		}
		if nulls == 0 {
			continue
		}
		details.TotalNulls += nulls
		details.Columns = append(details.Columns, models.ColumnMissing{
			Column:      col.Name,
			NullCount:   nulls,
			NullPercent: round2(float64(nulls) / float64(v.Len()) * 100),
		})
	}

	details.ColumnsAffected = len(details.Columns)
	if details.TotalCells > 0 {
		details.Completeness = 1 - float64(details.TotalNulls)/float64(details.TotalCells)
	}
	sort.SliceStable(details.Columns, func(i, j int) bool {
		return details.Columns[i].NullPercent > details.Columns[j].NullPercent
	})

	report := newReport(st, details)
	if details.TotalNulls == 0 {
		report.Note = "no missing values detected"
	}
	return report, nil
}

// ============================================================================
// Numeric summary
// ============================================================================

type numericSummaryStrategy struct{}

func (*numericSummaryStrategy) Name() string { return "numeric_summary" }

func (*numericSummaryStrategy) Description() string {
	return "Moment statistics per numeric column: mean, median, mode, spread, shape, and range"
}

func (st *numericSummaryStrategy) Process(v *dataset.View) (*models.ProfileReport, error) {
	numCols := v.Table().ColumnsOfKind(dataset.Numeric)
	details := &models.NumericSummaryDetails{Columns: []models.NumericColumnSummary{}}

	for _, col := range numCols {
		details.Columns = append(details.Columns, summarizeNumeric(v, col))
	}

	report := newReport(st, details)
	if len(numCols) == 0 {
		report.Note = "no numeric columns in dataset"
	}
	return report, nil
}

func summarizeNumeric(v *dataset.View, col *dataset.Column) models.NumericColumnSummary {
	vals := collectFloats(v, col)
	s := models.NumericColumnSummary{Column: col.Name, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mean := meanOf(vals)

	s.Mean = fptr(mean)
	s.Median = fptr(quantile(sorted, 0.5))
	s.Min = fptr(sorted[0])
	s.Max = fptr(sorted[len(sorted)-1])

	if len(vals) >= 2 {
		std := sampleStd(vals, mean)
		s.Std = fptr(std)
		if sk, ok := skewness(vals, mean, std); ok {
			s.Skewness = fptr(sk)
		}
		if ku, ok := kurtosisExcess(vals, mean, std); ok {
			s.Kurtosis = fptr(ku)
		}
	}
	if m, ok := modeOf(vals); ok {
		s.Mode = fptr(m)
	}
	return s
}

// ============================================================================
// Categorical summary
// ============================================================================

const topValueCount = 10

type categoricalSummaryStrategy struct{}

func (*categoricalSummaryStrategy) Name() string { return "categorical_summary" }

func (*categoricalSummaryStrategy) Description() string {
	return "Distinct counts, entropy, and top value frequencies per categorical column"
}

func (st *categoricalSummaryStrategy) Process(v *dataset.View) (*models.ProfileReport, error) {
	details := &models.CategoricalSummaryDetails{Columns: []models.CategoricalColumnSummary{}}

	for _, col := range v.Table().Columns() {
		switch col.Kind {
		case dataset.Categorical:
			if col.FreeText {
				details.SkippedFreeText = append(details.SkippedFreeText, col.Name)
				continue
			}
		case dataset.Boolean:
		default:
			continue
		}
		details.Columns = append(details.Columns, summarizeCategorical(v, col))
	}

	report := newReport(st, details)
	if len(details.Columns) == 0 {
		report.Note = "no categorical columns in dataset"
	}
	return report, nil
}

func summarizeCategorical(v *dataset.View, col *dataset.Column) models.CategoricalColumnSummary {
	counts := make(map[string]int)
	var order []string
	nonNull := 0

	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		if col.IsNull(row) {
			continue
		}
		val := col.CellString(row)
		if counts[val] == 0 {
			order = append(order, val)
		}
		counts[val]++
		nonNull++
	}

	top := make([]models.ValueCount, 0, len(order))
	for _, val := range order {
		top = append(top, models.ValueCount{
			Value:   val,
			Count:   counts[val],
			Percent: round2(float64(counts[val]) / float64(max(nonNull, 1)) * 100),
		})
	}
	// stable keeps first-seen order among equal counts
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > topValueCount {
		top = top[:topValueCount]
	}

	return models.CategoricalColumnSummary{
		Column:    col.Name,
		NonNull:   nonNull,
		Distinct:  len(counts),
		Entropy:   entropyOf(counts, nonNull),
		TopValues: top,
	}
}

// ============================================================================
// Data quality
// ============================================================================

// Composite score weights; the constituent metrics are also reported
// separately so each stays independently checkable.
const (
	qualityWeightCompleteness = 0.5
	qualityWeightDuplicates   = 0.3
	qualityWeightOutliers     = 0.2
)

type dataQualityStrategy struct{}

func (*dataQualityStrategy) Name() string { return "data_quality" }

func (*dataQualityStrategy) Description() string {
	return "Composite 0-100 score from completeness, duplicate rows, and IQR outliers"
}

func (st *dataQualityStrategy) Process(v *dataset.View) (*models.ProfileReport, error) {
	tbl := v.Table()
	details := &models.DataQualityDetails{
		Completeness: 1,
		Weights: models.QualityWeights{
			Completeness: qualityWeightCompleteness,
			Duplicates:   qualityWeightDuplicates,
			Outliers:     qualityWeightOutliers,
		},
	}

	totalCells := v.Len() * tbl.NumCols()
	if totalCells > 0 {
		nulls := 0
		for _, col := range tbl.Columns() {
			for i := 0; i < v.Len(); i++ {
				if col.IsNull(v.Row(i)) {
					nulls++
				}
			}
		}
		details.Completeness = 1 - float64(nulls)/float64(totalCells)
	}

	details.DuplicateRows = countDuplicateRows(v)
	duplicateRate := 0.0
	if v.Len() > 0 {
		duplicateRate = float64(details.DuplicateRows) / float64(v.Len())
	}
	details.DuplicateRate = duplicateRate

	outlierCells, numericCells := 0, 0
	for _, col := range tbl.ColumnsOfKind(dataset.Numeric) {
		vals := collectFloats(v, col)
		numericCells += len(vals)

		hasZero, hasNegative := false, false
		for _, f := range vals {
			if f == 0 {
				hasZero = true
			}
			if f < 0 {
				hasNegative = true
			}
		}
		if hasZero {
			details.ColumnsWithZeros = append(details.ColumnsWithZeros, col.Name)
		}
		if hasNegative {
			details.ColumnsWithNegatives = append(details.ColumnsWithNegatives, col.Name)
		}

		if n := countIQROutliers(vals, 1.5); n > 0 {
			outlierCells += n
			details.ColumnsWithOutliers = append(details.ColumnsWithOutliers, col.Name)
		}
	}
	details.OutlierCells = outlierCells
	outlierRate := 0.0
	if numericCells > 0 {
		outlierRate = float64(outlierCells) / float64(numericCells)
	}
	details.OutlierRate = outlierRate

	score := 100 * (qualityWeightCompleteness*details.Completeness +
		qualityWeightDuplicates*(1-duplicateRate) +
		qualityWeightOutliers*(1-outlierRate))
	details.Score = round2(math.Max(0, math.Min(100, score)))

	report := newReport(st, details)
	if v.Len() == 0 {
		report.Note = "view has no rows"
	}
	return report, nil
}

// countDuplicateRows counts rows that exactly repeat an earlier row of the
// view, across all columns.
func countDuplicateRows(v *dataset.View) int {
	tbl := v.Table()
	seen := make(map[string]bool, v.Len())
	dups := 0

	var key []byte
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		key = key[:0]
		for _, col := range tbl.Columns() {
			key = append(key, col.CellString(row)...)
			key = append(key, 0x1f)
		}
		k := string(key)
		if seen[k] {
			dups++
		}
		seen[k] = true
	}
	return dups
}

// countIQROutliers counts values outside [Q1-k*IQR, Q3+k*IQR]. A constant
// column has IQR 0 and every value on the quartiles, so it flags nothing.
func countIQROutliers(vals []float64, k float64) int {
	if len(vals) < 4 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-k*iqr, q3+k*iqr

	n := 0
	for _, f := range vals {
		if f < lower || f > upper {
			n++
		}
	}
	return n
}
