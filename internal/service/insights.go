package service

import (
	"fmt"
	"sort"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

const (
	defaultTopN            = 3
	defaultIQRMultiplier   = 1.5
	maxAnomalySamples      = 5
	trendStrengthThreshold = 0.1
)

// InsightService derives ranked, anomaly, and trend findings from a view.
type InsightService struct{}

func NewInsightService() *InsightService { return &InsightService{} }

// TopPerformers ranks groups by their summed measure, descending. Groups
// with equal totals keep the order they first appear in the data.
func (s *InsightService) TopPerformers(v *dataset.View, groupColumn, measureColumn string, n int) (*models.TopPerformersResult, error) {
	tbl := v.Table()

	if n == 0 {
		n = defaultTopN
	}
	if n < 0 {
		return nil, &InvalidOptionError{
			Option: "n", Value: fmt.Sprint(n),
			Reason: "must be positive",
		}
	}

	groupCol, err := resolveGroupColumn(tbl, groupColumn)
	if err != nil {
		return nil, err
	}
	measureCol, err := resolveColumn(tbl, measureColumn, dataset.Numeric, "measure_column")
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	var order []string
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		if groupCol.IsNull(row) {
			continue
		}
		f, ok := measureCol.Float(row)
		if !ok {
			continue
		}
		key := groupCol.CellString(row)
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += f
	}
	if len(order) == 0 {
		return nil, &InsufficientDataError{Reason: "no rows with both a group and a measure"}
	}

	type ranked struct {
		group string
		total float64
	}
	all := make([]ranked, 0, len(order))
	grand := 0.0
	for _, key := range order {
		all = append(all, ranked{group: key, total: totals[key]})
		grand += totals[key]
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].total > all[j].total })
	if len(all) > n {
		all = all[:n]
	}

	result := &models.TopPerformersResult{
		GroupColumn:   groupCol.Name,
		MeasureColumn: measureCol.Name,
		GrandTotal:    grand,
	}
	for i, r := range all {
		share := 0.0
		if grand != 0 {
			share = round2(r.total / grand * 100)
		}
		result.Performers = append(result.Performers, models.TopPerformer{
			Rank:  i + 1,
			Group: r.group,
			Total: r.total,
			Share: share,
			Headline: fmt.Sprintf("%s ranks #%d in %s with %.2f (%.1f%% of total)",
				r.group, i+1, measureCol.Name, r.total, share),
		})
	}
	return result, nil
}

// DetectAnomalies flags values outside the IQR fences of each numeric
// column. A constant column has zero-width fences on its own value and
// flags nothing. Columns with fewer than four values are skipped.
func (s *InsightService) DetectAnomalies(v *dataset.View, multiplier float64) (*models.AnomalyReport, error) {
	if multiplier == 0 {
		multiplier = defaultIQRMultiplier
	}
	if multiplier < 0 {
		return nil, &InvalidOptionError{
			Option: "multiplier", Value: fmt.Sprintf("%g", multiplier),
			Reason: "must be positive",
		}
	}

	numCols := v.Table().ColumnsOfKind(dataset.Numeric)
	if len(numCols) == 0 {
		return nil, &InsufficientDataError{Reason: "no numeric column available"}
	}

	report := &models.AnomalyReport{Multiplier: multiplier, Columns: []models.AnomalyColumn{}}
	totalFlagged := 0

	for _, col := range numCols {
		vals, rows := collectFloatsWithRows(v, col)
		if len(vals) < 4 {
			continue
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		ac := models.AnomalyColumn{
			Column: col.Name,
			Q1:     quantile(sorted, 0.25),
			Q3:     quantile(sorted, 0.75),
		}
		ac.IQR = ac.Q3 - ac.Q1
		ac.LowerBound = ac.Q1 - multiplier*ac.IQR
		ac.UpperBound = ac.Q3 + multiplier*ac.IQR

		for i, f := range vals {
			if f >= ac.LowerBound && f <= ac.UpperBound {
				continue
			}
			ac.Flagged++
			if len(ac.Samples) < maxAnomalySamples {
				bound := "upper"
				if f < ac.LowerBound {
					bound = "lower"
				}
				ac.Samples = append(ac.Samples, models.AnomalySample{
					Row:   rows[i],
					Value: f,
					Bound: bound,
				})
			}
		}
		ac.FlaggedPct = round2(float64(ac.Flagged) / float64(len(vals)) * 100)
		totalFlagged += ac.Flagged
		report.Columns = append(report.Columns, ac)
	}

	if totalFlagged == 0 {
		report.Summary = "No significant statistical anomalies detected"
	} else {
		report.Summary = fmt.Sprintf("%d potential anomalies flagged across %d columns",
			totalFlagged, len(report.Columns))
	}
	return report, nil
}

// Trends fits each numeric column against its chronological position and
// labels the direction. Weak fits read as flat.
func (s *InsightService) Trends(v *dataset.View, timeColumn string) (*models.TrendReport, error) {
	tbl := v.Table()

	timeCol, err := resolveColumn(tbl, timeColumn, dataset.Datetime, "time_column")
	if err != nil {
		return nil, err
	}
	numCols := tbl.ColumnsOfKind(dataset.Numeric)
	if len(numCols) == 0 {
		return nil, &InsufficientDataError{Reason: "no numeric column available"}
	}
	if v.Len() < 3 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("need at least 3 rows, have %d", v.Len()),
		}
	}

	// order rows chronologically; rows without a timestamp drop out
	ordered := make([]int, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		if !timeCol.IsNull(row) {
			ordered = append(ordered, row)
		}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ta, _ := timeCol.Time(ordered[a])
		tb, _ := timeCol.Time(ordered[b])
		return ta.Before(tb)
	})

	report := &models.TrendReport{TimeColumn: timeCol.Name, Columns: []models.ColumnTrend{}}
	for _, col := range numCols {
		vals := make([]float64, 0, len(ordered))
		for _, row := range ordered {
			if f, ok := col.Float(row); ok {
				vals = append(vals, f)
			}
		}
		if len(vals) < 3 {
			continue
		}
		slope, rsquared := linearFit(vals)

		direction := "flat"
		if rsquared >= trendStrengthThreshold {
			if slope > 0 {
				direction = "rising"
			} else if slope < 0 {
				direction = "falling"
			}
		}
		report.Columns = append(report.Columns, models.ColumnTrend{
			Column:    col.Name,
			Slope:     slope,
			RSquared:  rsquared,
			Direction: direction,
		})
	}
	return report, nil
}
