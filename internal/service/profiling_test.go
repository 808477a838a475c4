package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

func newRetailView(t *testing.T) *dataset.View {
	t.Helper()
	day := func(d int) time.Time {
		return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
	}
	cols := []*dataset.Column{
		dataset.NewCategoricalColumn("Country",
			[]string{"UK", "France", "UK", "Germany", "UK", "France"}, nil),
		dataset.NewNumericColumn("Quantity",
			[]float64{2, 6, 3, 8, 2, 0}, []bool{true, true, true, true, true, false}),
		dataset.NewNumericColumn("UnitPrice",
			[]float64{2.55, 3.39, 2.75, 1.85, 2.55, 4.25}, nil),
		dataset.NewDatetimeColumn("InvoiceDate",
			[]time.Time{day(1), day(2), day(3), day(4), day(5), day(6)}, nil),
		dataset.NewBooleanColumn("Returned",
			[]bool{false, false, true, false, false, true}, nil),
	}
	tbl, err := dataset.NewTable(cols)
	require.NoError(t, err, "test table must build")
	return tbl.FullView()
}

func TestProfilingRegistry(t *testing.T) {
	svc := NewProfilingService()

	names := make([]string, 0)
	for _, info := range svc.Strategies() {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.Description, "strategy %s needs a description", info.Name)
	}
	assert.Equal(t, []string{
		"basic_statistics",
		"missing_values",
		"numeric_summary",
		"categorical_summary",
		"data_quality",
	}, names, "registration order is the listing order")

	_, err := svc.Run("does_not_exist", newRetailView(t))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "does_not_exist")
}

func TestBasicStatistics(t *testing.T) {
	svc := NewProfilingService()
	v := newRetailView(t)

	report, err := svc.Run("basic_statistics", v)
	require.NoError(t, err)
	details, ok := report.Details.(*models.BasicStatsDetails)
	require.True(t, ok, "details type")

	assert.Equal(t, 6, details.Rows)
	assert.Equal(t, 5, details.Columns)
	assert.Equal(t, map[string]int{
		"numeric":     2,
		"datetime":    1,
		"categorical": 1,
		"boolean":     1,
	}, details.KindCounts)
	assert.Positive(t, details.MemoryBytes)
	assert.NotEmpty(t, details.MemoryHuman)

	sub := dataset.NewView(v.Table(), []int{0, 1})
	subReport, err := svc.Run("basic_statistics", sub)
	require.NoError(t, err)
	subDetails := subReport.Details.(*models.BasicStatsDetails)
	assert.Equal(t, 2, subDetails.Rows)
	assert.Less(t, subDetails.MemoryBytes, details.MemoryBytes,
		"filtered view estimates less memory than the full table")
}

func TestMissingValues(t *testing.T) {
	svc := NewProfilingService()
	v := newRetailView(t)

	report, err := svc.Run("missing_values", v)
	require.NoError(t, err)
	details := report.Details.(*models.MissingValuesDetails)

	assert.Equal(t, 30, details.TotalCells)
	assert.Equal(t, 1, details.TotalNulls, "only the withheld Quantity cell is null")
	assert.Equal(t, 1, details.ColumnsAffected)
	require.Len(t, details.Columns, 1)
	assert.Equal(t, "Quantity", details.Columns[0].Column)
	assert.Equal(t, 1, details.Columns[0].NullCount)
	assert.InDelta(t, 16.67, details.Columns[0].NullPercent, 0.01)
	assert.InDelta(t, 1-1.0/30, details.Completeness, 1e-9)

	t.Run("worst column listed first", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("a", []float64{1, 2, 3, 4}, []bool{true, false, true, true}),
			dataset.NewNumericColumn("b", []float64{1, 2, 3, 4}, []bool{false, false, false, true}),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("missing_values", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.MissingValuesDetails)
		require.Len(t, details.Columns, 2)
		assert.Equal(t, "b", details.Columns[0].Column)
		assert.Equal(t, "a", details.Columns[1].Column)
	})

	t.Run("complete table reports a note", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("a", []float64{1, 2}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("missing_values", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.MissingValuesDetails)
		assert.Equal(t, 1.0, details.Completeness)
		assert.Empty(t, details.Columns)
		assert.NotEmpty(t, report.Note)
	})
}

func TestNumericSummary(t *testing.T) {
	svc := NewProfilingService()

	t.Run("known moments", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("x", []float64{2, 4, 4, 4, 6}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("numeric_summary", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.NumericSummaryDetails)
		require.Len(t, details.Columns, 1)

		s := details.Columns[0]
		assert.Equal(t, "x", s.Column)
		assert.Equal(t, 5, s.Count)
		require.NotNil(t, s.Mean)
		assert.InDelta(t, 4.0, *s.Mean, 1e-9)
		require.NotNil(t, s.Median)
		assert.InDelta(t, 4.0, *s.Median, 1e-9)
		require.NotNil(t, s.Mode)
		assert.InDelta(t, 4.0, *s.Mode, 1e-9)
		require.NotNil(t, s.Std)
		assert.InDelta(t, 1.4142135, *s.Std, 1e-6)
		require.NotNil(t, s.Min)
		assert.Equal(t, 2.0, *s.Min)
		require.NotNil(t, s.Max)
		assert.Equal(t, 6.0, *s.Max)
		require.NotNil(t, s.Skewness, "five symmetric values have defined skewness")
		assert.InDelta(t, 0.0, *s.Skewness, 1e-9)
		require.NotNil(t, s.Kurtosis)
	})

	t.Run("constant column has zero spread and undefined shape", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("flat", []float64{7, 7, 7, 7}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("numeric_summary", tbl.FullView())
		require.NoError(t, err)
		s := report.Details.(*models.NumericSummaryDetails).Columns[0]

		require.NotNil(t, s.Std)
		assert.Equal(t, 0.0, *s.Std)
		assert.Nil(t, s.Skewness, "zero variance leaves skewness undefined")
		assert.Nil(t, s.Kurtosis, "zero variance leaves kurtosis undefined")
	})

	t.Run("no numeric columns yields an empty report", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewCategoricalColumn("c", []string{"a", "b"}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("numeric_summary", tbl.FullView())
		require.NoError(t, err, "missing kinds are an empty report, not an error")
		details := report.Details.(*models.NumericSummaryDetails)
		assert.Empty(t, details.Columns)
		assert.NotEmpty(t, report.Note)
	})
}

func TestCategoricalSummary(t *testing.T) {
	svc := NewProfilingService()

	t.Run("ties keep first-seen order", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewCategoricalColumn("c",
				[]string{"b", "a", "b", "c", "a", "b"}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("categorical_summary", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.CategoricalSummaryDetails)
		require.Len(t, details.Columns, 1)

		s := details.Columns[0]
		assert.Equal(t, 6, s.NonNull)
		assert.Equal(t, 3, s.Distinct)
		assert.Positive(t, s.Entropy)
		require.Len(t, s.TopValues, 3)
		assert.Equal(t, "b", s.TopValues[0].Value)
		assert.Equal(t, 3, s.TopValues[0].Count)
		assert.InDelta(t, 50.0, s.TopValues[0].Percent, 1e-9)
		assert.Equal(t, "a", s.TopValues[1].Value)
		assert.Equal(t, "c", s.TopValues[2].Value)
	})

	t.Run("free-text columns are skipped and named", func(t *testing.T) {
		ids := make([]string, 50)
		for i := range ids {
			ids[i] = string(rune('A'+i%26)) + string(rune('a'+i/2))
		}
		free := dataset.NewCategoricalColumn("InvoiceNo", ids, nil)
		free.FreeText = true
		cols := []*dataset.Column{
			free,
			dataset.NewCategoricalColumn("Country", repeatStrings([]string{"UK", "FR"}, 50), nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("categorical_summary", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.CategoricalSummaryDetails)
		require.Len(t, details.Columns, 1)
		assert.Equal(t, "Country", details.Columns[0].Column)
		assert.Equal(t, []string{"InvoiceNo"}, details.SkippedFreeText)
	})

	t.Run("booleans profile like categories", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewBooleanColumn("flag", []bool{true, true, false}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("categorical_summary", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.CategoricalSummaryDetails)
		require.Len(t, details.Columns, 1)
		assert.Equal(t, 2, details.Columns[0].Distinct)
		assert.Equal(t, "true", details.Columns[0].TopValues[0].Value)
	})

	t.Run("top list caps at ten values", func(t *testing.T) {
		vals := make([]string, 15)
		for i := range vals {
			vals[i] = string(rune('a' + i))
		}
		cols := []*dataset.Column{
			dataset.NewCategoricalColumn("c", vals, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("categorical_summary", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.CategoricalSummaryDetails)
		assert.Equal(t, 15, details.Columns[0].Distinct)
		assert.Len(t, details.Columns[0].TopValues, 10)
	})
}

func TestDataQuality(t *testing.T) {
	svc := NewProfilingService()

	t.Run("clean data scores 100", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("x", []float64{1, 2, 3, 4, 5}, nil),
			dataset.NewCategoricalColumn("c", []string{"a", "b", "c", "d", "e"}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("data_quality", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.DataQualityDetails)

		assert.Equal(t, 100.0, details.Score)
		assert.Equal(t, 1.0, details.Completeness)
		assert.Zero(t, details.DuplicateRows)
		assert.Zero(t, details.OutlierCells)
		assert.Equal(t, 0.5, details.Weights.Completeness)
		assert.Equal(t, 0.3, details.Weights.Duplicates)
		assert.Equal(t, 0.2, details.Weights.Outliers)
	})

	t.Run("duplicates and nulls lower the score by their weights", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewCategoricalColumn("c",
				[]string{"a", "a", "b", "c"}, []bool{true, true, true, false}),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("data_quality", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.DataQualityDetails)

		assert.Equal(t, 1, details.DuplicateRows, "second a repeats the first")
		assert.InDelta(t, 0.25, details.DuplicateRate, 1e-9)
		assert.InDelta(t, 0.75, details.Completeness, 1e-9)
		// 100 * (0.5*0.75 + 0.3*0.75 + 0.2*1)
		assert.InDelta(t, 80.0, details.Score, 1e-9)
	})

	t.Run("zeros negatives and outliers are named per column", func(t *testing.T) {
		cols := []*dataset.Column{
			dataset.NewNumericColumn("qty", []float64{0, -3, 2, 2, 2, 2, 2, 100}, nil),
		}
		tbl, err := dataset.NewTable(cols)
		require.NoError(t, err)

		report, err := svc.Run("data_quality", tbl.FullView())
		require.NoError(t, err)
		details := report.Details.(*models.DataQualityDetails)

		assert.Equal(t, []string{"qty"}, details.ColumnsWithZeros)
		assert.Equal(t, []string{"qty"}, details.ColumnsWithNegatives)
		assert.Equal(t, []string{"qty"}, details.ColumnsWithOutliers)
		assert.Positive(t, details.OutlierCells)
		assert.Less(t, details.Score, 100.0)
	})
}

func TestRunAll(t *testing.T) {
	svc := NewProfilingService()
	batch := svc.RunAll(newRetailView(t))

	require.Len(t, batch.Reports, 5, "every strategy reports")
	assert.Empty(t, batch.Errors)
	for _, name := range []string{
		"basic_statistics", "missing_values", "numeric_summary",
		"categorical_summary", "data_quality",
	} {
		assert.Contains(t, batch.Reports, name)
	}
}

func repeatStrings(vals []string, n int) []string {
	out := make([]string, 0, n)
	for len(out) < n {
		out = append(out, vals[len(out)%len(vals)])
	}
	return out
}
