package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
)

func newFilterTable(t *testing.T) *dataset.Table {
	t.Helper()
	day := func(d int) time.Time {
		return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
	}
	cols := []*dataset.Column{
		dataset.NewCategoricalColumn("InvoiceNo",
			[]string{"INV1", "C-INV2", "INV3", "INV4", "C-INV5", "INV6"}, nil),
		dataset.NewNumericColumn("Quantity",
			[]float64{5, -5, 3, 2, -2, 10}, nil),
		dataset.NewCategoricalColumn("Country",
			[]string{"UK", "UK", "France", "Germany", "France", "UK"}, nil),
		dataset.NewDatetimeColumn("InvoiceDate",
			[]time.Time{day(10), day(11), day(12), day(13), day(14), day(15)}, nil),
	}
	tbl, err := dataset.NewTable(cols)
	require.NoError(t, err)
	return tbl
}

func predicates(ps ...models.FilterPredicate) models.FilterSet {
	return models.FilterSet{Predicates: ps}
}

func viewRows(v *dataset.View) []int {
	rows := make([]int, v.Len())
	for i := range rows {
		rows[i] = v.Row(i)
	}
	return rows
}

func TestFilterEquals(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	tests := []struct {
		name string
		pred models.FilterPredicate
		want []int
	}{
		{
			name: "text match ignores case",
			pred: models.FilterPredicate{Column: "Country", Operator: "equals", Value: "uk"},
			want: []int{0, 1, 5},
		},
		{
			name: "numeric match compares parsed values",
			pred: models.FilterPredicate{Column: "Quantity", Operator: "equals", Value: "3"},
			want: []int{2},
		},
		{
			name: "datetime match compares instants",
			pred: models.FilterPredicate{Column: "InvoiceDate", Operator: "equals", Value: "2023-01-12"},
			want: []int{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := svc.Apply(tbl, predicates(tt.pred))
			require.NoError(t, err)
			assert.Equal(t, tt.want, viewRows(v))
		})
	}
}

func TestFilterOrderOperators(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	t.Run("greater_than is strict", func(t *testing.T) {
		v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "Quantity", Operator: "greater_than", Value: "3",
		}))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 5}, viewRows(v), "the boundary value 3 is excluded")
	})

	t.Run("less_than on dates is chronological", func(t *testing.T) {
		v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "InvoiceDate", Operator: "less_than", Value: "2023-01-12",
		}))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, viewRows(v))
	})

	t.Run("order comparison rejects text columns", func(t *testing.T) {
		_, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "Country", Operator: "greater_than", Value: "France",
		}))
		var perr *InvalidPredicateError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "Country", perr.Column)
	})
}

func TestFilterContains(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	t.Run("substring match ignores case", func(t *testing.T) {
		v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "InvoiceNo", Operator: "contains", Value: "c-inv",
		}))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4}, viewRows(v))
	})

	t.Run("rejected on numeric columns", func(t *testing.T) {
		_, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "Quantity", Operator: "contains", Value: "5",
		}))
		var perr *InvalidPredicateError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "text column")
	})
}

func TestFilterConjunction(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	v, err := svc.Apply(tbl, predicates(
		models.FilterPredicate{Column: "Country", Operator: "equals", Value: "UK"},
		models.FilterPredicate{Column: "Quantity", Operator: "greater_than", Value: "0"},
	))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, viewRows(v), "both predicates must hold")
	assert.LessOrEqual(t, v.Len(), tbl.NumRows())
}

func TestFilterWholeSetValidation(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	t.Run("unknown column fails the whole set", func(t *testing.T) {
		v, err := svc.Apply(tbl, predicates(
			models.FilterPredicate{Column: "Country", Operator: "equals", Value: "UK"},
			models.FilterPredicate{Column: "Region", Operator: "equals", Value: "EU"},
		))
		var uerr *dataset.UnknownColumnError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "Region", uerr.Column)
		assert.Nil(t, v, "no partial application")
	})

	t.Run("unparseable value fails before evaluation", func(t *testing.T) {
		_, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "Quantity", Operator: "greater_than", Value: "lots",
		}))
		var perr *InvalidPredicateError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "not numeric")
	})

	t.Run("unknown operator is rejected", func(t *testing.T) {
		_, err := svc.Apply(tbl, predicates(models.FilterPredicate{
			Column: "Quantity", Operator: "between", Value: "1",
		}))
		var perr *InvalidPredicateError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "unknown operator")
	})
}

func TestFilterEmptySet(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	v, err := svc.Apply(tbl, models.FilterSet{})
	require.NoError(t, err)
	assert.False(t, v.Filtered())
	assert.Equal(t, tbl.NumRows(), v.Len())
}

func TestFilterNullNeverMatches(t *testing.T) {
	svc := NewFilterService()
	cols := []*dataset.Column{
		dataset.NewNumericColumn("x",
			[]float64{10, 0, 30}, []bool{true, false, true}),
	}
	tbl, err := dataset.NewTable(cols)
	require.NoError(t, err)

	v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
		Column: "x", Operator: "less_than", Value: "100",
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, viewRows(v), "the null row is excluded even though 0 < 100")
}

func TestFilterRemovesCancellations(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
		Column: "Quantity", Operator: "greater_than", Value: "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 3, 5}, viewRows(v),
		"exactly the negative-quantity cancellation rows drop out")
	col, _ := tbl.Column("InvoiceNo")
	for i := 0; i < v.Len(); i++ {
		s, _ := col.Str(v.Row(i))
		assert.NotContains(t, s, "C-", "no cancellation invoices remain")
	}
}

func TestFilterMatchingNothing(t *testing.T) {
	svc := NewFilterService()
	tbl := newFilterTable(t)

	v, err := svc.Apply(tbl, predicates(models.FilterPredicate{
		Column: "Country", Operator: "equals", Value: "Atlantis",
	}))
	require.NoError(t, err)
	assert.True(t, v.Filtered())
	assert.Zero(t, v.Len(), "an empty result is a valid filtered view")
}
