package dataset

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"orders.csv", FormatCSV, false},
		{"orders.CSV", FormatCSV, false},
		{"orders.tsv", FormatCSV, false},
		{"orders.txt", FormatCSV, false},
		{"orders.xlsx", FormatXLSX, false},
		{"orders.parquet", "", true},
		{"orders", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCSVInfersKinds(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"InvoiceDate,Quantity,UnitPrice,Country,Cancelled",
		"2023-01-05,6,2.55,United Kingdom,false",
		"2023-01-06,2,3.39,France,false",
		"2023-01-07,,19.99,Germany,true",
		"2023-01-08,4,null,United Kingdom,false",
	}, "\n"))

	tbl, err := Load(raw, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.NumRows())
	assert.Equal(t, 5, tbl.NumCols())
	assert.Equal(t, []string{"InvoiceDate", "Quantity", "UnitPrice", "Country", "Cancelled"}, tbl.ColumnNames())

	wantKinds := map[string]Kind{
		"InvoiceDate": Datetime,
		"Quantity":    Numeric,
		"UnitPrice":   Numeric,
		"Country":     Categorical,
		"Cancelled":   Boolean,
	}
	for name, kind := range wantKinds {
		col, ok := tbl.Column(name)
		require.True(t, ok, "column %s should exist", name)
		assert.Equal(t, kind, col.Kind, "column %s kind", name)
	}

	qty, _ := tbl.Column("Quantity")
	assert.Equal(t, 1, qty.NullCount(), "empty Quantity cell should be null")
	price, _ := tbl.Column("UnitPrice")
	assert.Equal(t, 1, price.NullCount(), "null token should be null")

	date, _ := tbl.Column("InvoiceDate")
	ts, ok := date.Time(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), ts)

	v, ok := qty.Float(1)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestLoadCSVZeroOneStaysNumeric(t *testing.T) {
	raw := []byte("Flag,Answer\n0,yes\n1,no\n0,yes\n")
	tbl, err := Load(raw, FormatCSV)
	require.NoError(t, err)

	flag, _ := tbl.Column("Flag")
	assert.Equal(t, Numeric, flag.Kind, "0/1 columns are numeric, not boolean")
	answer, _ := tbl.Column("Answer")
	assert.Equal(t, Boolean, answer.Kind)
}

func TestLoadCSVRaggedRow(t *testing.T) {
	raw := []byte("a,b,c\n1,2,3\n4,5\n6,7,8\n")

	_, err := Load(raw, FormatCSV)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Row, "error should name the offending data row")
	assert.Contains(t, pe.Error(), "row 2")
}

func TestLoadCSVEmpty(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		_, err := Load([]byte(""), FormatCSV)
		assert.ErrorIs(t, err, ErrEmptyDataset)
	})
	t.Run("header only", func(t *testing.T) {
		_, err := Load([]byte("a,b,c\n"), FormatCSV)
		assert.ErrorIs(t, err, ErrEmptyDataset)
	})
	t.Run("whitespace", func(t *testing.T) {
		_, err := Load([]byte("\n  \n"), FormatCSV)
		assert.ErrorIs(t, err, ErrEmptyDataset)
	})
}

func TestLoadCSVSemicolonDelimiter(t *testing.T) {
	raw := []byte("Name;Amount\nAlpha;10\nBeta;20\n")
	tbl, err := Load(raw, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Amount"}, tbl.ColumnNames())
	amount, _ := tbl.Column("Amount")
	assert.Equal(t, Numeric, amount.Kind)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load([]byte("a,b\n1,2\n"), Format("parquet"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadCSVDuplicateAndBlankHeaders(t *testing.T) {
	raw := []byte("a,,a\n1,2,3\n")
	tbl, err := Load(raw, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "column_2", "a_2"}, tbl.ColumnNames())
}

func TestFreeTextFlag(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("InvoiceNo,Country\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "INV%05d,United Kingdom\n", i)
	}

	tbl, err := Load([]byte(sb.String()), FormatCSV)
	require.NoError(t, err)

	inv, _ := tbl.Column("InvoiceNo")
	assert.True(t, inv.FreeText, "near-unique identifier column should be free text")
	country, _ := tbl.Column("Country")
	assert.False(t, country.FreeText)
}

func TestLoadCSVMostlyNumericWithStrays(t *testing.T) {
	// 1 stray out of 10 is under the 15% tolerance: column stays numeric
	// and the stray becomes a null.
	rows := []string{"Amount"}
	for i := 0; i < 9; i++ {
		rows = append(rows, fmt.Sprintf("%d.5", i))
	}
	rows = append(rows, "n.a.")

	tbl, err := Load([]byte(strings.Join(rows, "\n")), FormatCSV)
	require.NoError(t, err)

	col, _ := tbl.Column("Amount")
	assert.Equal(t, Numeric, col.Kind)
	assert.Equal(t, 1, col.NullCount())
}

func TestInferenceIsDeterministic(t *testing.T) {
	raw := []byte("a,b\n1,x\n2,y\n3,z\n")
	first, err := Load(raw, FormatCSV)
	require.NoError(t, err)
	second, err := Load(raw, FormatCSV)
	require.NoError(t, err)

	for i := range first.Columns() {
		assert.Equal(t, first.ColumnAt(i).Kind, second.ColumnAt(i).Kind)
	}
}

func TestLoadErrorIsRecoverable(t *testing.T) {
	_, err := Load([]byte("a,b\n1\n"), FormatCSV)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*ParseError)) || errors.Is(err, ErrEmptyDataset))
}
