package sample

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retaildash/internal/dataset"
)

func TestGenerateShape(t *testing.T) {
	tbl, err := Generate(500, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 500, tbl.NumRows())
	assert.Equal(t, "sample", tbl.Source)
	assert.Equal(t, []string{
		"InvoiceNo", "StockCode", "Description", "Quantity",
		"InvoiceDate", "UnitPrice", "CustomerID", "Country", "Category",
	}, tbl.ColumnNames())

	kind := func(name string) dataset.Kind {
		col, ok := tbl.Column(name)
		require.True(t, ok, name)
		return col.Kind
	}
	assert.Equal(t, dataset.Numeric, kind("Quantity"))
	assert.Equal(t, dataset.Numeric, kind("UnitPrice"))
	assert.Equal(t, dataset.Numeric, kind("CustomerID"))
	assert.Equal(t, dataset.Datetime, kind("InvoiceDate"))
	assert.Equal(t, dataset.Categorical, kind("Country"))
	assert.Equal(t, dataset.Categorical, kind("Category"))

	customers, _ := tbl.Column("CustomerID")
	assert.Positive(t, customers.NullCount(), "some customer IDs are missing")
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(200, 7, nil)
	require.NoError(t, err)
	b, err := Generate(200, 7, nil)
	require.NoError(t, err)

	csvA, err := WriteCSV(a)
	require.NoError(t, err)
	csvB, err := WriteCSV(b)
	require.NoError(t, err)
	assert.Equal(t, csvA, csvB)

	c, err := Generate(200, 8, nil)
	require.NoError(t, err)
	csvC, err := WriteCSV(c)
	require.NoError(t, err)
	assert.NotEqual(t, csvA, csvC, "different seeds give different data")
}

func TestGenerateDatesSorted(t *testing.T) {
	tbl, err := Generate(300, 3, nil)
	require.NoError(t, err)

	dates, ok := tbl.Column("InvoiceDate")
	require.True(t, ok)
	prev, _ := dates.Time(0)
	for row := 1; row < tbl.NumRows(); row++ {
		cur, valid := dates.Time(row)
		require.True(t, valid)
		assert.False(t, cur.Before(prev), "row %d out of order", row)
		prev = cur
	}
}

func TestGenerateCancellations(t *testing.T) {
	tbl, err := Generate(2000, 5, nil)
	require.NoError(t, err)

	invoices, _ := tbl.Column("InvoiceNo")
	quantities, _ := tbl.Column("Quantity")

	cancelled := 0
	for row := 0; row < tbl.NumRows(); row++ {
		inv := invoices.CellString(row)
		q, ok := quantities.Float(row)
		require.True(t, ok)
		if strings.HasPrefix(inv, "C") {
			cancelled++
			assert.Negative(t, q, "cancelled invoice %s has positive quantity", inv)
		} else {
			assert.Positive(t, q, "invoice %s has negative quantity", inv)
		}
	}
	assert.Greater(t, cancelled, 0)
	assert.Less(t, cancelled, tbl.NumRows()/10)
}

func TestGenerateRespectsCatalog(t *testing.T) {
	cat := &Catalog{
		Categories: []Category{{
			Name:     "Stationery",
			Products: []string{"Pen", "Notebook"},
			MinPrice: 2, MaxPrice: 9,
		}},
		Countries: []CountryWeight{{Name: "Ireland", Weight: 1}},
	}

	tbl, err := Generate(150, 11, cat)
	require.NoError(t, err)

	categories, _ := tbl.Column("Category")
	countries, _ := tbl.Column("Country")
	prices, _ := tbl.Column("UnitPrice")
	stockCodes, _ := tbl.Column("StockCode")

	for row := 0; row < tbl.NumRows(); row++ {
		assert.Equal(t, "Stationery", categories.CellString(row))
		assert.Equal(t, "Ireland", countries.CellString(row))
		p, ok := prices.Float(row)
		require.True(t, ok)
		assert.GreaterOrEqual(t, p, 2.0)
		assert.LessOrEqual(t, p, 9.0)
		assert.True(t, strings.HasPrefix(stockCodes.CellString(row), "STA"), stockCodes.CellString(row))
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := Generate(0, 1, nil)
	assert.Error(t, err)

	_, err = Generate(10, 1, &Catalog{})
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: Garden
    products: [Spade, Rake]
    min_price: 4
    max_price: 40
countries:
  - name: France
    weight: 1
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Categories, 1)
	assert.Equal(t, "Garden", cat.Categories[0].Name)
	assert.Equal(t, []string{"Spade", "Rake"}, cat.Categories[0].Products)
	assert.Equal(t, 40.0, cat.Categories[0].MaxPrice)
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("categories: [\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)

	// validates content, not just syntax
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("categories: []\n"), 0o644))
	_, err = LoadCatalog(empty)
	assert.Error(t, err)
}

func TestStockPrefix(t *testing.T) {
	assert.Equal(t, "ELE", stockPrefix("Electronics"))
	assert.Equal(t, "HOM", stockPrefix("Home & Garden"))
	assert.Equal(t, "TOY", stockPrefix("Toys"))
}
