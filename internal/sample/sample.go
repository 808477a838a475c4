package sample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"retaildash/internal/dataset"
)

// DefaultRows matches the original generator's output size.
const DefaultRows = 5000

const (
	cancelledShare = 0.02
	missingIDShare = 0.03
)

// quantities and their sampling weights; small orders dominate.
var (
	quantityChoices = []int{1, 2, 3, 4, 5, 6, 10, 12, 20, 24}
	quantityWeights = []float64{0.3, 0.2, 0.15, 0.1, 0.08, 0.07, 0.05, 0.03, 0.01, 0.01}
)

var sampleHeaders = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity",
	"InvoiceDate", "UnitPrice", "CustomerID", "Country", "Category",
}

// Generate produces n rows of synthetic online-retail transactions as a
// typed table: one calendar year of orders sorted by date, weighted
// quantities and countries, per-category price bands, a few percent of
// cancellations (negative quantity, C-prefixed invoice) and missing
// customer IDs. The same seed yields the same table.
func Generate(n int, seed int64, cat *Catalog) (*dataset.Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("row count must be positive, got %d", n)
	}
	if cat == nil {
		cat = DefaultCatalog()
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	r := rand.New(rand.NewSource(seed))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	countryWeights := make([]float64, len(cat.Countries))
	for i, cw := range cat.Countries {
		countryWeights[i] = cw.Weight
	}

	type record struct {
		date time.Time
		row  []string
	}
	records := make([]record, 0, n)

	for i := 0; i < n; i++ {
		category := cat.Categories[r.Intn(len(cat.Categories))]
		product := category.Products[r.Intn(len(category.Products))]
		date := start.AddDate(0, 0, r.Intn(365))

		quantity := quantityChoices[weightedIndex(r, quantityWeights)]
		price := math.Round((category.MinPrice+r.Float64()*(category.MaxPrice-category.MinPrice))*100) / 100

		invoice := fmt.Sprintf("INV%d", 100000+i)
		if r.Float64() < cancelledShare {
			invoice = "C" + invoice
			quantity = -quantity
		}

		customerID := ""
		if r.Float64() >= missingIDShare {
			customerID = fmt.Sprint(10000 + r.Intn(500))
		}

		records = append(records, record{date: date, row: []string{
			invoice,
			fmt.Sprintf("%s%d", stockPrefix(category.Name), 1000+r.Intn(9000)),
			product,
			fmt.Sprint(quantity),
			date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", price),
			customerID,
			cat.Countries[weightedIndex(r, countryWeights)].Name,
			category.Name,
		}})
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].date.Before(records[b].date)
	})

	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.row
	}
	tbl, err := dataset.FromRecords(sampleHeaders, rows)
	if err != nil {
		return nil, err
	}
	tbl.Source = "sample"
	return tbl, nil
}

// WriteCSV renders a generated table back to delimited text.
func WriteCSV(tbl *dataset.Table) ([]byte, error) {
	return dataset.WriteCSV(tbl.FullView())
}

// weightedIndex draws an index proportionally to weights. Weights are
// assumed validated: non-negative with a positive sum.
func weightedIndex(r *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := r.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i
		}
	}
	return len(weights) - 1
}
