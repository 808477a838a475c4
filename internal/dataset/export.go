package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// WriteCSV serializes the view as delimited text: a header row, then data
// rows in view order. Cell formatting matches what the loader infers back to
// the same column kinds, so Load(WriteCSV(v)) round-trips kinds and values
// for loader-produced tables. Null cells serialize as empty fields.
func WriteCSV(v *View) ([]byte, error) {
	if v == nil || v.Table() == nil {
		return nil, ErrNoDataset
	}
	tbl := v.Table()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(tbl.ColumnNames()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, tbl.NumCols())
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		for j, col := range tbl.Columns() {
			record[j] = col.CellString(row)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
