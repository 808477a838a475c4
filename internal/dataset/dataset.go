package dataset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind classifies the values of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Datetime    Kind = "datetime"
	Categorical Kind = "categorical"
	Boolean     Kind = "boolean"
)

// Column is a typed, nullable sequence of cell values. Exactly one of the
// typed slices is populated, matching Kind; valid marks non-null cells.
type Column struct {
	Name string
	Kind Kind

	// FreeText marks categorical columns whose values are near-unique
	// (identifiers, descriptions). Value-frequency profiling skips them.
	FreeText bool

	floats []float64
	times  []time.Time
	strs   []string
	bools  []bool
	valid  []bool
}

// NewNumericColumn builds a numeric column. A nil valid slice means every
// cell is non-null.
func NewNumericColumn(name string, values []float64, valid []bool) *Column {
	return &Column{Name: name, Kind: Numeric, floats: values, valid: normalizeValid(valid, len(values))}
}

// NewDatetimeColumn builds a datetime column.
func NewDatetimeColumn(name string, values []time.Time, valid []bool) *Column {
	return &Column{Name: name, Kind: Datetime, times: values, valid: normalizeValid(valid, len(values))}
}

// NewCategoricalColumn builds a categorical (string) column.
func NewCategoricalColumn(name string, values []string, valid []bool) *Column {
	return &Column{Name: name, Kind: Categorical, strs: values, valid: normalizeValid(valid, len(values))}
}

// NewBooleanColumn builds a boolean column.
func NewBooleanColumn(name string, values []bool, valid []bool) *Column {
	return &Column{Name: name, Kind: Boolean, bools: values, valid: normalizeValid(valid, len(values))}
}

func normalizeValid(valid []bool, n int) []bool {
	if valid != nil {
		return valid
	}
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

// Len returns the number of cells, including nulls.
func (c *Column) Len() int {
	return len(c.valid)
}

// IsNull reports whether the cell at row is null.
func (c *Column) IsNull(row int) bool {
	return !c.valid[row]
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row; ok is false for nulls or
// non-numeric columns.
func (c *Column) Float(row int) (float64, bool) {
	if c.Kind != Numeric || !c.valid[row] {
		return 0, false
	}
	return c.floats[row], true
}

// Time returns the datetime value at row; ok is false for nulls or
// non-datetime columns.
func (c *Column) Time(row int) (time.Time, bool) {
	if c.Kind != Datetime || !c.valid[row] {
		return time.Time{}, false
	}
	return c.times[row], true
}

// Str returns the string value at row; ok is false for nulls or
// non-categorical columns.
func (c *Column) Str(row int) (string, bool) {
	if c.Kind != Categorical || !c.valid[row] {
		return "", false
	}
	return c.strs[row], true
}

// Bool returns the boolean value at row; ok is false for nulls or
// non-boolean columns.
func (c *Column) Bool(row int) (bool, bool) {
	if c.Kind != Boolean || !c.valid[row] {
		return false, false
	}
	return c.bools[row], true
}

// CellString renders any cell as text, "" for null. Numeric cells use the
// shortest form that round-trips through ParseFloat; datetimes use the date
// form when the column holds midnights only.
func (c *Column) CellString(row int) string {
	if !c.valid[row] {
		return ""
	}
	switch c.Kind {
	case Numeric:
		return strconv.FormatFloat(c.floats[row], 'g', -1, 64)
	case Datetime:
		if c.midnightsOnly() {
			return c.times[row].Format("2006-01-02")
		}
		return c.times[row].Format("2006-01-02 15:04:05")
	case Boolean:
		return strconv.FormatBool(c.bools[row])
	default:
		return c.strs[row]
	}
}

func (c *Column) midnightsOnly() bool {
	for i, t := range c.times {
		if !c.valid[i] {
			continue
		}
		h, m, s := t.Clock()
		if h != 0 || m != 0 || s != 0 || t.Nanosecond() != 0 {
			return false
		}
	}
	return true
}

// MemoryBytes estimates the in-memory size of the column's data: 8 bytes
// per numeric or datetime cell, 1 per boolean, byte length plus 16 bytes of
// overhead per categorical cell.
func (c *Column) MemoryBytes() int64 {
	switch c.Kind {
	case Numeric, Datetime:
		return int64(len(c.valid)) * 8
	case Boolean:
		return int64(len(c.valid))
	default:
		var total int64
		for i, s := range c.strs {
			if c.valid[i] {
				total += int64(len(s)) + 16
			}
		}
		return total
	}
}

// CellBytes is the single-cell share of MemoryBytes.
func (c *Column) CellBytes(row int) int64 {
	switch c.Kind {
	case Numeric, Datetime:
		return 8
	case Boolean:
		return 1
	default:
		if !c.valid[row] {
			return 0
		}
		return int64(len(c.strs[row])) + 16
	}
}

// Table is an ordered collection of equal-length named columns. Row order is
// stable and matches the source. Tables are read-only once built; filters
// produce Views instead of copies.
type Table struct {
	ID       string
	Source   string
	LoadedAt time.Time

	cols   []*Column
	byName map[string]int
	rows   int
}

// NewTable validates the columns (unique non-empty names, equal lengths) and
// assembles a table with a fresh ID.
func NewTable(cols []*Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, ErrEmptyDataset
	}
	t := &Table{
		ID:       uuid.NewString(),
		LoadedAt: time.Now().UTC(),
		cols:     cols,
		byName:   make(map[string]int, len(cols)),
		rows:     cols[0].Len(),
	}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
		t.byName[c.Name] = i
	}
	if t.rows == 0 {
		return nil, ErrEmptyDataset
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in table order. Callers must not mutate them.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// HasColumn reports whether name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// ColumnsOfKind returns all columns of the given kind, in table order.
func (t *Table) ColumnsOfKind(k Kind) []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// FirstOfKind returns the first column of the given kind, or nil.
func (t *Table) FirstOfKind(k Kind) *Column {
	for _, c := range t.cols {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// MemoryBytes estimates the table's data footprint.
func (t *Table) MemoryBytes() int64 {
	var total int64
	for _, c := range t.cols {
		total += c.MemoryBytes()
	}
	return total
}

// FullView returns a view covering every row.
func (t *Table) FullView() *View {
	return &View{tbl: t}
}

// View is a row subset of a Table, in table order. A nil index slice means
// every row. Views share the table's storage and never copy cells.
type View struct {
	tbl  *Table
	rows []int
}

// NewView builds a view over the given table rows. rows may be empty but, to
// distinguish "no rows matched" from "all rows", must not be nil unless the
// view covers the whole table.
func NewView(t *Table, rows []int) *View {
	return &View{tbl: t, rows: rows}
}

// Table returns the underlying table.
func (v *View) Table() *Table { return v.tbl }

// Len returns the number of rows in the view.
func (v *View) Len() int {
	if v.rows == nil {
		return v.tbl.rows
	}
	return len(v.rows)
}

// Row maps a view position to a table row index.
func (v *View) Row(i int) int {
	if v.rows == nil {
		return i
	}
	return v.rows[i]
}

// Filtered reports whether the view is a proper subset selection.
func (v *View) Filtered() bool { return v.rows != nil }
