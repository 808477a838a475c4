package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A column is classified numeric or datetime when at least this fraction of
// its non-null cells parses as that kind.
const inferThreshold = 0.85

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"None": true,
	"NaN":  true,
	"nan":  true,
	"N/A":  true,
	"n/a":  true,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func isNullToken(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

func parseFloatCell(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseTimeCell(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBoolCell accepts alphabetic tokens only, so 0/1 columns stay numeric.
func parseBoolCell(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes":
		return true, true
	case "false", "f", "no":
		return false, true
	}
	return false, false
}

// ParseFloat, ParseTime, and ParseBool parse a raw string exactly the way
// cell typing does, so comparison values behave like loaded cells.
func ParseFloat(s string) (float64, bool) { return parseFloatCell(s) }

func ParseTime(s string) (time.Time, bool) { return parseTimeCell(s) }

func ParseBool(s string) (bool, bool) { return parseBoolCell(s) }

// FromRecords assembles a typed table from a header and raw string rows,
// inferring each column's kind. Rows whose width differs from the header are
// a ParseError; zero data rows is ErrEmptyDataset. Inference is
// deterministic for a given input.
func FromRecords(headers []string, rows [][]string) (*Table, error) {
	if len(headers) == 0 || len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	headers = cleanHeaders(headers)
	for i, row := range rows {
		if len(row) != len(headers) {
			return nil, &ParseError{
				Row:     i + 1,
				Message: fmt.Sprintf("expected %d fields, found %d", len(headers), len(row)),
			}
		}
	}

	cols := make([]*Column, len(headers))
	cells := make([]string, len(rows))
	for j, name := range headers {
		for i, row := range rows {
			cells[i] = row[j]
		}
		cols[j] = buildColumn(name, cells)
	}
	return NewTable(cols)
}

// cleanHeaders trims whitespace, names blank headers by position, and
// suffixes duplicates so lookups stay unambiguous.
func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func inferKind(cells []string) Kind {
	nonNull, boolOK, numOK, timeOK := 0, 0, 0, 0
	for _, cell := range cells {
		if isNullToken(cell) {
			continue
		}
		nonNull++
		if _, ok := parseBoolCell(cell); ok {
			boolOK++
		}
		if _, ok := parseFloatCell(cell); ok {
			numOK++
		}
		if _, ok := parseTimeCell(cell); ok {
			timeOK++
		}
	}
	switch {
	case nonNull == 0:
		return Categorical
	case boolOK == nonNull:
		return Boolean
	case float64(numOK) >= inferThreshold*float64(nonNull):
		return Numeric
	case float64(timeOK) >= inferThreshold*float64(nonNull):
		return Datetime
	default:
		return Categorical
	}
}

// buildColumn types the raw cells by the inferred kind. Cells that fail the
// winning parse become nulls rather than failing the load.
func buildColumn(name string, cells []string) *Column {
	n := len(cells)
	valid := make([]bool, n)

	switch inferKind(cells) {
	case Boolean:
		vals := make([]bool, n)
		for i, cell := range cells {
			if isNullToken(cell) {
				continue
			}
			vals[i], valid[i] = parseBoolCell(cell)
		}
		return NewBooleanColumn(name, vals, valid)
	case Numeric:
		vals := make([]float64, n)
		for i, cell := range cells {
			if isNullToken(cell) {
				continue
			}
			vals[i], valid[i] = parseFloatCell(cell)
		}
		return NewNumericColumn(name, vals, valid)
	case Datetime:
		vals := make([]time.Time, n)
		for i, cell := range cells {
			if isNullToken(cell) {
				continue
			}
			vals[i], valid[i] = parseTimeCell(cell)
		}
		return NewDatetimeColumn(name, vals, valid)
	default:
		vals := make([]string, n)
		distinct := make(map[string]struct{})
		for i, cell := range cells {
			if isNullToken(cell) {
				continue
			}
			vals[i] = cell
			valid[i] = true
			distinct[cell] = struct{}{}
		}
		col := NewCategoricalColumn(name, vals, valid)
		col.FreeText = isFreeText(len(distinct), n)
		return col
	}
}

// isFreeText flags near-unique string columns (identifiers, descriptions):
// more distinct values than half the rows, once past a small floor.
func isFreeText(distinct, rows int) bool {
	if distinct <= 20 {
		return false
	}
	return distinct*2 > rows
}
