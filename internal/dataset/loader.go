package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a loadable file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a filename extension to a Format.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Load parses raw file bytes into a typed table. It has no side effects:
// nothing is written anywhere, and an error leaves no partial result.
func Load(raw []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return loadCSV(raw)
	case FormatXLSX:
		return loadXLSX(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

func loadCSV(raw []byte) (*Table, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyDataset
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		if pe, ok := err.(*csv.ParseError); ok {
			// csv counts physical lines from 1 including the header
			return nil, &ParseError{Row: pe.Line - 1, Message: pe.Err.Error()}
		}
		return nil, &ParseError{Message: err.Error()}
	}
	if len(records) < 2 {
		return nil, ErrEmptyDataset
	}
	return FromRecords(records[0], records[1:])
}

// sniffDelimiter counts candidate separators in the header line and picks
// the most frequent, defaulting to comma.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}

	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t', '|'} {
		if n := bytes.Count(line, []byte{cand}); n > bestCount {
			best = rune(cand)
			bestCount = n
		}
	}
	return best
}
