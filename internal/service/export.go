package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"retaildash/internal/dataset"
)

// Export formats.
const (
	ExportCSV     = "csv"
	ExportJSON    = "json"
	ExportParquet = "parquet"
)

// ExportService renders a view as downloadable bytes. CSV output round-trips
// through the loader; JSON and Parquet keep the typed values.
type ExportService struct{}

func NewExportService() *ExportService { return &ExportService{} }

// Export renders the view in the requested format. An empty format means CSV.
func (s *ExportService) Export(v *dataset.View, format string) ([]byte, error) {
	switch format {
	case "", ExportCSV:
		return dataset.WriteCSV(v)
	case ExportJSON:
		return s.exportJSON(v)
	case ExportParquet:
		return s.exportParquet(v)
	default:
		return nil, &InvalidOptionError{
			Option: "format", Value: format,
			Reason: "must be csv, json, or parquet",
		}
	}
}

// ContentType returns the MIME type for a download of the given format.
func ContentType(format string) string {
	switch format {
	case ExportJSON:
		return "application/json"
	case ExportParquet:
		return "application/octet-stream"
	default:
		return "text/csv"
	}
}

func (s *ExportService) exportJSON(v *dataset.View) ([]byte, error) {
	if v == nil {
		return nil, dataset.ErrNoDataset
	}
	tbl := v.Table()

	records := make([]map[string]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		record := make(map[string]interface{}, tbl.NumCols())
		for _, col := range tbl.Columns() {
			record[col.Name] = jsonCell(col, row)
		}
		records = append(records, record)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func jsonCell(col *dataset.Column, row int) interface{} {
	if col.IsNull(row) {
		return nil
	}
	switch col.Kind {
	case dataset.Numeric:
		f, _ := col.Float(row)
		return f
	case dataset.Datetime:
		t, _ := col.Time(row)
		return t.UTC()
	case dataset.Boolean:
		b, _ := col.Bool(row)
		return b
	default:
		s, _ := col.Str(row)
		return s
	}
}

func (s *ExportService) exportParquet(v *dataset.View) ([]byte, error) {
	if v == nil {
		return nil, dataset.ErrNoDataset
	}
	table := buildArrowTable(v)
	defer table.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), &buf, props, arrowProps)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// buildArrowTable copies the view into an Arrow table, one chunk per column.
func buildArrowTable(v *dataset.View) arrow.Table {
	tbl := v.Table()
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, tbl.NumCols())
	for i, col := range tbl.Columns() {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Kind), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	columns := make([]arrow.Column, tbl.NumCols())
	for i, col := range tbl.Columns() {
		builder := array.NewBuilder(pool, fields[i].Type)
		for j := 0; j < v.Len(); j++ {
			appendArrowCell(builder, col, v.Row(j))
		}
		arr := builder.NewArray()
		chunked := arrow.NewChunked(fields[i].Type, []arrow.Array{arr})
		columns[i] = *arrow.NewColumn(fields[i], chunked)
		arr.Release()
		builder.Release()
	}
	return array.NewTable(schema, columns, int64(v.Len()))
}

func arrowType(k dataset.Kind) arrow.DataType {
	switch k {
	case dataset.Numeric:
		return arrow.PrimitiveTypes.Float64
	case dataset.Datetime:
		return arrow.FixedWidthTypes.Timestamp_ms
	case dataset.Boolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendArrowCell(builder array.Builder, col *dataset.Column, row int) {
	if col.IsNull(row) {
		builder.AppendNull()
		return
	}
	switch b := builder.(type) {
	case *array.Float64Builder:
		f, _ := col.Float(row)
		b.Append(f)
	case *array.TimestampBuilder:
		t, _ := col.Time(row)
		b.Append(arrow.Timestamp(t.UnixMilli()))
	case *array.BooleanBuilder:
		val, _ := col.Bool(row)
		b.Append(val)
	case *array.StringBuilder:
		s, _ := col.Str(row)
		b.Append(s)
	}
}
