package models

import "time"

// UploadResponse is returned after a successful dataset load.
type UploadResponse struct {
	Message     string              `json:"message"`
	DatasetID   string              `json:"dataset_id"`
	Source      string              `json:"source"`
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	ColumnNames []string            `json:"column_names"`
	ColumnKinds map[string]string   `json:"column_kinds"`
	Sample      []map[string]string `json:"sample"`
}

// ErrorResponse carries a failure message to the client.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by /status.
type StatusResponse struct {
	Loaded        bool       `json:"loaded"`
	DatasetID     string     `json:"dataset_id,omitempty"`
	Source        string     `json:"source,omitempty"`
	LoadedAt      *time.Time `json:"loaded_at,omitempty"`
	Rows          int        `json:"rows"`
	Columns       int        `json:"columns"`
	ViewRows      int        `json:"view_rows"`
	ActiveFilters int        `json:"active_filters"`
}

// ColumnInfo describes one column for /columns.
type ColumnInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	NullCount int    `json:"null_count"`
	FreeText  bool   `json:"free_text,omitempty"`
}

// PreviewResponse is a bounded slice of the current view as display text.
type PreviewResponse struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Total   int                 `json:"total_rows"`
}

// FilterResponse reports the result of applying a filter set. Data is a
// bounded preview of matching rows; Rows is the full match count.
type FilterResponse struct {
	Rows    int                 `json:"rows"`
	Total   int                 `json:"total"`
	Columns []string            `json:"columns"`
	Data    []map[string]string `json:"data"`
}

// RegistryResponse lists the registered strategies and chart builders.
type RegistryResponse struct {
	Profiling []StrategyInfo `json:"profiling"`
	Charts    []StrategyInfo `json:"charts"`
}
