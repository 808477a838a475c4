package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// Rows fetched from a database table when no limit is given. The table is
// held fully in memory, so the cap is deliberate.
const defaultFetchLimit = 100000

// DataSourceConfig holds connection details for an external database.
type DataSourceConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode,omitempty"` // disable, require
}

// DataSource is a connected external database that can enumerate tables and
// fetch raw cells for loading. Fetched cells go through the same kind
// inference as an uploaded file.
type DataSource interface {
	Connect(ctx context.Context, config DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	FetchTable(ctx context.Context, table string, limit int) (headers []string, rows [][]string, err error)
}

// PostgresDataSource implements DataSource for PostgreSQL.
type PostgresDataSource struct {
	db *sql.DB
}

func NewPostgresDataSource() *PostgresDataSource { return &PostgresDataSource{} }

func (p *PostgresDataSource) Connect(ctx context.Context, config DataSourceConfig) error {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return err
	}

	p.db = db
	return nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// FetchTable reads up to limit rows of a table as raw string cells. The
// table name must appear in ListTables, so user input never reaches the
// query as an unchecked identifier.
func (p *PostgresDataSource) FetchTable(ctx context.Context, table string, limit int) ([]string, [][]string, error) {
	known, err := p.ListTables(ctx)
	if err != nil {
		return nil, nil, err
	}
	found := false
	for _, name := range known {
		if name == table {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("table %q does not exist in the public schema", table)
	}

	if limit <= 0 {
		limit = defaultFetchLimit
	}
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), limit)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var records [][]string
	values := make([]interface{}, len(headers))
	ptrs := make([]interface{}, len(headers))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(headers))
		for i := range values {
			record[i] = cellFromSQL(values[i])
		}
		records = append(records, record)
	}
	return headers, records, rows.Err()
}

// cellFromSQL renders a scanned value the way it would appear in a CSV
// cell. SQL NULL becomes the empty string, which the loader reads as null.
func cellFromSQL(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
