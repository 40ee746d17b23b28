package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/chartboard/internal/dataset"
	"github.com/starford/chartboard/internal/models"
)

// SQL implements Provider by running a query against a database. The result
// columns become the dataset columns.
type SQL struct {
	conn   *sql.DB
	driver string
	query  string
}

// OpenSQL opens a connection with one of the registered drivers
// ("sqlite3", "postgres", "mysql") and checks it is reachable.
func OpenSQL(driver, dsn, query string) (*SQL, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", driver, err)
	}
	return &SQL{conn: conn, driver: driver, query: query}, nil
}

// Describe implements Provider.
func (s *SQL) Describe() string {
	return "sql:" + s.driver
}

// Close closes the underlying connection pool.
func (s *SQL) Close() error {
	return s.conn.Close()
}

// Load implements Provider.
func (s *SQL) Load(ctx context.Context) (*models.Dataset, error) {
	rows, err := s.conn.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("storage: columns: %w", err)
	}

	var cells [][]string
	scan := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range scan {
		dest[i] = &scan[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		row := make([]string, len(header))
		for i, v := range scan {
			// NULL becomes an empty cell, which reads back as missing.
			if v.Valid {
				row[i] = v.String
			}
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: rows: %w", err)
	}

	return dataset.FromRows(header, cells), nil
}
