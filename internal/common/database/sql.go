// internal/common/database/sql.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"retention-engine/internal/common/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLClient wraps the database connection for whichever driver the DSN
// selected.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// NewSQL opens the customer data source. The DSN scheme picks the driver:
// postgres:// uses lib/pq directly, mysql:// is rewritten to the
// go-sql-driver DSN form (user:pass@tcp(host:port)/db).
func NewSQL(cfg config.SourceConfig) (*SQLClient, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if driver == "mysql" {
		dsn, err = mysqlDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLClient{DB: db, Driver: driver}, nil
}

// mysqlDSN converts a mysql:// URL into the driver's native DSN format.
func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Host
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql dsn is missing a database name")
	}

	params := u.RawQuery
	if params == "" {
		params = "parseTime=true"
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s", user, pass, host, dbName, params), nil
}

// Ping tests the database connection.
func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection.
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Query executes a query that returns rows.
func (c *SQLClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row.
func (c *SQLClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (c *SQLClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}
