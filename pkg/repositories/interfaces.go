// Package repositories defines interfaces for data access operations.
package repositories

import (
	"context"
	"database/sql"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
)

// Connector hands out exclusive use of the database handle.
type Connector interface {
	// WithConnection runs fn with the handle. The handle must not be
	// retained after fn returns.
	WithConnection(ctx context.Context, fn func(db *sql.DB) error) error
}

// QueryRepository defines statement execution.
type QueryRepository interface {
	// ExecuteQuery runs a read statement inside a transaction that is always
	// rolled back. A positive maxRows caps the materialized rows.
	ExecuteQuery(ctx context.Context, query string, maxRows int64, args ...interface{}) (*models.RowSet, error)
	// ExecuteUpdate runs a write statement in its own transaction, committing
	// on success and rolling back on any failure.
	ExecuteUpdate(ctx context.Context, statement string, args ...interface{}) (*models.UpdateResult, error)
}

// MetadataRepository defines catalog operations.
type MetadataRepository interface {
	// ListTables returns user table names in name order.
	ListTables(ctx context.Context) ([]string, error)
	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, name string) (bool, error)
	// DescribeTable returns the schema of a table.
	DescribeTable(ctx context.Context, name string) (*models.TableSchema, error)
}

// TableRepository loads whole tables for analysis.
type TableRepository interface {
	// LoadTable reads the schema and every row of a table from one snapshot.
	LoadTable(ctx context.Context, name string) (*models.TableSnapshot, error)
}
