package sqlite

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	pkgerrors "github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
)

const listTablesQuery = `
	SELECT name
	FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
	ORDER BY name
`

// metadataRepository implements repositories.MetadataRepository for SQLite.
type metadataRepository struct {
	conn   repositories.Connector
	logger zerolog.Logger
}

// NewMetadataRepository creates a new SQLite metadata repository.
func NewMetadataRepository(conn repositories.Connector, logger zerolog.Logger) repositories.MetadataRepository {
	return &metadataRepository{
		conn:   conn,
		logger: logger,
	}
}

// ListTables returns user table names, excluding SQLite internal tables.
func (r *metadataRepository) ListTables(ctx context.Context) ([]string, error) {
	r.logger.Debug().Msg("Listing tables")

	tables := make([]string, 0)
	err := r.conn.WithConnection(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, listTablesQuery)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to query tables")
			return queryError(ctx, err, "failed to query tables")
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to scan table row")
			}
			tables = append(tables, name)
		}
		if err := rows.Err(); err != nil {
			return queryError(ctx, err, "error iterating table rows")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// TableExists reports whether the table exists.
func (r *metadataRepository) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.conn.WithConnection(ctx, func(db *sql.DB) error {
		var n int
		if err := db.QueryRowContext(ctx,
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
		).Scan(&n); err != nil {
			return queryError(ctx, err, "failed to check table existence")
		}
		exists = n > 0
		return nil
	})
	return exists, err
}

// DescribeTable returns the create statement and columns of a table.
func (r *metadataRepository) DescribeTable(ctx context.Context, name string) (*models.TableSchema, error) {
	r.logger.Debug().Str("table", name).Msg("Describing table")

	var schema *models.TableSchema
	err := r.conn.WithConnection(ctx, func(db *sql.DB) error {
		var err error
		schema, err = describeTable(ctx, db, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("table", name).
		Int("columns", len(schema.Columns)).
		Msg("Table described")

	return schema, nil
}
