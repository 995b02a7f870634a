package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
)

// tableRepository implements repositories.TableRepository for SQLite.
type tableRepository struct {
	conn   repositories.Connector
	logger zerolog.Logger
}

// NewTableRepository creates a new SQLite table repository.
func NewTableRepository(conn repositories.Connector, logger zerolog.Logger) repositories.TableRepository {
	return &tableRepository{
		conn:   conn,
		logger: logger,
	}
}

// LoadTable reads the schema and all rows inside one read transaction, so
// both describe the same state of the table.
func (r *tableRepository) LoadTable(ctx context.Context, name string) (*models.TableSnapshot, error) {
	r.logger.Debug().Str("table", name).Msg("Loading table")

	var snapshot *models.TableSnapshot
	err := r.conn.WithConnection(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return queryError(ctx, err, "failed to begin read transaction")
		}
		defer func() {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				r.logger.Warn().Err(rbErr).Msg("Failed to roll back read transaction")
			}
		}()

		schema, err := describeTable(ctx, tx, name)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, selectColumnsQuery(name, schema.ColumnNames()))
		if err != nil {
			return queryError(ctx, err, "failed to read table rows")
		}
		defer rows.Close()

		width := len(schema.Columns)
		data := make([][]interface{}, 0)
		for rows.Next() {
			values, err := scanRow(rows, width)
			if err != nil {
				return err
			}
			data = append(data, values)
		}
		if err := rows.Err(); err != nil {
			return queryError(ctx, err, "error iterating table rows")
		}

		snapshot = &models.TableSnapshot{Schema: *schema, Rows: data}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("table", name).
		Int("rows", len(snapshot.Rows)).
		Msg("Table loaded")

	return snapshot, nil
}

// selectColumnsQuery selects exactly the described columns so row width
// always matches the schema.
func selectColumnsQuery(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	return "SELECT " + strings.Join(quoted, ", ") + " FROM " + QuoteIdentifier(table)
}
