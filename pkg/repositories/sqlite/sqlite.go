// Package sqlite provides SQLite repository implementations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	pkgerrors "github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// QuoteIdentifier quotes name for use as an SQLite identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

const createStatementQuery = `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`

// describeTable looks the table up with a bound parameter before anything
// interpolates its name.
func describeTable(ctx context.Context, q queryer, name string) (*models.TableSchema, error) {
	var createStmt sql.NullString
	err := q.QueryRowContext(ctx, createStatementQuery, name).Scan(&createStmt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrTableNotFound.WithDetail("table", name)
	}
	if err != nil {
		return nil, queryError(ctx, err, "failed to look up table")
	}

	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+QuoteIdentifier(name)+")")
	if err != nil {
		return nil, queryError(ctx, err, "failed to read table columns")
	}
	defer rows.Close()

	schema := &models.TableSchema{
		Name:            name,
		CreateStatement: createStmt.String,
	}
	for rows.Next() {
		var (
			col models.ColumnDescriptor
			pk  int
			nn  int
		)
		if err := rows.Scan(&col.Position, &col.Name, &col.Type, &nn, &col.DefaultValue, &pk); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to scan column info")
		}
		col.NotNull = nn != 0
		col.PrimaryKey = pk > 0
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, err, "error iterating column info")
	}

	return schema, nil
}

// scanRow reads the current row into a fresh value slice.
func scanRow(rows *sql.Rows, width int) ([]interface{}, error) {
	values := make([]interface{}, width)
	ptrs := make([]interface{}, width)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to scan row")
	}
	return values, nil
}

// queryError wraps an engine error. If the context expired the error keeps
// the context error in its chain so the connection manager drops the handle.
func queryError(ctx context.Context, err error, message string) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return pkgerrors.Wrap(ctxErr, pkgerrors.CodeDeadlineExceeded, message).
			WithDetail("engine_error", err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(err, pkgerrors.CodeDeadlineExceeded, message)
	}
	var e *pkgerrors.Error
	if errors.As(err, &e) {
		return err
	}
	return pkgerrors.Wrap(err, pkgerrors.CodeQueryFailed, message)
}
