package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
)

// queryRepository implements repositories.QueryRepository for SQLite.
type queryRepository struct {
	conn   repositories.Connector
	logger zerolog.Logger
}

// NewQueryRepository creates a new SQLite query repository.
func NewQueryRepository(conn repositories.Connector, logger zerolog.Logger) repositories.QueryRepository {
	return &queryRepository{
		conn:   conn,
		logger: logger,
	}
}

// ExecuteQuery executes a read statement and materializes its rows. The
// enclosing transaction is always rolled back.
func (r *queryRepository) ExecuteQuery(ctx context.Context, query string, maxRows int64, args ...interface{}) (*models.RowSet, error) {
	r.logger.Debug().
		Str("query", query).
		Int("args_count", len(args)).
		Int64("max_rows", maxRows).
		Msg("Executing query")

	start := time.Now()
	var result *models.RowSet

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

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return queryError(ctx, err, "failed to execute query")
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return queryError(ctx, err, "failed to read result columns")
		}

		rs := &models.RowSet{
			Columns: columns,
			Rows:    make([]models.Row, 0),
		}
		for rows.Next() {
			if maxRows > 0 && rs.RowCount >= maxRows {
				rs.Truncated = true
				break
			}
			values, err := scanRow(rows, len(columns))
			if err != nil {
				return err
			}
			rs.Rows = append(rs.Rows, models.NewRow(columns, values))
			rs.RowCount++
		}
		if err := rows.Err(); err != nil {
			return queryError(ctx, err, "error iterating query results")
		}

		result = rs
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.ExecutionTime = time.Since(start)

	r.logger.Debug().
		Int64("rows", result.RowCount).
		Bool("truncated", result.Truncated).
		Dur("execution_time", result.ExecutionTime).
		Msg("Query executed successfully")

	return result, nil
}

// ExecuteUpdate executes a write statement in its own transaction.
func (r *queryRepository) ExecuteUpdate(ctx context.Context, statement string, args ...interface{}) (*models.UpdateResult, error) {
	r.logger.Debug().
		Str("statement", statement).
		Int("args_count", len(args)).
		Msg("Executing update")

	start := time.Now()
	var result *models.UpdateResult

	err := r.conn.WithConnection(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return queryError(ctx, err, "failed to begin write transaction")
		}

		res, err := tx.ExecContext(ctx, statement, args...)
		if err != nil {
			r.rollback(tx)
			return queryError(ctx, err, "failed to execute update")
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			r.rollback(tx)
			return pkgerrors.Wrap(err, pkgerrors.CodeQueryFailed, "failed to get rows affected")
		}

		ur := &models.UpdateResult{RowsAffected: rowsAffected}
		// With no rows inserted SQLite reports the previous statement's rowid.
		if rowsAffected > 0 {
			if id, err := res.LastInsertId(); err == nil {
				ur.LastInsertID = &id
			}
		}

		if err := tx.Commit(); err != nil {
			return queryError(ctx, err, "failed to commit update")
		}

		result = ur
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.ExecutionTime = time.Since(start)

	r.logger.Debug().
		Int64("rows_affected", result.RowsAffected).
		Dur("execution_time", result.ExecutionTime).
		Msg("Update executed successfully")

	return result, nil
}

func (r *queryRepository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		r.logger.Error().Err(err).Msg("Failed to roll back write transaction")
	}
}
