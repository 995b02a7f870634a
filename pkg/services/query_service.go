package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
)

// queryService implements QueryService interface.
type queryService struct {
	repo       repositories.QueryRepository
	logger     Logger
	metrics    MetricsCollector
	classifier *StatementClassifier
	maxRows    int64
}

// NewQueryService creates a new query service. A positive maxRows caps read
// results unless a request asks for fewer rows.
func NewQueryService(
	repo repositories.QueryRepository,
	maxRows int64,
	logger Logger,
	metrics MetricsCollector,
) QueryService {
	return &queryService{
		repo:       repo,
		logger:     logger,
		metrics:    metrics,
		classifier: NewStatementClassifier(),
		maxRows:    maxRows,
	}
}

// ExecuteQuery executes a read-only statement. Anything other than a single
// SELECT is rejected before the database is touched.
func (s *queryService) ExecuteQuery(ctx context.Context, req *models.QueryRequest) (*models.RowSet, error) {
	timer := s.metrics.StartTimer("query_execution")
	defer timer.Stop()

	if err := s.validateQueryRequest(req); err != nil {
		s.metrics.IncrementCounter("query_validation_errors")
		return nil, err
	}

	s.logger.Debug("Executing query", "query", req.Query, "params", len(req.Parameters))

	kind, err := s.classifier.Classify(req.Query)
	if err != nil {
		s.metrics.IncrementCounter("rejected_statements", "path", "query")
		s.logger.Warn("Statement rejected", "query", req.Query, "error", err)
		return nil, err
	}
	if kind != StatementKindRead {
		s.metrics.IncrementCounter("rejected_statements", "path", "query")
		s.logger.Warn("Write statement sent to read path", "query", req.Query)
		return nil, errors.New(errors.CodeUnsupportedStatement,
			"only SELECT statements can be run as queries; use update_data for INSERT, UPDATE or DELETE").
			WithDetail("kind", kind.String())
	}
	if err := s.classifier.Validate(req.Query); err != nil {
		s.metrics.IncrementCounter("query_validation_errors")
		return nil, err
	}

	queryCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.repo.ExecuteQuery(queryCtx, req.Query, s.rowLimit(req.MaxRows), req.Parameters...)
	executionTime := time.Since(start)

	if err != nil {
		s.metrics.IncrementCounter("query_execution_errors")
		s.logger.Error("Query execution failed",
			"error", err,
			"query", req.Query,
			"execution_time", executionTime)
		return nil, wrapQueryError(err)
	}

	result.ExecutionTime = executionTime

	s.metrics.IncrementCounter("successful_queries")
	s.metrics.RecordHistogram("query_result_rows", float64(result.RowCount))

	s.logger.Info("Query executed successfully",
		"query", req.Query,
		"rows", result.RowCount,
		"truncated", result.Truncated,
		"execution_time", executionTime)

	return result, nil
}

// ExecuteUpdate executes a single INSERT, UPDATE or DELETE.
func (s *queryService) ExecuteUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResult, error) {
	timer := s.metrics.StartTimer("update_execution")
	defer timer.Stop()

	if err := s.validateUpdateRequest(req); err != nil {
		s.metrics.IncrementCounter("update_validation_errors")
		return nil, err
	}

	s.logger.Debug("Executing update", "statement", req.Statement, "table", req.Table, "params", len(req.Parameters))

	kind, err := s.classifier.Classify(req.Statement)
	if err != nil {
		s.metrics.IncrementCounter("rejected_statements", "path", "update")
		s.logger.Warn("Statement rejected", "statement", req.Statement, "error", err)
		return nil, err
	}
	if kind != StatementKindWrite {
		s.metrics.IncrementCounter("rejected_statements", "path", "update")
		s.logger.Warn("Read statement sent to write path", "statement", req.Statement)
		return nil, errors.New(errors.CodeUnsupportedStatement,
			"only INSERT, UPDATE or DELETE statements can be run as updates; use query for SELECT").
			WithDetail("kind", kind.String())
	}
	if err := s.classifier.Validate(req.Statement); err != nil {
		s.metrics.IncrementCounter("update_validation_errors")
		return nil, err
	}

	updateCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		updateCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.repo.ExecuteUpdate(updateCtx, req.Statement, req.Parameters...)
	executionTime := time.Since(start)

	if err != nil {
		s.metrics.IncrementCounter("update_execution_errors")
		s.logger.Error("Update execution failed",
			"error", err,
			"statement", req.Statement,
			"execution_time", executionTime)
		return nil, wrapQueryError(err)
	}

	result.ExecutionTime = executionTime
	if result.RowsAffected == 0 || s.classifier.Analyze(req.Statement).Keyword != "INSERT" {
		result.LastInsertID = nil
	}

	s.metrics.IncrementCounter("successful_updates")
	s.metrics.RecordHistogram("update_affected_rows", float64(result.RowsAffected))

	s.logger.Info("Update executed successfully",
		"statement", req.Statement,
		"table", req.Table,
		"rows_affected", result.RowsAffected,
		"execution_time", executionTime)

	return result, nil
}

// ClassifyStatement reports how a statement would be routed.
func (s *queryService) ClassifyStatement(query string) StatementInfo {
	return s.classifier.Analyze(query)
}

// rowLimit combines the service cap with a request's own limit.
func (s *queryService) rowLimit(requested int64) int64 {
	switch {
	case requested <= 0:
		return s.maxRows
	case s.maxRows <= 0 || requested < s.maxRows:
		return requested
	default:
		return s.maxRows
	}
}

// validateQueryRequest validates a query request.
func (s *queryService) validateQueryRequest(req *models.QueryRequest) error {
	if req == nil {
		return errors.New(errors.CodeInvalidRequest, "query request cannot be nil")
	}
	if req.MaxRows < 0 {
		return errors.New(errors.CodeInvalidRequest, "max_rows cannot be negative")
	}
	if req.Timeout < 0 {
		return errors.New(errors.CodeInvalidRequest, "timeout cannot be negative")
	}
	return nil
}

// validateUpdateRequest validates an update request.
func (s *queryService) validateUpdateRequest(req *models.UpdateRequest) error {
	if req == nil {
		return errors.New(errors.CodeInvalidRequest, "update request cannot be nil")
	}
	if req.Timeout < 0 {
		return errors.New(errors.CodeInvalidRequest, "timeout cannot be negative")
	}
	return nil
}

// wrapQueryError maps engine failures onto error codes. Engine messages are
// matched as text so both SQLite drivers map the same way; the original
// engine error is kept as the cause.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.HasCode(err, errors.CodeConnectionFailed) ||
		errors.HasCode(err, errors.CodeTableNotFound) {
		return err
	}
	if errors.HasCode(err, errors.CodeDeadlineExceeded) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled) {
		return errors.Wrap(rootCause(err), errors.CodeDeadlineExceeded, "query timed out or was cancelled")
	}

	cause := rootCause(err)
	msg := strings.ToLower(cause.Error())

	switch {
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "incomplete input"),
		strings.Contains(msg, "unrecognized token"):
		return errors.Wrap(cause, errors.CodeSyntaxError, "SQL syntax error")
	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"):
		return errors.Wrap(cause, errors.CodeQueryFailed, "query references an unknown table or column")
	case strings.Contains(msg, "constraint failed"):
		return errors.Wrap(cause, errors.CodeQueryFailed, "constraint violation")
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database is busy"):
		return errors.Wrap(cause, errors.CodeQueryFailed, "database is locked")
	default:
		return errors.Wrap(cause, errors.CodeQueryFailed, "query failed")
	}
}

// rootCause follows Cause links through coded errors to the engine error.
func rootCause(err error) error {
	for {
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Cause == nil {
			return err
		}
		err = e.Cause
	}
}
