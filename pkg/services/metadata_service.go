package services

import (
	"context"
	"strings"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
)

// metadataService implements MetadataService interface.
type metadataService struct {
	repo    repositories.MetadataRepository
	logger  Logger
	metrics MetricsCollector
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(
	repo repositories.MetadataRepository,
	logger Logger,
	metrics MetricsCollector,
) MetadataService {
	return &metadataService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// ListTables returns the names of all user tables.
func (s *metadataService) ListTables(ctx context.Context) ([]string, error) {
	timer := s.metrics.StartTimer("metadata_list_tables")
	defer timer.Stop()

	s.logger.Debug("Listing tables")

	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		s.metrics.IncrementCounter("metadata_errors", "operation", "list_tables")
		s.logger.Error("Failed to list tables", "error", err)
		return nil, wrapMetadataError(err, "failed to list tables")
	}

	s.metrics.RecordGauge("table_count", float64(len(tables)))
	s.logger.Info("Retrieved tables", "count", len(tables))

	return tables, nil
}

// DescribeTable returns the schema of one table.
func (s *metadataService) DescribeTable(ctx context.Context, table string) (*models.TableSchema, error) {
	timer := s.metrics.StartTimer("metadata_describe_table")
	defer timer.Stop()

	if err := validateTableName(table); err != nil {
		s.metrics.IncrementCounter("metadata_errors", "operation", "describe_table")
		return nil, err
	}

	s.logger.Debug("Describing table", "table", table)

	schema, err := s.repo.DescribeTable(ctx, table)
	if err != nil {
		s.metrics.IncrementCounter("metadata_errors", "operation", "describe_table")
		if errors.IsNotFound(err) {
			s.logger.Warn("Table not found", "table", table)
			return nil, err
		}
		s.logger.Error("Failed to describe table", "error", err, "table", table)
		return nil, wrapMetadataError(err, "failed to describe table")
	}

	s.logger.Info("Described table", "table", table, "columns", len(schema.Columns))

	return schema, nil
}

// TableExists reports whether the table exists.
func (s *metadataService) TableExists(ctx context.Context, table string) (bool, error) {
	if err := validateTableName(table); err != nil {
		return false, err
	}

	exists, err := s.repo.TableExists(ctx, table)
	if err != nil {
		s.metrics.IncrementCounter("metadata_errors", "operation", "table_exists")
		s.logger.Error("Failed to check table", "error", err, "table", table)
		return false, wrapMetadataError(err, "failed to check table existence")
	}
	return exists, nil
}

func validateTableName(table string) error {
	if strings.TrimSpace(table) == "" {
		return errors.ErrInvalidRequest.WithDetail("table", "cannot be empty")
	}
	return nil
}

// wrapMetadataError keeps coded errors as they are and gives uncoded ones
// the internal code.
func wrapMetadataError(err error, message string) error {
	if errors.GetCode(err) != errors.CodeInternal {
		return err
	}
	return errors.Wrap(err, errors.CodeInternal, message)
}
