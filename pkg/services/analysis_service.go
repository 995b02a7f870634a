package services

import (
	"context"
	"strings"
	"time"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories"
	"github.com/mekanixms/sqlite-mcp-server/pkg/stats"
)

// topValues is the size of each categorical frequency table.
const topValues = 10

// analysisService implements AnalysisService interface.
type analysisService struct {
	repo    repositories.TableRepository
	logger  Logger
	metrics MetricsCollector
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	repo repositories.TableRepository,
	logger Logger,
	metrics MetricsCollector,
) AnalysisService {
	return &analysisService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// AnalyzeTable profiles every column of a table. All statistics come from a
// single snapshot of the table.
func (s *analysisService) AnalyzeTable(ctx context.Context, table string, mode models.AnalysisMode) (*models.AnalysisReport, error) {
	timer := s.metrics.StartTimer("analysis_execution")
	defer timer.Stop()

	if err := validateTableName(table); err != nil {
		s.metrics.IncrementCounter("analysis_validation_errors")
		return nil, err
	}
	parsed, err := models.ParseAnalysisMode(string(mode))
	if err != nil {
		s.metrics.IncrementCounter("analysis_validation_errors")
		return nil, errors.Wrap(err, errors.CodeInvalidRequest, "invalid analysis type").
			WithDetail("analysis_type", string(mode))
	}
	mode = parsed

	s.logger.Debug("Analyzing table", "table", table, "mode", mode)

	start := time.Now()
	snapshot, err := s.repo.LoadTable(ctx, table)
	if err != nil {
		s.metrics.IncrementCounter("analysis_errors")
		if errors.IsNotFound(err) {
			s.logger.Warn("Table not found", "table", table)
			return nil, err
		}
		s.logger.Error("Failed to load table", "error", err, "table", table)
		return nil, wrapQueryError(err)
	}

	report := AnalyzeSnapshot(snapshot, mode)

	s.metrics.IncrementCounter("successful_analyses", "mode", string(mode))
	s.metrics.RecordHistogram("analysis_rows", float64(report.RowCount))

	s.logger.Info("Table analyzed",
		"table", table,
		"mode", mode,
		"rows", report.RowCount,
		"columns", report.ColumnCount,
		"execution_time", time.Since(start))

	return report, nil
}

// AnalyzeSnapshot computes the analysis report for an already loaded table.
func AnalyzeSnapshot(snapshot *models.TableSnapshot, mode models.AnalysisMode) *models.AnalysisReport {
	columns := snapshot.Schema.Columns

	report := &models.AnalysisReport{
		Table:        snapshot.Schema.Name,
		Mode:         mode,
		RowCount:     int64(len(snapshot.Rows)),
		ColumnCount:  len(columns),
		NullCounts:   make(map[string]int64, len(columns)),
		ColumnKinds:  make(map[string]models.ColumnKind, len(columns)),
		NumericStats: make(map[string]models.NumericStats),
	}
	if mode == models.AnalysisModeDetailed {
		report.CategoricalStats = make(map[string][]models.ValueFrequency)
	}

	for i, col := range columns {
		values := make([]interface{}, 0, len(snapshot.Rows))
		var nulls int64
		for _, row := range snapshot.Rows {
			if i >= len(row) || row[i] == nil {
				nulls++
				continue
			}
			values = append(values, row[i])
		}
		report.NullCounts[col.Name] = nulls

		kind := ResolveColumnKind(col.Type, values)
		report.ColumnKinds[col.Name] = kind

		switch kind {
		case models.ColumnKindNumeric:
			report.NumericStats[col.Name] = numericStats(values, mode)
		case models.ColumnKindUnknown:
			report.NumericStats[col.Name] = models.NumericStats{}
		case models.ColumnKindCategorical:
			if mode == models.AnalysisModeDetailed {
				report.CategoricalStats[col.Name] = frequencies(values)
			}
		}
	}

	return report
}

// ResolveColumnKind decides how a column is summarized from its declared
// type and its non-null values.
func ResolveColumnKind(declaredType string, values []interface{}) models.ColumnKind {
	affinity := stats.ColumnAffinity(declaredType)

	if affinity.IsNumeric() {
		if len(values) == 0 {
			return models.ColumnKindUnknown
		}
		for _, v := range values {
			if _, ok := stats.ToFloat(v); ok {
				return models.ColumnKindNumeric
			}
		}
		return models.ColumnKindCategorical
	}

	// Undeclared columns are numeric when every stored value is.
	if strings.TrimSpace(declaredType) == "" && len(values) > 0 {
		for _, v := range values {
			if _, ok := stats.ToFloat(v); !ok {
				return models.ColumnKindCategorical
			}
		}
		return models.ColumnKindNumeric
	}

	return models.ColumnKindCategorical
}

// numericStats summarizes the values that parse as numbers; the rest are
// left out rather than coerced.
func numericStats(values []interface{}, mode models.AnalysisMode) models.NumericStats {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := stats.ToFloat(v); ok {
			xs = append(xs, f)
		}
	}

	var ns models.NumericStats
	if mode == models.AnalysisModeDetailed {
		n := int64(len(xs))
		ns.Count = &n
	}
	if len(xs) == 0 {
		return ns
	}

	mean := stats.Mean(xs)
	lo, hi := stats.MinMax(xs)
	ns.Mean, ns.Min, ns.Max = &mean, &lo, &hi
	if std, ok := stats.SampleStd(xs); ok {
		ns.Std = &std
	}

	if mode == models.AnalysisModeDetailed {
		sorted := stats.Sorted(xs)
		p25 := stats.Quantile(sorted, 0.25)
		p50 := stats.Quantile(sorted, 0.5)
		p75 := stats.Quantile(sorted, 0.75)
		ns.P25, ns.P50, ns.P75 = &p25, &p50, &p75
	}
	return ns
}

func frequencies(values []interface{}) []models.ValueFrequency {
	counter := stats.NewCounter()
	for _, v := range values {
		counter.Add(stats.FormatValue(v))
	}

	top := counter.Top(topValues)
	out := make([]models.ValueFrequency, len(top))
	for i, f := range top {
		out[i] = models.ValueFrequency{Value: f.Value, Count: f.Count}
	}
	return out
}
