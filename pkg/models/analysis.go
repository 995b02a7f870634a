package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisMode selects how much work an analysis does.
type AnalysisMode string

const (
	// AnalysisModeBasic computes counts, null counts and numeric summaries.
	AnalysisModeBasic AnalysisMode = "basic"
	// AnalysisModeDetailed additionally computes quartiles and categorical
	// frequency tables.
	AnalysisModeDetailed AnalysisMode = "detailed"
)

// ParseAnalysisMode parses a mode name. An empty string selects basic.
func ParseAnalysisMode(s string) (AnalysisMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AnalysisModeBasic):
		return AnalysisModeBasic, nil
	case string(AnalysisModeDetailed):
		return AnalysisModeDetailed, nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q (expected basic or detailed)", s)
	}
}

// ColumnKind is the resolved statistical kind of a column.
type ColumnKind int

const (
	// ColumnKindUnknown marks a numeric-affinity column with no non-null values.
	ColumnKindUnknown ColumnKind = iota
	// ColumnKindNumeric marks a column summarized with numeric statistics.
	ColumnKindNumeric
	// ColumnKindCategorical marks a column summarized with value frequencies.
	ColumnKindCategorical
)

// String returns the string representation of the column kind.
func (k ColumnKind) String() string {
	switch k {
	case ColumnKindNumeric:
		return "numeric"
	case ColumnKindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NumericStats summarizes the numeric values of one column. Nil fields are
// undefined (no values, or too few values for the statistic).
type NumericStats struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`

	// Count and quartiles are only computed in detailed mode.
	Count *int64   `json:"count,omitempty"`
	P25   *float64 `json:"p25,omitempty"`
	P50   *float64 `json:"p50,omitempty"`
	P75   *float64 `json:"p75,omitempty"`
}

// MarshalJSON encodes non-finite statistics the way rows encode them, so a
// column holding an infinity still produces a report.
func (s NumericStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean  interface{} `json:"mean"`
		Std   interface{} `json:"std"`
		Min   interface{} `json:"min"`
		Max   interface{} `json:"max"`
		Count *int64      `json:"count,omitempty"`
		P25   interface{} `json:"p25,omitempty"`
		P50   interface{} `json:"p50,omitempty"`
		P75   interface{} `json:"p75,omitempty"`
	}{
		Mean:  statValue(s.Mean),
		Std:   statValue(s.Std),
		Min:   statValue(s.Min),
		Max:   statValue(s.Max),
		Count: s.Count,
		P25:   statValue(s.P25),
		P50:   statValue(s.P50),
		P75:   statValue(s.P75),
	})
}

func statValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return jsonValue(*f)
}

// ValueFrequency is one entry of a categorical frequency table.
type ValueFrequency struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// AnalysisReport is the result of analyzing one table. It is computed fresh
// on every request.
type AnalysisReport struct {
	Table            string                      `json:"table"`
	Mode             AnalysisMode                `json:"mode"`
	RowCount         int64                       `json:"row_count"`
	ColumnCount      int                         `json:"column_count"`
	NullCounts       map[string]int64            `json:"null_counts"`
	ColumnKinds      map[string]ColumnKind       `json:"column_kinds"`
	NumericStats     map[string]NumericStats     `json:"numeric_stats"`
	CategoricalStats map[string][]ValueFrequency `json:"categorical_stats,omitempty"`
}
