// Package models provides data structures used throughout the SQLite explorer.
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// QueryRequest represents a read query execution request.
type QueryRequest struct {
	Query      string        `json:"query"`
	Parameters []interface{} `json:"parameters,omitempty"`
	MaxRows    int64         `json:"max_rows,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
}

// UpdateRequest represents a write statement execution request.
type UpdateRequest struct {
	Statement  string        `json:"statement"`
	Parameters []interface{} `json:"parameters,omitempty"`
	// Table is the caller's stated target table. It is informational only.
	Table   string        `json:"table,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Row is one result row: an ordered mapping from column name to scalar value.
type Row struct {
	columns []string
	values  []interface{}
}

// NewRow creates a row. columns and values must have the same length.
func NewRow(columns []string, values []interface{}) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string {
	return r.columns
}

// Values returns the values in column order.
func (r Row) Values() []interface{} {
	return r.values
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.values)
}

// Get returns the value of the first column with the given name.
func (r Row) Get(column string) (interface{}, bool) {
	for i, name := range r.columns {
		if name == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the row as an unordered map. Duplicate column names keep the
// first value.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.columns))
	for i, name := range r.columns {
		if _, exists := m[name]; !exists {
			m[name] = r.values[i]
		}
	}
	return m
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(jsonValue(r.values[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue replaces floats JSON cannot represent. Infinities become the
// strings "Infinity" and "-Infinity"; NaN becomes null.
func jsonValue(v interface{}) interface{} {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return v
	}
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return nil
	}
	return v
}

// RowSet represents the materialized result of a read query.
type RowSet struct {
	Columns       []string      `json:"columns"`
	Rows          []Row         `json:"rows"`
	RowCount      int64         `json:"row_count"`
	Truncated     bool          `json:"truncated,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// UpdateResult represents the result of a write statement.
type UpdateResult struct {
	RowsAffected int64 `json:"rows_affected"`
	// LastInsertID is set for INSERT statements only.
	LastInsertID  *int64        `json:"last_insert_id,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}
