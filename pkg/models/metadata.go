package models

import (
	"database/sql"
	"encoding/json"
)

// TableSchema describes one table as recorded in the database catalog.
type TableSchema struct {
	Name            string             `json:"name"`
	CreateStatement string             `json:"create_statement"`
	Columns         []ColumnDescriptor `json:"columns"`
}

// ColumnNames returns the column names in declaration order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnDescriptor represents a table column.
type ColumnDescriptor struct {
	Position     int            `json:"position"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	NotNull      bool           `json:"not_null"`
	PrimaryKey   bool           `json:"primary_key"`
	DefaultValue sql.NullString `json:"-"`
}

// MarshalJSON flattens DefaultValue into a nullable string.
func (c ColumnDescriptor) MarshalJSON() ([]byte, error) {
	type alias ColumnDescriptor
	var def *string
	if c.DefaultValue.Valid {
		def = &c.DefaultValue.String
	}
	return json.Marshal(struct {
		alias
		DefaultValue *string `json:"default_value"`
	}{alias: alias(c), DefaultValue: def})
}

// TableSnapshot is a table's schema plus all of its rows, read together in
// one transaction. Row values are in schema column order.
type TableSnapshot struct {
	Schema TableSchema
	Rows   [][]interface{}
}
