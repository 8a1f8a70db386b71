package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyBatch is returned by Build when no rows were added.
var ErrEmptyBatch = errors.New("batch insert has no rows")

// BatchInsert builds a single multi-row INSERT statement with positional
// placeholders.  Rows are appended with Add; Build returns the statement
// and the flattened argument list in row order.
type BatchInsert struct {
	table   string
	columns []string
	rows    int
	args    []any
}

// NewBatchInsert starts a batch for table with the given column order.
func NewBatchInsert(table string, columns ...string) *BatchInsert {
	return &BatchInsert{table: table, columns: columns}
}

// Add appends one row.  The number of values must match the column count.
func (b *BatchInsert) Add(values ...any) error {
	if len(values) != len(b.columns) {
		return fmt.Errorf("batch insert into %s: got %d values for %d columns", b.table, len(values), len(b.columns))
	}
	b.args = append(b.args, values...)
	b.rows++
	return nil
}

// Len reports the number of rows added so far.
func (b *BatchInsert) Len() int { return b.rows }

// Build renders the statement.
func (b *BatchInsert) Build() (string, []any, error) {
	if b.rows == 0 {
		return "", nil, ErrEmptyBatch
	}
	row := "(" + placeholders(len(b.columns)) + ")"
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(") VALUES ")
	for i := 0; i < b.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
	}
	return sb.String(), b.args, nil
}

// InClause returns "(?, ?, ...)" with n placeholders for use in IN filters.
func InClause(n int) string {
	return "(" + placeholders(n) + ")"
}

// StringArgs converts a string slice into driver arguments.
func StringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
