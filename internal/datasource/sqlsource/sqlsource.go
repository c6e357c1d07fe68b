// Package sqlsource loads survey responses that were already imported into a
// database table. SQLite goes through database/sql with the modernc driver;
// Postgres goes through a pgx pool.
package sqlsource

import (
	"fmt"
	"strings"
	"time"

	pcsv "github.com/EslamHany2002/Feedback-Report/internal/parser/csv"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Config selects the table and, optionally, the columns to read.
type Config struct {
	DSN     string
	Table   string   // optionally schema-qualified, e.g. "survey.responses"
	Columns []string // empty means every column
}

func (c Config) check(kind string) error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("%s: DSN must not be empty", kind)
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("%s: table must not be empty", kind)
	}
	return nil
}

// selectQuery builds SELECT <cols> FROM <table> with every identifier quoted.
// SQLite and Postgres share double-quote identifier syntax.
func selectQuery(cfg Config) string {
	cols := "*"
	if len(cfg.Columns) > 0 {
		quoted := make([]string, len(cfg.Columns))
		for i, c := range cfg.Columns {
			quoted[i] = ident(c)
		}
		cols = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", cols, fqn(cfg.Table))
}

func ident(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// fqn quotes a possibly schema-qualified name: survey.responses becomes
// "survey"."responses".
func fqn(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = ident(p)
	}
	return strings.Join(parts, ".")
}

// builder accumulates rows in the loaders' cell convention.
type builder struct {
	t records.Table
}

// newBuilder labels driver columns with the file loaders' header rules, so two
// columns that clean to the same label stay distinct.
func newBuilder(cols []string) *builder {
	return &builder{t: records.Table{Columns: pcsv.Headers(cols, nil)}}
}

func (b *builder) add(vals []any) {
	rec := make(records.Record, len(b.t.Columns))
	for i, c := range b.t.Columns {
		var v any
		if i < len(vals) {
			v = cell(vals[i])
		}
		rec[c] = v
	}
	b.t.Records = append(b.t.Records, rec)
}

// cell maps a driver value to a record cell: NULL and "" become nil, bytes
// become text, times become RFC 3339 text and numbers are kept typed.
func cell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if len(x) == 0 {
			return nil
		}
		return string(x)
	case string:
		if x == "" {
			return nil
		}
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return v
}
