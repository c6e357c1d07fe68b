package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// SQLite reads a table from a SQLite database file. The file is opened
// read-only; a missing file is an error rather than a new empty database.
type SQLite struct{ cfg Config }

// NewSQLite returns a loader for cfg. DSN is a file path or a "file:" URI.
func NewSQLite(cfg Config) *SQLite { return &SQLite{cfg: cfg} }

// Load opens the database, reads the configured table and closes it again.
func (s *SQLite) Load(ctx context.Context) (records.Table, error) {
	if err := s.cfg.check("sqlite"); err != nil {
		return records.Table{}, err
	}

	db, err := sql.Open("sqlite", readOnlyDSN(s.cfg.DSN))
	if err != nil {
		return records.Table{}, fmt.Errorf("sqlite: open: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return records.Table{}, fmt.Errorf("sqlite: ping: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectQuery(s.cfg))
	if err != nil {
		return records.Table{}, fmt.Errorf("sqlite: query %s: %w", s.cfg.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return records.Table{}, fmt.Errorf("sqlite: columns: %w", err)
	}
	b := newBuilder(cols)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return records.Table{}, fmt.Errorf("sqlite: scan: %w", err)
		}
		b.add(vals)
	}
	if err := rows.Err(); err != nil {
		return records.Table{}, fmt.Errorf("sqlite: rows: %w", err)
	}
	return b.t, nil
}

// readOnlyDSN turns a plain path into a "file:" URI with mode=ro. DSNs that
// are already URIs, or in-memory databases, are left to the caller.
func readOnlyDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return dsn
	}
	path, query, _ := strings.Cut(dsn, "?")
	u := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	if query != "" {
		u += "&" + query
	}
	return u
}
