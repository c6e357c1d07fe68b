package sqlsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Postgres reads a table through a pgx connection pool.
type Postgres struct{ cfg Config }

func NewPostgres(cfg Config) *Postgres { return &Postgres{cfg: cfg} }

// Load connects, reads the configured table and closes the pool.
func (p *Postgres) Load(ctx context.Context) (records.Table, error) {
	if err := p.cfg.check("postgres"); err != nil {
		return records.Table{}, err
	}

	pool, err := pgxpool.New(ctx, p.cfg.DSN)
	if err != nil {
		return records.Table{}, fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, selectQuery(p.cfg))
	if err != nil {
		return records.Table{}, fmt.Errorf("postgres: query %s: %w", p.cfg.Table, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	b := newBuilder(cols)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return records.Table{}, fmt.Errorf("postgres: values: %w", err)
		}
		for i, v := range vals {
			vals[i] = pgValue(v)
		}
		b.add(vals)
	}
	if err := rows.Err(); err != nil {
		return records.Table{}, fmt.Errorf("postgres: rows: %w", err)
	}
	return b.t, nil
}

// pgValue turns NUMERIC values into float64 so ratings stored as numeric(3,1)
// coerce like any other number. Anything else passes through.
func pgValue(v any) any {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	if !n.Valid {
		return nil
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}
