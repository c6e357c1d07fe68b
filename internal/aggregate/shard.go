package aggregate

import (
	"context"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// AggregateSharded partitions rows by a hash of their group cell, aggregates
// each partition concurrently and merges the partials. The result equals
// Aggregate over the whole table. shards <= 1 runs Aggregate directly.
func AggregateSharded(ctx context.Context, t records.Table, mapping config.ColumnMapping, poor RatingSet, shards int) (*Report, error) {
	if shards <= 1 || len(t.Records) < shards {
		return Aggregate(t, mapping, poor)
	}
	b, err := bind(t.Columns, mapping)
	if err != nil {
		return nil, err
	}

	parts := make([][]records.Record, shards)
	for _, rec := range t.Records {
		g, _ := text(rec[b.group])
		i := xxh3.HashString(g) % uint64(shards)
		parts[i] = append(parts[i], rec)
	}

	partials := make([]*Report, shards)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(shards)
	for i := range parts {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = aggregateBound(b, parts[i], poor)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return Merge(partials...), nil
}
