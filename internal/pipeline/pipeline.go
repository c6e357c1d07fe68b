// Package pipeline runs one report pass: open the configured source, load the
// export into a table, aggregate it and publish run metrics.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/datasource"
	"github.com/EslamHany2002/Feedback-Report/internal/datasource/file"
	"github.com/EslamHany2002/Feedback-Report/internal/datasource/httpds"
	"github.com/EslamHany2002/Feedback-Report/internal/datasource/sqlsource"
	"github.com/EslamHany2002/Feedback-Report/internal/export"
	"github.com/EslamHany2002/Feedback-Report/internal/metrics"
	"github.com/EslamHany2002/Feedback-Report/internal/parser"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Result is the outcome of one run. Poor holds the rows behind
// Report.PoorFeedbackCount; they are served separately and left out of the
// report JSON.
type Result struct {
	RunID    string            `json:"run_id"`
	Job      string            `json:"job"`
	Columns  []string          `json:"columns"`
	Rows     int               `json:"rows"`
	Skipped  int               `json:"skipped"`
	Report   *aggregate.Report `json:"report"`
	Poor     []records.Record  `json:"-"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
}

// Run executes load and aggregate for cfg. cfg should already have defaults
// applied and passed validation. Aggregation warnings are logged, not
// returned.
func Run(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Job: cfg.Job, Started: time.Now()}
	log = log.WithFields(logrus.Fields{"job": cfg.Job, "run_id": res.RunID})

	start := time.Now()
	tb, skipped, err := Load(ctx, cfg, log)
	metrics.RecordStep(cfg.Job, "load", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	res.Columns, res.Rows, res.Skipped = tb.Columns, tb.Len(), skipped
	metrics.RecordRow(cfg.Job, "loaded", int64(tb.Len()))
	metrics.RecordRow(cfg.Job, "skipped", int64(skipped))
	log.WithFields(logrus.Fields{"rows": tb.Len(), "skipped": skipped, "columns": len(tb.Columns)}).
		Info("export loaded")

	start = time.Now()
	poor := aggregate.NewRatingSet(cfg.PoorRatings...)
	report, err := aggregate.AggregateSharded(ctx, tb, cfg.Mapping, poor, cfg.Runtime.Shards)
	metrics.RecordStep(cfg.Job, "aggregate", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.Report = report
	if res.Poor, err = aggregate.PoorFeedback(tb, cfg.Mapping, poor); err != nil {
		return nil, fmt.Errorf("poor feedback: %w", err)
	}

	s := report.Summary
	metrics.RecordRow(cfg.Job, "unclassified", int64(s.Unclassified))
	metrics.RecordRow(cfg.Job, "missing_status", int64(s.MissingStatus))
	metrics.RecordRow(cfg.Job, "missing_rating", int64(s.MissingRating))
	metrics.RecordRow(cfg.Job, "warnings", int64(len(report.Warnings)))
	metrics.RecordReport(cfg.Job, export.SummaryValues(s))

	for _, w := range report.Warnings {
		log.WithFields(logrus.Fields{"code": w.Code, "value": w.Value}).Warn(w.Message)
	}

	res.Duration = time.Since(res.Started)
	log.WithFields(logrus.Fields{
		"groups":        s.TotalGroups,
		"poor_feedback": s.PoorFeedback,
		"duration":      res.Duration.Truncate(time.Millisecond),
	}).Info("report ready")
	return res, nil
}

// Load reads the configured export into a table. The int result is the number
// of unreadable rows the parser dropped.
func Load(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (records.Table, int, error) {
	switch cfg.Source.Kind {
	case "sqlite", "postgres":
		ts, err := tableSource(cfg.Source)
		if err != nil {
			return records.Table{}, 0, err
		}
		tb, err := ts.Load(ctx)
		return tb, 0, err
	}

	src, err := byteSource(cfg.Source, log)
	if err != nil {
		return records.Table{}, 0, err
	}
	p, err := parser.New(cfg.Parser, log)
	if err != nil {
		return records.Table{}, 0, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return records.Table{}, 0, err
	}
	defer rc.Close()

	return p.Parse(rc)
}

func byteSource(s config.Source, log logrus.FieldLogger) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		c := httpds.NewClient(httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
			Logger:     log,
		})
		return httpds.NewSource(c, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", s.Kind)
	}
}

func tableSource(s config.Source) (datasource.TableSource, error) {
	cfg := sqlsource.Config{DSN: s.DB.DSN, Table: s.DB.Table, Columns: s.DB.Columns}
	switch s.Kind {
	case "sqlite":
		return sqlsource.NewSQLite(cfg), nil
	case "postgres":
		return sqlsource.NewPostgres(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", s.Kind)
	}
}
