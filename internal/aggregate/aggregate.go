// Package aggregate turns a loaded survey export into the metrics every
// dashboard view consumes: status-by-group contingency tables, evidence
// ratios for solved rows, the rating histogram, poor-feedback counts,
// instructor clarity averages and a flat summary.
//
// Aggregate is a pure, one-shot function of its inputs. It never mutates the
// table, never fails on a malformed cell (bad numbers become "missing",
// unknown statuses become "unclassified") and only returns an error when the
// column mapping cannot be bound to the table.
package aggregate

import (
	"fmt"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/header"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// ConfigError reports a logical field that cannot be bound to a column.
type ConfigError struct {
	Field  string // logical field, e.g. "status"
	Column string // configured label, empty when unbound
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("aggregate: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("aggregate: field %q (column %q): %s", e.Field, e.Column, e.Reason)
}

// RatingSet is the set of rating values considered poor.
type RatingSet map[float64]struct{}

// NewRatingSet builds a RatingSet from values.
func NewRatingSet(values ...float64) RatingSet {
	s := make(RatingSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set.
func (s RatingSet) Contains(v float64) bool {
	_, ok := s[v]
	return ok
}

// binding holds the resolved physical column for each logical field. Optional
// fields are "" when unbound.
type binding struct {
	group, status, rating, evidence string
	clarity, instructor             string
}

func bind(columns []string, m config.ColumnMapping) (binding, error) {
	var b binding
	fields := []struct {
		name     string
		label    string
		required bool
		dst      *string
	}{
		{"group", m.Group, true, &b.group},
		{"status", m.Status, true, &b.status},
		{"rating", m.Rating, true, &b.rating},
		{"evidence", m.Evidence, true, &b.evidence},
		{"clarity", m.Clarity, false, &b.clarity},
		{"instructor", m.Instructor, false, &b.instructor},
	}
	for _, f := range fields {
		if header.Clean(f.label) == "" {
			if f.required {
				return binding{}, &ConfigError{Field: f.name, Reason: "no column bound"}
			}
			continue
		}
		col, ok, ambiguous := header.Match(columns, f.label)
		switch {
		case ambiguous:
			return binding{}, &ConfigError{Field: f.name, Column: f.label, Reason: "matches more than one column"}
		case !ok:
			return binding{}, &ConfigError{Field: f.name, Column: f.label, Reason: "not present in the input columns"}
		}
		*f.dst = col
	}
	return b, nil
}

// Aggregate computes a Report over every row of t. mapping binds logical
// fields to t's columns; poor lists the ratings counted as poor feedback.
//
// A *ConfigError is returned when a required field (group, status, rating,
// evidence) is unbound, or when any bound label is missing from t.Columns.
func Aggregate(t records.Table, mapping config.ColumnMapping, poor RatingSet) (*Report, error) {
	b, err := bind(t.Columns, mapping)
	if err != nil {
		return nil, err
	}
	return aggregateBound(b, t.Records, poor), nil
}

func aggregateBound(b binding, rows []records.Record, poor RatingSet) *Report {
	r := newReport()
	for _, rec := range rows {
		r.observe(b, rec, poor)
	}
	r.finalize()
	return r
}

// observe folds one row into the tallies.
func (r *Report) observe(b binding, rec records.Record, poor RatingSet) {
	r.Summary.TotalRows++

	group, hasGroup := text(rec[b.group])
	status, hasStatus := NormalizeStatus(rec[b.status])
	rating, hasRating := ToNumber(rec[b.rating])
	evidence := !EvidenceEmpty(rec[b.evidence])
	known := hasStatus && IsKnownStatus(status)

	if hasGroup {
		r.Groups[group]++
	}
	if hasStatus {
		r.Statuses[status]++
	} else {
		r.Summary.MissingStatus++
	}
	if known && hasGroup {
		r.StatusByGroup.add(group, status, 1)
	}

	if status == StatusSolved {
		if evidence {
			r.Links.HasLink++
		} else {
			r.Links.NoLink++
		}
	}

	if hasRating {
		r.Ratings[rating]++
	} else {
		r.Summary.MissingRating++
	}
	if evidence {
		r.Summary.EvidenceCount++
	}

	if hasRating && poor.Contains(rating) {
		if known {
			r.PoorFeedbackCount++
			if status == StatusSolved {
				r.SolvedPoorCount++
			}
		}
		if evidence {
			r.LinksAmongPoorCount++
		}
	}

	if b.instructor == "" {
		return
	}
	inst, ok := text(rec[b.instructor])
	if !ok {
		return
	}
	if hasGroup {
		r.InstructorGroups.add(inst, group, 1)
	}
	if b.clarity == "" {
		return
	}
	if c, ok := ToNumber(rec[b.clarity]); ok {
		st := r.InstructorClarity[inst]
		st.Sum += c
		st.Count++
		r.InstructorClarity[inst] = st
	}
}

// PoorFeedback returns the rows whose status is recognized and whose rating is
// in poor. The returned slice references t's records; they are not copied.
func PoorFeedback(t records.Table, mapping config.ColumnMapping, poor RatingSet) ([]records.Record, error) {
	b, err := bind(t.Columns, mapping)
	if err != nil {
		return nil, err
	}
	var out []records.Record
	for _, rec := range t.Records {
		status, ok := NormalizeStatus(rec[b.status])
		if !ok || !IsKnownStatus(status) {
			continue
		}
		if rating, ok := ToNumber(rec[b.rating]); ok && poor.Contains(rating) {
			out = append(out, rec)
		}
	}
	return out, nil
}
