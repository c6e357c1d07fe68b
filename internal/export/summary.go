// Package export renders a report for people: the summary as a Metric/Value
// CSV, and the whole report as an XLSX workbook with one sheet per view.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
)

// Metric is one row of the summary table.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// SummaryRows returns the summary metrics in presentation order.
func SummaryRows(s aggregate.Summary) []Metric {
	return []Metric{
		{"total_rows", "Total Rows", s.TotalRows},
		{"total_groups", "Total Groups", s.TotalGroups},
		{"solved", "Solved", s.Solved},
		{"follow_up", "Follow up", s.FollowUp},
		{"not_solved", "Not solved", s.NotSolved},
		{"unclassified", "Unclassified", s.Unclassified},
		{"missing_status", "Missing Status", s.MissingStatus},
		{"missing_rating", "Missing Rating", s.MissingRating},
		{"poor_feedback", "Poor Feedback Total", s.PoorFeedback},
		{"solved_poor", "Solved (Poor Ratings)", s.SolvedPoor},
		{"links_among_poor", "Evidence (Poor Ratings)", s.LinksAmongPoor},
		{"solved_poor_without_evidence", "Without Evidence", s.SolvedPoorWithoutEvidence},
		{"evidence", "Evidence", s.EvidenceCount},
		{"solved_with_link", "Links", s.SolvedWithLink},
		{"solved_without_link", "Empty Links", s.SolvedWithoutLink},
	}
}

// SummaryValues returns the summary keyed by Metric.Key.
func SummaryValues(s aggregate.Summary) map[string]float64 {
	rows := SummaryRows(s)
	out := make(map[string]float64, len(rows))
	for _, m := range rows {
		out[m.Key] = float64(m.Value)
	}
	return out
}

// WriteSummaryCSV writes the summary as a two-column Metric,Value table.
func WriteSummaryCSV(w io.Writer, s aggregate.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	for _, m := range SummaryRows(s) {
		if err := cw.Write([]string{m.Label, strconv.Itoa(m.Value)}); err != nil {
			return fmt.Errorf("write summary csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return nil
}
