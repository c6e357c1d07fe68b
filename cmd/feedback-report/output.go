package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
	"github.com/EslamHany2002/Feedback-Report/internal/export"
	"github.com/EslamHany2002/Feedback-Report/internal/pipeline"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReportTable prints the summary table followed by the status-by-group
// table and any warnings.
func writeReportTable(w io.Writer, res *pipeline.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, m := range export.SummaryRows(res.Report.Summary) {
		fmt.Fprintf(tw, "%s\t%d\n", m.Label, m.Value)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "GROUP\t%s\n", strings.ToUpper(strings.Join(aggregate.KnownStatuses, "\t")))
	sbg := res.Report.StatusByGroup
	for _, g := range sbg.Rows() {
		fmt.Fprint(tw, g)
		for _, s := range aggregate.KnownStatuses {
			fmt.Fprintf(tw, "\t%d", sbg.Get(g, s))
		}
		fmt.Fprintln(tw)
	}

	for _, warn := range res.Report.Warnings {
		fmt.Fprintf(tw, "\nwarning: %s\n", warn.Message)
	}
	return tw.Flush()
}
