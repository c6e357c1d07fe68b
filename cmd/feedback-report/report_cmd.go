package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EslamHany2002/Feedback-Report/internal/export"
	"github.com/EslamHany2002/Feedback-Report/internal/pipeline"
)

func newReportCmd(o *globalOpts) *cobra.Command {
	var (
		format   string
		xlsxPath string
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Load the export, aggregate it and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("invalid --format %q: want json or table", format)
			}
			cfg, err := o.validConfig()
			if err != nil {
				return err
			}

			flush := pipeline.InstallMetrics(cfg, o.logger)
			defer flush()

			res, err := pipeline.Run(cmd.Context(), cfg, o.logger)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(f *os.File) error { return export.WriteWorkbook(f, res.Report) }); err != nil {
					return err
				}
				o.logger.WithField("path", xlsxPath).Info("workbook written")
			}
			if csvPath != "" {
				if err := writeFile(csvPath, func(f *os.File) error { return export.WriteSummaryCSV(f, res.Report.Summary) }); err != nil {
					return err
				}
				o.logger.WithField("path", csvPath).Info("summary csv written")
			}

			out := cmd.OutOrStdout()
			if format == "table" {
				return writeReportTable(out, res)
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report workbook to this path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the summary table as CSV to this path")
	return cmd
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
