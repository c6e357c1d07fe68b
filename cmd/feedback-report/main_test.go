package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const exportCSV = `Select your assigned group,Techincal / Operation Solved,Experience Rating,Evidence Attachment
G1,Solved,2,
G1,Solved,5,http://x
G2,Follow up,1,http://y
G2,Not Solved,,
`

func writeFixture(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"FEEDBACK_CONFIG", "FEEDBACK_LOG_LEVEL", "FEEDBACK_LOG_FORMAT",
		"FEEDBACK_METRICS_BACKEND", "FEEDBACK_SERVER_ADDR"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	data := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(data, []byte(exportCSV), 0o644))

	cfg := map[string]any{
		"job":    "cli_test",
		"source": map[string]any{"kind": "file", "file": map[string]any{"path": data}},
		"mapping": map[string]any{
			"group":    "Select your assigned group",
			"status":   "Techincal / Operation Solved",
			"rating":   "Experience Rating",
			"evidence": "Evidence Attachment",
		},
	}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "feedback.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runCapture(t *testing.T, args ...string) (code int, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	return run(cmd), errOut.String()
}

func TestRun_PrintsErrors(t *testing.T) {
	cfg := writeFixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad log level", args: []string{"report", "--config", cfg, "--log-level", "bogus"}, want: `invalid log level "bogus"`},
		{name: "missing config", args: []string{"report", "--config", filepath.Join(t.TempDir(), "nope.json")}, want: "config: read"},
		{name: "bad format", args: []string{"report", "--config", cfg, "--format", "xml"}, want: "invalid --format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stderr := runCapture(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, "feedback-report: ")
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_PrintsMappingError(t *testing.T) {
	cfg := writeFixture(t)
	b, err := os.ReadFile(cfg)
	require.NoError(t, err)
	b = bytes.Replace(b, []byte(`"status":"Techincal / Operation Solved"`), []byte(`"status":"Statuz"`), 1)
	require.NoError(t, os.WriteFile(cfg, b, 0o644))

	code, stderr := runCapture(t, "report", "--config", cfg, "--log-level", "error")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `field "status" (column "Statuz"): not present in the input columns`)
}

func TestRun_Success(t *testing.T) {
	cfg := writeFixture(t)

	code, stderr := runCapture(t, "validate", "--config", cfg)
	assert.Zero(t, code)
	assert.NotContains(t, stderr, "feedback-report: ")
}

func TestValidateCommand(t *testing.T) {
	cfg := writeFixture(t)

	out, err := execute(t, "validate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")
}

func TestValidateCommand_Invalid(t *testing.T) {
	cfg := writeFixture(t)
	require.NoError(t, os.WriteFile(cfg, []byte(`{"source":{"kind":"ftp"}}`), 0o644))

	_, err := execute(t, "validate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is invalid")
}

func TestReportCommand_JSON(t *testing.T) {
	cfg := writeFixture(t)

	out, err := execute(t, "report", "--config", cfg, "--log-level", "error")
	require.NoError(t, err)

	var got struct {
		Job    string `json:"job"`
		Rows   int    `json:"rows"`
		Report struct {
			Summary struct {
				TotalRows    int `json:"total_rows"`
				Solved       int `json:"solved"`
				PoorFeedback int `json:"poor_feedback"`
				SolvedPoor   int `json:"solved_poor"`
			} `json:"summary"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "cli_test", got.Job)
	assert.Equal(t, 4, got.Rows)
	assert.Equal(t, 4, got.Report.Summary.TotalRows)
	assert.Equal(t, 2, got.Report.Summary.Solved)
	assert.Equal(t, 2, got.Report.Summary.PoorFeedback)
	assert.Equal(t, 1, got.Report.Summary.SolvedPoor)
}

func TestReportCommand_TableAndExports(t *testing.T) {
	cfg := writeFixture(t)
	dir := filepath.Dir(cfg)
	xlsxPath := filepath.Join(dir, "report.xlsx")
	csvPath := filepath.Join(dir, "summary.csv")

	out, err := execute(t, "report", "--config", cfg, "--log-level", "error",
		"--format", "table", "--xlsx", xlsxPath, "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Rows")
	assert.Contains(t, out, "G1")

	summary, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Total Rows,4")

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestReportCommand_BadFormat(t *testing.T) {
	cfg := writeFixture(t)

	_, err := execute(t, "report", "--config", cfg, "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}
