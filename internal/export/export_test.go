package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

func sampleReport(t *testing.T) *aggregate.Report {
	t.Helper()

	tb := records.Table{
		Columns: []string{"group", "status", "rating", "clarity", "evidence", "instructor"},
		Records: []records.Record{
			{"group": "A", "status": "Solved ", "rating": "2", "evidence": "", "instructor": "Mona", "clarity": 4},
			{"group": "A", "status": "solved", "rating": 2, "evidence": "http://e", "instructor": "Mona", "clarity": 5},
			{"group": "B", "status": "follow up", "rating": "bad", "evidence": nil, "instructor": "Omar", "clarity": 3},
		},
	}
	m := config.ColumnMapping{
		Group: "group", Status: "status", Rating: "rating",
		Clarity: "clarity", Evidence: "evidence", Instructor: "instructor",
	}
	r, err := aggregate.Aggregate(tb, m, aggregate.NewRatingSet(1, 2, 3))
	require.NoError(t, err)
	return r
}

func TestWriteSummaryCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, sampleReport(t).Summary))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Metric,Value", lines[0])
	assert.Equal(t, "Total Rows,3", lines[1])
	assert.Contains(t, lines, "Poor Feedback Total,2")
	assert.Contains(t, lines, "Without Evidence,1")
	assert.Contains(t, lines, "Empty Links,1")
	assert.Len(t, lines, len(SummaryRows(aggregate.Summary{}))+1)
}

func TestSummaryValues(t *testing.T) {
	t.Parallel()

	v := SummaryValues(sampleReport(t).Summary)
	assert.Equal(t, 2.0, v["solved"])
	assert.Equal(t, 1.0, v["links_among_poor"])
	assert.Len(t, v, len(SummaryRows(aggregate.Summary{})))
}

func TestWriteWorkbook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetSummary, SheetStatusByGroup, SheetRatings, SheetLinks, SheetInstructors, SheetInstructorGroups,
	}, f.GetSheetList())

	status, err := f.GetRows(SheetStatusByGroup)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Group", "solved", "follow up", "not solved"},
		{"A", "2", "0", "0"},
		{"B", "0", "1", "0"},
	}, status)

	inst, err := f.GetRows(SheetInstructors)
	require.NoError(t, err)
	require.Len(t, inst, 3)
	assert.Equal(t, []string{"Mona", "4.5", "2"}, inst[1])
	assert.Equal(t, []string{"Omar", "3", "1"}, inst[2])

	ratings, err := f.GetRows(SheetRatings)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Rating", "Count"}, {"2", "2"}}, ratings)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total Rows", "3"}, summary[1])
}
