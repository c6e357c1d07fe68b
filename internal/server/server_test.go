package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/export"
	"github.com/EslamHany2002/Feedback-Report/internal/pipeline"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

func result(t *testing.T, rows ...records.Record) *pipeline.Result {
	t.Helper()

	tb := records.Table{
		Columns: []string{"group", "status", "rating", "clarity", "evidence", "instructor"},
		Records: rows,
	}
	m := config.ColumnMapping{
		Group: "group", Status: "status", Rating: "rating",
		Clarity: "clarity", Evidence: "evidence", Instructor: "instructor",
	}
	poor := aggregate.NewRatingSet(1, 2, 3)
	r, err := aggregate.Aggregate(tb, m, poor)
	require.NoError(t, err)
	rows, err := aggregate.PoorFeedback(tb, m, poor)
	require.NoError(t, err)
	return &pipeline.Result{RunID: "run-1", Job: "amit", Columns: tb.Columns, Rows: tb.Len(), Report: r, Poor: rows}
}

func scenario(t *testing.T) *pipeline.Result {
	return result(t,
		records.Record{"group": "A", "status": "Solved ", "rating": "2", "evidence": "", "instructor": "Mona", "clarity": 4},
		records.Record{"group": "A", "status": "solved", "rating": 2, "evidence": "http://e", "instructor": "Mona", "clarity": 5},
		records.Record{"group": "B", "status": "follow up", "rating": "bad", "evidence": nil, "instructor": "Omar", "clarity": 3},
	)
}

func newTestServer(t *testing.T, initial *pipeline.Result, load Loader) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(Config{Addr: ":0"}, initial, load, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t, nil, nil), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNoReportYet(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)
	for _, p := range []string{"/api/report", "/api/summary", "/api/ratings", "/api/status/solved", "/api/export.xlsx"} {
		rec := do(t, h, http.MethodGet, p)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, p)
	}
}

func TestReportEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, scenario(t), nil)

	rec := do(t, h, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pipeline.Result](t, rec)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 2, res.Report.StatusByGroup.Get("A", aggregate.StatusSolved))

	rec = do(t, h, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[[]export.Metric](t, rec)
	require.NotEmpty(t, summary)
	assert.Equal(t, export.Metric{Key: "total_rows", Label: "Total Rows", Value: 3}, summary[0])

	rec = do(t, h, http.MethodGet, "/api/status/Follow%20Up")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"follow up","groups":{"B":1}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/status/pending")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/ratings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"value":2,"count":2}]`, rec.Body.String())
}

func TestPoorFeedbackRows(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t, scenario(t), nil), http.MethodGet, "/api/poor")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[struct {
		Columns []string         `json:"columns"`
		Count   int              `json:"count"`
		Rows    []map[string]any `json:"rows"`
	}](t, rec)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Rows, 2)
	assert.Contains(t, got.Columns, "status")
	assert.Equal(t, "Solved ", got.Rows[0]["status"])
	assert.Equal(t, "http://e", got.Rows[1]["evidence"])
}

func TestClarityOrder(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, scenario(t), nil)

	desc := decode[[]aggregate.InstructorAverage](t, do(t, h, http.MethodGet, "/api/instructors/clarity"))
	require.Len(t, desc, 2)
	assert.Equal(t, "Mona", desc[0].Instructor)
	assert.Equal(t, 4.5, desc[0].Average)

	asc := decode[[]aggregate.InstructorAverage](t, do(t, h, http.MethodGet, "/api/instructors/clarity?order=asc"))
	assert.Equal(t, "Omar", asc[0].Instructor)
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	calls := 0
	load := func(ctx context.Context) (*pipeline.Result, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("export unavailable")
		}
		r := result(t, records.Record{"group": "C", "status": "not solved", "rating": 1})
		r.RunID = "run-2"
		return r, nil
	}
	h := newTestServer(t, scenario(t), load)

	rec := do(t, h, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"run_id":"run-2","rows":1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/status/not%20solved")
	assert.JSONEq(t, `{"status":"not solved","groups":{"C":1}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/report")
	assert.Equal(t, "run-2", decode[pipeline.Result](t, rec).RunID, "failed refresh keeps the last good report")

	rec = do(t, newTestServer(t, scenario(t), nil), http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t, scenario(t), nil), http.MethodGet, "/api/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `amit.xlsx`)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), export.SheetStatusByGroup)
}
