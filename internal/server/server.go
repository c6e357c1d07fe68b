// Package server exposes the latest report over a read-only JSON API for
// dashboards.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/report                   full report
//	GET  /api/summary                  ordered summary metrics
//	GET  /api/status/{status}          group -> count for one status
//	GET  /api/ratings                  ascending rating buckets
//	GET  /api/instructors/clarity      ?order=asc|desc (default desc)
//	GET  /api/poor                     rows with a known status and a poor rating
//	POST /api/refresh                  reload the export and swap the report
//	GET  /api/export.xlsx              workbook download
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
	"github.com/EslamHany2002/Feedback-Report/internal/export"
	"github.com/EslamHany2002/Feedback-Report/internal/pipeline"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Config controls server startup.
type Config struct {
	Addr string
}

// Loader produces a fresh run result. The CLI passes a closure over
// pipeline.Run.
type Loader func(ctx context.Context) (*pipeline.Result, error)

// Server serves the most recent successful run.
type Server struct {
	cfg    Config
	load   Loader
	log    logrus.FieldLogger
	router chi.Router

	mu      sync.RWMutex
	current *pipeline.Result

	// refreshing serializes refreshes; a second POST waits for the first.
	refreshing sync.Mutex
}

// New returns a Server that starts with initial, which may be nil until the
// first refresh.
func New(cfg Config, initial *pipeline.Result, load Loader, log logrus.FieldLogger) *Server {
	s := &Server{cfg: cfg, load: load, log: log, current: initial}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", s.cfg.Addr).Info("http api listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(render.SetContentType(render.ContentTypeJSON)).Group(func(r chi.Router) {
			r.Get("/report", s.handleReport)
			r.Get("/summary", s.handleSummary)
			r.Get("/status/{status}", s.handleStatus)
			r.Get("/ratings", s.handleRatings)
			r.Get("/instructors/clarity", s.handleClarity)
			r.Get("/poor", s.handlePoor)
			r.Post("/refresh", s.handleRefresh)
		})
		r.Get("/export.xlsx", s.handleExport)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

// snapshot returns the current result, or writes 503 and returns nil.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) *pipeline.Result {
	s.mu.RLock()
	res := s.current
	s.mu.RUnlock()
	if res == nil || res.Report == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no report loaded yet")
		return nil
	}
	return res
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if res := s.snapshot(w, r); res != nil {
		render.JSON(w, r, res)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if res := s.snapshot(w, r); res != nil {
		render.JSON(w, r, export.SummaryRows(res.Report.Summary))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot(w, r)
	if res == nil {
		return
	}
	status, ok := aggregate.NormalizeStatus(chi.URLParam(r, "status"))
	if !ok || !aggregate.IsKnownStatus(status) {
		writeError(w, r, http.StatusNotFound, "unknown status; want one of solved, follow up, not solved")
		return
	}
	render.JSON(w, r, map[string]any{
		"status": status,
		"groups": res.Report.CountByStatusPerGroup(status),
	})
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	if res := s.snapshot(w, r); res != nil {
		render.JSON(w, r, res.Report.Ratings.Sorted())
	}
}

func (s *Server) handleClarity(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot(w, r)
	if res == nil {
		return
	}
	order := aggregate.ParseSortOrder(r.URL.Query().Get("order"))
	render.JSON(w, r, res.Report.InstructorClarity.SortedAverages(order))
}

func (s *Server) handlePoor(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot(w, r)
	if res == nil {
		return
	}
	rows := res.Poor
	if rows == nil {
		rows = []records.Record{}
	}
	render.JSON(w, r, map[string]any{
		"columns": res.Columns,
		"count":   len(rows),
		"rows":    rows,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.load == nil {
		writeError(w, r, http.StatusNotImplemented, "refresh is not configured")
		return
	}
	s.refreshing.Lock()
	defer s.refreshing.Unlock()

	res, err := s.load(r.Context())
	if err != nil {
		s.log.WithError(err).Error("refresh failed")
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	s.mu.Lock()
	s.current = res
	s.mu.Unlock()

	render.JSON(w, r, map[string]any{"run_id": res.RunID, "rows": res.Rows})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot(w, r)
	if res == nil {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, res.Report); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Job+`.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, map[string]string{"error": msg})
}
