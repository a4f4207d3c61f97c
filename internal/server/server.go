package server

import (
	"context"
	"crime_news/internal/db"
	"crime_news/internal/logger"
	"crime_news/internal/pipeline"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"ratio": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
}).ParseFS(templateFS, "templates/dashboard.html"))

// Runner выполняет один рендер.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// History отдаёт последние сохранённые рендеры.
type History interface {
	RecentRenders(ctx context.Context, limit int) ([]db.Render, error)
	Ping(ctx context.Context) error
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	runner  Runner
	history History
	metrics http.Handler
	log     *logger.Entry
}

// NewServer создаёт Server. history и metrics могут быть nil.
func NewServer(runner Runner, history History, metrics http.Handler, log *logger.Entry) *Server {
	if log == nil {
		log = logger.Component("server")
	}
	return &Server{runner: runner, history: history, metrics: metrics, log: log}
}

// Routes собирает роутер со всеми обработчиками.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(EchoRequestID)
	r.Use(LoggingMiddleware(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.Dashboard)
	r.Get("/api/report", s.GetReport)
	r.Get("/api/history", s.GetHistory)
	r.Get("/health", s.HealthCheck)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// HealthCheck отвечает 200 OK; если подключена база, то только когда она доступна.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("OK"))
}

// Dashboard выполняет свежий рендер и отдаёт HTML.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(r.Context())
	view := buildView(report, err, r.URL.Query().Get("debug") == "1")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.log.Errorf("Render template failed: %v", err)
	}
}

// GetReport выполняет свежий рендер и отдаёт его в JSON.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(r.Context())
	if errors.Is(err, pipeline.ErrNoArticles) {
		payload := map[string]any{"error": err.Error()}
		if report != nil {
			payload["feeds"] = report.Feeds
		}
		writeJSON(w, http.StatusServiceUnavailable, payload)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetHistory возвращает последние limit рендеров, по умолчанию 10.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	renders, err := s.history.RecentRenders(r.Context(), limit)
	if err != nil {
		s.log.Errorf("Load history failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if renders == nil {
		renders = []db.Render{}
	}
	writeJSON(w, http.StatusOK, renders)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
