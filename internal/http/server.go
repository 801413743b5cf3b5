package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbon/internal/log"
	"carbon/internal/services"
	appweb "carbon/web"
)

// DefaultDailyTargetKg is the daily budget shown on the statistics progress bar.
const DefaultDailyTargetKg = 16.0

// Config configures the HTTP server.
type Config struct {
	Addr          string
	DailyTargetKg float64
	// RateLimit is the number of POST requests a client may send per minute.
	RateLimit int
	Logger    *log.Logger
	// Sections lets the caller drop or replace tracker sections. Nil keeps
	// every built-in section.
	Sections func(builtin Sections) Sections
}

// Server serves the tracker UI, its HTMX partials and the JSON API.
type Server struct {
	http.Server
	templates   *template.Template
	ledger      *services.LedgerService
	sections    []section
	dailyTarget float64
	rateLimiter *rateLimiter
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg Config, ledger *services.LedgerService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	target := cfg.DailyTargetKg
	if target <= 0 {
		target = DefaultDailyTargetKg
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		dailyTarget: target,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger.WithComponent(log.ComponentHTTP),
		started:     time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	} else {
		s.templates = t
	}

	builtin := s.builtinSections()
	if cfg.Sections != nil {
		builtin = cfg.Sections(builtin)
	}
	s.sections = builtin.resolve()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.Handle("/", s.wrap("/", s.handleIndex))
	mux.Handle("/onboarding", s.wrap("/onboarding", s.handleOnboarding))
	mux.Handle("/activities", s.wrap("/activities", s.handleCreateActivity))
	mux.Handle("/activities/clear", s.wrap("/activities/clear", s.handleClearActivities))
	mux.Handle("/ui/activity-options", s.wrap("/ui/activity-options", s.handleActivityOptions))
	for _, sec := range s.sections {
		mux.Handle(sec.Path, s.wrap(sec.Path, s.sectionHandler(sec)))
	}

	mux.Handle("/api/summary", s.wrap("/api/summary", s.handleAPISummary))
	mux.Handle("/api/emissions/daily", s.wrap("/api/emissions/daily", s.handleAPIDaily))
	mux.Handle("/api/activities", s.wrap("/api/activities", s.handleAPIActivities))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpRender,
			"template", name)
	}
}
