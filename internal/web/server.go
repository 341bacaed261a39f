package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/llm"
	"github.com/hpungsan/clinicseo/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures the web UI server.
type Options struct {
	Version string
	Bind    string
	Port    int
}

// NewServer creates and configures the HTTP server for the clinic web UI.
// A nil gen leaves the form usable for templates and history only.
func NewServer(db *sql.DB, cfg *config.Config, gen llm.Generator, log *logging.Logger, opts Options) (*http.Server, error) {
	if log == nil {
		log = logging.Nop()
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create template sub-FS: %w", err)
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static sub-FS: %w", err)
	}

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		gen:      gen,
		log:      log,
		renderer: NewRenderer(templateSub, opts.Version, log),
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           h.routes(staticSub),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// routes registers all handlers on a new mux.
func (h *Handlers) routes(static fs.FS) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/generate", http.StatusFound)
	})
	mux.HandleFunc("GET /generate", h.HandleForm)
	mux.HandleFunc("POST /generate", h.HandleGenerate)
	mux.HandleFunc("POST /template", h.HandleTemplateSave)
	mux.HandleFunc("POST /template/reset", h.HandleTemplateReset)
	mux.HandleFunc("GET /generations", h.HandleHistory)
	mux.HandleFunc("GET /generations/{id}", h.HandleDetail)
	mux.HandleFunc("GET /generations/{id}/download", h.HandleDownload)
	mux.HandleFunc("DELETE /generations/{id}", h.HandleDelete)
	mux.HandleFunc("POST /generations/{id}/delete", h.HandleDelete)
	mux.HandleFunc("POST /generations/purge", h.HandlePurge)

	if static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	}

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
// Generated content is shown unescaped in previews, so inline scripts stay blocked.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data: https:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("web UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
