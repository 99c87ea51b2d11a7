// Package dashboard serves the QuantumMeet web UI and its RPC surface.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantummeet/quantummeet/internal/config"
	"github.com/quantummeet/quantummeet/internal/logging"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB     *gorm.DB
	Port   int
	Out    io.Writer
	Logger logrus.FieldLogger
	Auth   config.AuthConfig

	// GetOneDelay holds back meetings.getOne, to exercise loading states.
	GetOneDelay time.Duration
}

// server carries the shared dependencies of every handler.
type server struct {
	db          *gorm.DB
	log         logrus.FieldLogger
	auth        config.AuthConfig
	getOneDelay time.Duration
	tmpl        *template.Template
	procs       map[string]procedure
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with every page and procedure registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("dashboard: db is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Auth.CookieName == "" {
		opts.Auth.CookieName = "qm_session"
	}
	if opts.Auth.SessionTTL <= 0 {
		opts.Auth.SessionTTL = 7 * 24 * time.Hour
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	s := &server{
		db:          opts.DB,
		log:         opts.Logger,
		auth:        opts.Auth,
		getOneDelay: opts.GetOneDelay,
		tmpl:        tmpl,
	}
	s.procs = s.procedures()

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, s)
	return router, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("dashboard").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
