package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"arbiter/app"
	"arbiter/internal"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App is the HTML report viewer
type App struct {
	router    *chi.Mux
	service   *app.AnalysisService
	templates *template.Template
	logger    *internal.Logger
}

// NewApp creates the viewer over stored runs
func NewApp(service *app.AnalysisService, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		templates: templates,
		logger:    logger.With("UI"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// Handler returns the router
func (a *App) Handler() http.Handler {
	return a.router
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleRuns)
	a.router.Get("/reports/{id}", a.handleReport)
	a.router.Get("/reports/{id}/report.md", a.handleMarkdown)
	a.router.Get("/reports/{id}/tensor.xlsx", a.handleWorkbook)
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
