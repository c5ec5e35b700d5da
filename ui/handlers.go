package ui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arbiter/adapters/excel"
	"arbiter/domain/core"
	"arbiter/internal/errors"
	"arbiter/internal/report"
	"arbiter/ports"
)

const runsListLimit = 100

// handleRuns lists stored runs
func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.service.List(r.Context(), runsListLimit)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.renderTemplate(w, "runs.html", map[string]interface{}{
		"Title": "Analysis runs",
		"Runs":  runs,
	})
}

// handleReport renders one run's markdown report as HTML
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	a.renderTemplate(w, "report.html", map[string]interface{}{
		"Title": "Interference report " + run.ID.String(),
		"ID":    run.ID,
		"Body":  template.HTML(report.HTML(run)),
	})
}

// handleMarkdown returns the raw markdown report
func (a *App) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(report.Markdown(run)))
}

// handleWorkbook streams the run's tensor as an XLSX workbook
func (a *App) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteTensor(&buf, run.Tensor, nil); err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+run.ID.String()+`.xlsx"`)
	w.Write(buf.Bytes())
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*ports.RunRecord, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, errors.InvalidInput(err.Error()))
		return nil, false
	}
	run, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return run, true
}

func (a *App) fail(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%v", err)
	}
	http.Error(w, err.Error(), status)
}
