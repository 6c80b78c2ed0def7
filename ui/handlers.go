package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"gosigma/app"
	"gosigma/domain/core"
	"gosigma/internal/errors"

	"github.com/go-chi/chi/v5"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"persistence": a.service.PersistenceEnabled(),
	})
}

func (a *App) handleControlLimits(w http.ResponseWriter, r *http.Request) {
	var req app.ControlRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.ControlLimits(r.Context(), req)
	a.respond(w, resp, err)
}

func (a *App) handleBatchControlLimits(w http.ResponseWriter, r *http.Request) {
	var req app.BatchControlRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.BatchControlLimits(r.Context(), req)
	a.respond(w, resp, err)
}

func (a *App) handleCapability(w http.ResponseWriter, r *http.Request) {
	var req app.CapabilityRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Capability(r.Context(), req)
	a.respond(w, resp, err)
}

func (a *App) handleHistogram(w http.ResponseWriter, r *http.Request) {
	var req app.HistogramRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Histogram(r.Context(), req)
	a.respond(w, resp, err)
}

// handleCapabilityReport renders the study as HTML, or Markdown with ?format=markdown
func (a *App) handleCapabilityReport(w http.ResponseWriter, r *http.Request) {
	var req app.CapabilityRequest
	if !a.decode(w, r, &req) {
		return
	}
	req.Histogram = true
	resp, err := a.service.Capability(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	md := a.reports.CapabilityMarkdown(req.Label, resp.Result, resp.Histogram)
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(md)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.reports.ToHTML(md))
}

func (a *App) handleDesign(w http.ResponseWriter, r *http.Request) {
	var req app.DesignRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Design(r.Context(), req)
	a.respond(w, resp, err)
}

func (a *App) handleAnalyzeDOE(w http.ResponseWriter, r *http.Request) {
	var req app.DOERequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.AnalyzeDOE(r.Context(), req)
	a.respond(w, resp, err)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := a.service.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	a.respond(w, rec, err)
}

func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			a.writeError(w, errors.InvalidInput(fmt.Sprintf("limit must be a positive integer, got %q", raw)))
			return
		}
		limit = n
	}
	recs, err := a.service.ListAnalyses(r.Context(), core.AnalysisKind(r.URL.Query().Get("kind")), limit)
	if recs == nil && err == nil {
		recs = []core.AnalysisRecord{}
	}
	a.respond(w, recs, err)
}

// decode reads a JSON body, writing a 400 and returning false when it is malformed
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.logger.Debug("Rejected body for %s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    errors.CodeInvalidInput,
			Message: "invalid JSON body: " + err.Error(),
		})
		return false
	}
	return true
}

func (a *App) respond(w http.ResponseWriter, body interface{}, err error) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	classified := errors.FromDomain(err)
	code := errors.GetCode(classified)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		a.logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
