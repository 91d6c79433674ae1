package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/construction-pricing/internal/report"
	"github.com/iwvelando/construction-pricing/internal/store"
	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/output"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"go.uber.org/zap"
)

func (h *handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListProjects"

	projects, err := h.projects.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, projects)
}

func (h *handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateProject"

	p, ok := h.decodeProject(w, r, op)
	if !ok {
		return
	}

	created, err := h.projects.Create(r.Context(), p)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	h.logger.Info("project created",
		zap.String("op", op),
		zap.String("id", created.ID),
		zap.String("name", created.Name),
	)
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetProject"

	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateProject"

	p, ok := h.decodeProject(w, r, op)
	if !ok {
		return
	}
	p.ID = chi.URLParam(r, "id")

	updated, err := h.projects.Update(r.Context(), p)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteProject"

	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectReportResponse struct {
	Report  report.Report  `json:"report"`
	Display pricingDisplay `json:"display"`
}

func (h *handler) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjectReport"

	rep, ok := h.buildProjectReport(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, projectReportResponse{Report: rep, Display: displayFor(rep.Financials)})
}

func (h *handler) handleProjectExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjectExport"

	rep, ok := h.buildProjectReport(w, r, op)
	if !ok {
		return
	}

	data, err := output.CsvString(rep)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to export report: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(rep.Name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(data)); err != nil {
		h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) buildProjectReport(w http.ResponseWriter, r *http.Request, op string) (report.Report, bool) {
	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return report.Report{}, false
	}

	rep, err := report.Build(h.logger, p.Configuration())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return report.Report{}, false
	}
	return rep, true
}

func (h *handler) decodeProject(w http.ResponseWriter, r *http.Request, op string) (store.Project, bool) {
	var req projectRequest
	if !h.decodeJSON(w, r, &req, op) {
		return store.Project{}, false
	}

	p := store.Project{
		Name:   strings.TrimSpace(req.Name),
		Client: strings.TrimSpace(req.Client),
		Settings: store.Settings{
			DirectCost:         req.Settings.DirectCost,
			NetProfitMargin:    constants.DefaultNetProfitMargin,
			IndirectCosts:      textMap(req.Settings.IndirectCosts),
			Taxes:              textMap(req.Settings.Taxes),
			AnnualInterestRate: string(req.Settings.AnnualInterestRate),
			FinancingLevels:    req.Settings.FinancingLevels,
			ProfitScenarios:    req.Settings.ProfitScenarios,
		},
	}
	if req.Settings.NetProfitMargin != nil {
		p.Settings.NetProfitMargin = *req.Settings.NetProfitMargin
	}

	if req.hasPlan() {
		raw := []byte(req.Plan)
		// Generated plans are often posted as a JSON string.
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			raw = []byte(text)
		}
		decoded, repaired, err := plan.Decode(raw)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return store.Project{}, false
		}
		if repaired {
			h.logger.Info("repaired malformed construction plan",
				zap.String("op", op),
				zap.String("project", p.Name),
			)
		}
		p.Plan = decoded
	}
	return p, true
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case errors.Is(err, store.ErrInvalidProject):
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func exportFileName(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	if slug == "" {
		slug = "projeto"
	}
	return slug + ".csv"
}
