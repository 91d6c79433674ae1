package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/construction-pricing/internal/config"
	"github.com/iwvelando/construction-pricing/internal/report"
	"github.com/iwvelando/construction-pricing/internal/store"
	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/output"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ProjectStore persists projects for the project endpoints.
type ProjectStore interface {
	Create(ctx context.Context, p store.Project) (store.Project, error)
	Get(ctx context.Context, id string) (store.Project, error)
	List(ctx context.Context, query string) ([]store.Project, error)
	Update(ctx context.Context, p store.Project) (store.Project, error)
	Delete(ctx context.Context, id string) error
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	projects      ProjectStore
}

// NewHandler constructs the HTTP handler that serves the pricing API. The
// project endpoints answer 503 when projects is nil.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, projects ProjectStore) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, projects: projects}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Route("/api", func(r chi.Router) {
		// Version endpoint for UI metadata
		r.Get("/version", h.handleVersion)
		r.Get("/defaults", h.handleDefaults)

		// Stateless calculations
		r.Post("/pricing", h.handlePricing)
		r.Post("/matrix", h.handleMatrix)
		r.Post("/report", h.handleReport)
		r.Post("/plan/import", h.handlePlanImport)
		r.Post("/config/export", h.handleConfigExport)

		r.Route("/projects", func(r chi.Router) {
			r.Use(h.requireProjects)
			r.Get("/", h.handleListProjects)
			r.Post("/", h.handleCreateProject)
			r.Get("/{id}", h.handleGetProject)
			r.Put("/{id}", h.handleUpdateProject)
			r.Delete("/{id}", h.handleDeleteProject)
			r.Get("/{id}/report", h.handleProjectReport)
			r.Get("/{id}/export.csv", h.handleProjectExport)
		})
	})

	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) requireProjects(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.projects == nil {
			h.respondErrorWithOp(w, http.StatusServiceUnavailable, "project storage is disabled", "server.requireProjects")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type defaultsResponse struct {
	IndirectCosts      map[string]string        `json:"indirectCosts"`
	Taxes              map[string]string        `json:"taxes"`
	NetProfitMargin    float64                  `json:"netProfitMargin"`
	MinMargin          float64                  `json:"minNetProfitMargin"`
	MaxMargin          float64                  `json:"maxNetProfitMargin"`
	AnnualInterestRate float64                  `json:"annualInterestRate"`
	ProfitScenarios    []pricing.ProfitScenario `json:"profitScenarios"`
	FinancingLevels    []pricing.FinancingLevel `json:"financingLevels"`
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, defaultsResponse{
		IndirectCosts:      config.DefaultIndirectCosts(),
		Taxes:              config.DefaultTaxes(),
		NetProfitMargin:    constants.DefaultNetProfitMargin,
		MinMargin:          constants.MinNetProfitMargin,
		MaxMargin:          constants.MaxNetProfitMargin,
		AnnualInterestRate: constants.DefaultAnnualInterestRate,
		ProfitScenarios:    pricing.DefaultProfitScenarios(),
		FinancingLevels:    pricing.DefaultFinancingLevels(),
	})
}

func (h *handler) handlePricing(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePricing"

	var req pricingRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	result := pricing.Calculate(req.input())
	h.writeJSON(w, http.StatusOK, newPricingResponse(result))
}

func (h *handler) handleMatrix(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMatrix"

	var req matrixRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	h.writeJSON(w, http.StatusOK, pricing.BuildMatrix(req.input()))
}

type reportResponse struct {
	Report     report.Report          `json:"report"`
	Display    pricingDisplay         `json:"display"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing project file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read project file: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading project data, %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if conf.Project.PlanFile != "" && conf.Project.Plan == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "planFile is not supported for uploaded projects; inline the plan instead", op)
		return
	}

	rep, err := report.Build(h.logger, conf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	csvData, err := output.CsvString(rep)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to export report: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("report computed",
		zap.String("op", op),
		zap.String("project", rep.Name),
		zap.String("status", string(rep.Financials.Status)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, reportResponse{
		Report:     rep,
		Display:    displayFor(rep.Financials),
		CSV:        csvData,
		Warnings:   rep.Warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	})
}

type planImportResponse struct {
	Plan           *plan.Plan `json:"plan"`
	Repaired       bool       `json:"repaired"`
	DirectCost     float64    `json:"directCost"`
	DurationMonths float64    `json:"durationMonths"`
	Warnings       []string   `json:"warnings,omitempty"`
}

func (h *handler) handlePlanImport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePlanImport"

	raw, ok := h.readBody(w, r, op)
	if !ok {
		return
	}

	p, repaired, err := plan.Decode(raw)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if repaired {
		h.logger.Info("repaired malformed construction plan",
			zap.String("op", op),
			zap.Int("tasks", len(p.Tasks)),
		)
	}

	h.writeJSON(w, http.StatusOK, planImportResponse{
		Plan:           p,
		Repaired:       repaired,
		DirectCost:     p.DirectCost(),
		DurationMonths: p.DurationMonths(),
		Warnings:       p.Validate(),
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	var payload map[string]interface{}
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// marshalOrderedConfigYAML writes the known sections in a fixed order,
// followed by any other keys sorted by name.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"project", "financing", "logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return raw, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}, op string) bool {
	raw, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before writing the status, so values JSON cannot
// represent turn into a 500 instead of an empty success.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
