package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/CTAG07/bznames/pkg/store"
	"golang.org/x/sync/singleflight"
)

// NameAPI holds the dependencies for the model API handlers.
type NameAPI struct {
	store          *store.Store
	metrics        *Metrics
	logger         *slog.Logger
	maxSampleCount int
	modelOpts      []ngram.Option

	mu     sync.RWMutex
	models map[string]ngram.NameSampler
	loads  singleflight.Group
}

// NewNameAPI creates a new instance of the NameAPI. modelOpts are applied to
// every model restored from the store.
func NewNameAPI(s *store.Store, metrics *Metrics, logger *slog.Logger, maxSampleCount int, modelOpts ...ngram.Option) *NameAPI {
	return &NameAPI{
		store:          s,
		metrics:        metrics,
		logger:         logger,
		maxSampleCount: maxSampleCount,
		modelOpts:      modelOpts,
		models:         make(map[string]ngram.NameSampler),
	}
}

// RegisterRoutes sets up the routing for all /api endpoints and /metrics.
func (a *NameAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", a.metrics.Instrument("health", a.handleHealth))
	mux.HandleFunc("/api/models", a.metrics.Instrument("models", a.handleListModels))
	mux.HandleFunc("/api/models/", a.handleModelByName)
	mux.Handle("/metrics", a.metrics.Handler())
}

// ScoreRequest is the expected JSON body for scoring names.
type ScoreRequest struct {
	Names []string `json:"names"`
}

// NameScore is the score of a single name.
type NameScore struct {
	Name       string  `json:"name"`
	NLL        float64 `json:"nll"`
	Perplexity float64 `json:"perplexity"`
}

// ScoreResponse is the JSON response after scoring names.
type ScoreResponse struct {
	Model  string      `json:"model"`
	Scores []NameScore `json:"scores"`
}

// SampleResponse is the JSON response after generating names.
type SampleResponse struct {
	Model string   `json:"model"`
	Names []string `json:"names"`
}

// ModelStatsResponse combines the metadata and statistics of a stored model.
type ModelStatsResponse struct {
	Model store.ModelInfo  `json:"model"`
	Stats store.ModelStats `json:"stats"`
}

// statusForError maps model and store errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ngram.ErrInvalidInput), errors.Is(err, ngram.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, ngram.ErrNotFitted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithModelError logs unexpected errors and writes the mapped status.
func (a *NameAPI) respondWithModelError(w http.ResponseWriter, modelName string, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		a.logger.Error("Model request failed", "model", modelName, "error", err)
	}
	if code == http.StatusNotFound {
		respondWithError(w, code, fmt.Sprintf("Model %q not found", modelName))
		return
	}
	respondWithError(w, code, err.Error())
}

// cached returns the named model if it has already been loaded.
func (a *NameAPI) cached(name string) (ngram.NameSampler, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.models[name]
	return m, ok
}

// model returns the named model, restoring it from the store on first use.
// Concurrent first requests for the same model share a single load, which
// is not cancelled when the request that started it goes away.
func (a *NameAPI) model(ctx context.Context, name string) (ngram.NameSampler, error) {
	if m, ok := a.cached(name); ok {
		return m, nil
	}
	ctx = context.WithoutCancel(ctx)

	v, err, _ := a.loads.Do(name, func() (interface{}, error) {
		if m, ok := a.cached(name); ok {
			return m, nil
		}
		info, err := a.store.GetModelInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		m, err := a.store.LoadModel(ctx, info, a.modelOpts...)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.models[name] = m
		a.mu.Unlock()

		a.metrics.modelLoads.WithLabelValues(name).Inc()
		a.logger.Info("Model loaded into cache", "model", name, "order", info.Order)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ngram.NameSampler), nil
}

// handleHealth reports whether the database is reachable.
func (a *NameAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.Error("Health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

// handleListModels lists every stored model.
func (a *NameAPI) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	models, err := a.store.GetModelInfos(r.Context())
	if err != nil {
		a.logger.Error("Failed to get model infos", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve models: %v", err))
		return
	}
	// Convert map to slice for consistent JSON output
	modelList := make([]store.ModelInfo, 0, len(models))
	for _, model := range models {
		modelList = append(modelList, model)
	}
	respondWithJSON(w, http.StatusOK, modelList)
}

// handleModelByName routes actions for a specific model: stats, score, sample.
func (a *NameAPI) handleModelByName(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/models/")
	parts := strings.Split(path, "/")
	modelName := parts[0]

	if modelName == "" {
		respondWithError(w, http.StatusBadRequest, "Model name not specified")
		return
	}
	if len(parts) != 2 {
		respondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	switch action := parts[1]; action {
	case "stats":
		a.metrics.Instrument("stats", func(w http.ResponseWriter, r *http.Request) {
			a.handleStats(w, r, modelName)
		})(w, r)
	case "score":
		a.metrics.Instrument("score", func(w http.ResponseWriter, r *http.Request) {
			a.handleScore(w, r, modelName)
		})(w, r)
	case "sample":
		a.metrics.Instrument("sample", func(w http.ResponseWriter, r *http.Request) {
			a.handleSample(w, r, modelName)
		})(w, r)
	default:
		respondWithError(w, http.StatusNotFound, "Action not found")
	}
}

func (a *NameAPI) handleStats(w http.ResponseWriter, r *http.Request, modelName string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	info, err := a.store.GetModelInfo(r.Context(), modelName)
	if err != nil {
		a.respondWithModelError(w, modelName, err)
		return
	}
	stats, err := a.store.GetModelStats(r.Context(), info)
	if err != nil {
		a.respondWithModelError(w, modelName, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ModelStatsResponse{Model: info, Stats: stats})
}

func (a *NameAPI) handleScore(w http.ResponseWriter, r *http.Request, modelName string) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if len(req.Names) == 0 {
		respondWithError(w, http.StatusBadRequest, "At least one name is required")
		return
	}

	m, err := a.model(r.Context(), modelName)
	if err != nil {
		a.respondWithModelError(w, modelName, err)
		return
	}

	resp := ScoreResponse{Model: modelName, Scores: make([]NameScore, 0, len(req.Names))}
	for _, name := range req.Names {
		nll, err := m.ComputeNLL(name)
		if err != nil {
			a.respondWithModelError(w, modelName, err)
			return
		}
		ppl, err := m.Perplexity(name)
		if err != nil {
			a.respondWithModelError(w, modelName, err)
			return
		}
		resp.Scores = append(resp.Scores, NameScore{Name: name, NLL: nll, Perplexity: ppl})
	}
	a.metrics.namesScored.WithLabelValues(modelName).Add(float64(len(resp.Scores)))
	respondWithJSON(w, http.StatusOK, resp)
}

func (a *NameAPI) handleSample(w http.ResponseWriter, r *http.Request, modelName string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count, opts, err := a.parseSampleQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := a.model(r.Context(), modelName)
	if err != nil {
		a.respondWithModelError(w, modelName, err)
		return
	}

	resp := SampleResponse{Model: modelName, Names: make([]string, 0, count)}
	for range count {
		name, err := m.Sample(opts...)
		if err != nil {
			a.respondWithModelError(w, modelName, err)
			return
		}
		resp.Names = append(resp.Names, name)
	}
	a.metrics.namesSampled.WithLabelValues(modelName).Add(float64(count))
	respondWithJSON(w, http.StatusOK, resp)
}

// parseSampleQuery reads count, temperature, top_k, max_length and prefix
// from the query string.
func (a *NameAPI) parseSampleQuery(r *http.Request) (int, []ngram.SampleOption, error) {
	q := r.URL.Query()
	count := 1
	var opts []ngram.SampleOption

	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > a.maxSampleCount {
			return 0, nil, fmt.Errorf("count must be an integer between 1 and %d", a.maxSampleCount)
		}
		count = n
	}
	if v := q.Get("temperature"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid temperature %q", v)
		}
		opts = append(opts, ngram.WithTemperature(t))
	}
	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid top_k %q", v)
		}
		opts = append(opts, ngram.WithTopK(k))
	}
	if v := q.Get("max_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid max_length %q", v)
		}
		opts = append(opts, ngram.WithMaxLength(n))
	}
	if v := q.Get("prefix"); v != "" {
		opts = append(opts, ngram.WithPrefix(v))
	}
	return count, opts, nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
