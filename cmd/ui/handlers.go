package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MADMAX-9999/reb20app/internal/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// Routes registers the API endpoints on mux.
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", h.RunsHandler)
	mux.HandleFunc("GET /api/runs/{id}", h.RunHandler)
	mux.HandleFunc("GET /api/runs/{id}/history", h.HistoryHandler)
}

// RunsHandler returns all persisted runs, most recent first.
func (h *APIHandler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := database.ListRuns(h.db)
	if err != nil {
		h.log.Error("Failed to get runs from database", zap.Error(err))
		http.Error(w, "Failed to get runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// RunHandler returns a single run.
func (h *APIHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	run, err := database.GetRun(h.db, id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	writeJSON(w, run)
}

// HistoryHandler returns the history entries of a run with their trades.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	if _, err := database.GetRun(h.db, id); err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	entries, err := database.RunHistory(h.db, id)
	if err != nil {
		h.log.Error("Failed to get run history", zap.Uint("run_id", id), zap.Error(err))
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (h *APIHandler) notFoundOrError(w http.ResponseWriter, err error, id uint) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	h.log.Error("Failed to get run", zap.Uint("run_id", id), zap.Error(err))
	http.Error(w, "Failed to get run", http.StatusInternalServerError)
}

func runID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
