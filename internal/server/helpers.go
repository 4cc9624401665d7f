package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/history"
	"github.com/budgetctl/budgetctl/internal/importer"
	"github.com/budgetctl/budgetctl/internal/rules"
	"github.com/budgetctl/budgetctl/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type missingColumnsResponse struct {
	Error    string   `json:"error"`
	Missing  []string `json:"missing"`
	Detected []string `json:"detected"`
	Matched  []string `json:"matched"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parseLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var missing *importer.MissingColumnsError
	var validation *service.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &missing):
		logger.Debug("missing columns", zap.String("error", err.Error()))
		roles := make([]string, len(missing.Missing))
		for i, r := range missing.Missing {
			roles[i] = string(r)
		}
		writeJSON(w, http.StatusUnprocessableEntity, missingColumnsResponse{
			Error:    missing.Error(),
			Missing:  roles,
			Detected: missing.Detected,
			Matched:  missing.Matched,
		})
	case errors.Is(err, importer.ErrNoValidTransactions):
		logger.Debug("no valid transactions", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, importer.ErrInvalidEncoding), errors.Is(err, importer.ErrNoHeader):
		logger.Debug("unreadable upload", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, history.ErrNotFound), errors.Is(err, rules.ErrNotFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
