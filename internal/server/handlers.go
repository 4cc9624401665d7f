package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/budgetctl/budgetctl/internal/buildinfo"
	"github.com/budgetctl/budgetctl/internal/importer"
	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/service"
)

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": buildinfo.Version,
		})
	}
}

// upload is a statement file plus the form or query parameters sent with it.
type upload struct {
	data   []byte
	source string
	param  func(name string) string
}

// readUpload accepts either a multipart form with a "file" part or the raw
// CSV as the request body.
func readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return upload{}, fmt.Errorf("parsing multipart form: %w", err)
			}
			return upload{}, &service.ValidationError{Field: "file", Message: "malformed multipart body: " + err.Error()}
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return upload{}, &service.ValidationError{Field: "file", Message: "multipart part \"file\" is required"}
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return upload{}, fmt.Errorf("reading upload: %w", err)
		}
		return upload{data: data, source: hdr.Filename, param: r.FormValue}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return upload{}, fmt.Errorf("reading upload: %w", err)
	}
	q := r.URL.Query()
	return upload{data: data, source: q.Get("filename"), param: q.Get}, nil
}

func createAnalysisHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := readUpload(w, r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		weekStart, err := service.ParseWeekStart(up.param("week_start"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.Analyze(service.AnalyzeParams{
			Data:      up.data,
			WeekStart: weekStart,
			Source:    up.source,
			Mapping: importer.ColumnMapping{
				Date:        up.param("date_column"),
				Amount:      up.param("amount_column"),
				Description: up.param("description_column"),
				Balance:     up.param("balance_column"),
			},
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func listAnalysesHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.History(parseLimit(r, 10))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"analyses": summaries})
	}
}

func getAnalysisHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(chi.URLParam(r, "analysisId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func compareHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysisID := chi.URLParam(r, "analysisId")
		cmp, prevID, err := svc.Compare(analysisID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"analysis_id": analysisID,
			"previous_id": prevID,
			"comparison":  cmp,
		})
	}
}

func listUnassignedHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txns, err := svc.Unassigned()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
	}
}

type assignRequest struct {
	Category string `json:"category"`
	Phrase   string `json:"phrase"`
}

func assignCategoryHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := svc.Assign(service.AssignParams{
			TransactionID: chi.URLParam(r, "transactionId"),
			Category:      model.Category(req.Category),
			Phrase:        req.Phrase,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listRulesHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.Rules()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if rules == nil {
			rules = []model.CategoryRule{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
	}
}

func getRuleHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := svc.Rule(chi.URLParam(r, "ruleId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func deleteRuleHandler(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.DeleteRule(chi.URLParam(r, "ruleId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listCategoriesHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"categories": svc.Categories()})
	}
}
