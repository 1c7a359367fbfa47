// Package handler exposes the grading core as a JSON API.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/mcqgrader/internal/export"
	"github.com/pavelanni/mcqgrader/internal/grader"
	"github.com/pavelanni/mcqgrader/internal/i18n"
	"github.com/pavelanni/mcqgrader/internal/model"
	"github.com/pavelanni/mcqgrader/internal/recognize"
	"github.com/pavelanni/mcqgrader/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	recognizer *recognize.Client
}

// New creates a new Handler.
func New(s *store.Store, r *recognize.Client) *Handler {
	return &Handler{store: s, recognizer: r}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/templates", h.handleListTemplates)
	r.Put("/templates/{courseCode}", h.handleSaveTemplate)
	r.Delete("/templates/{courseCode}", h.handleDeleteTemplate)
	r.Post("/grade", h.handleGrade)
	r.Get("/results", h.handleListResults)
	r.Get("/results.csv", h.handleExportResults)
	r.Delete("/results/{index}", h.handleDeleteResult)
	r.Delete("/results", h.handleClearResults)
	r.Post("/reset", h.handleReset)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates()
	if err != nil {
		slog.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	courseCode := chi.URLParam(r, "courseCode")

	var key model.AnswerKey
	if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidRequest"))
		return
	}

	if err := h.store.SaveTemplate(courseCode, key); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidCourseCode):
			writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidCourseCode"))
		case errors.Is(err, store.ErrInvalidChoice):
			writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidAnswerKey"))
		default:
			slog.Error("save template", "course", courseCode, "error", err)
			writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		}
		return
	}

	writeMessage(w, http.StatusOK, i18n.Td(r.Context(), "TemplateSaved", map[string]any{
		"Course": model.NormalizeCourseCode(courseCode),
		"Count":  len(key),
	}))
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	courseCode := chi.URLParam(r, "courseCode")
	if err := h.store.DeleteTemplate(courseCode); err != nil {
		slog.Error("delete template", "course", courseCode, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	writeMessage(w, http.StatusOK, i18n.Td(r.Context(), "TemplateDeleted", map[string]any{
		"Course": model.NormalizeCourseCode(courseCode),
	}))
}

type gradeRequest struct {
	CourseCode string `json:"course_code"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidRequest"))
		return
	}

	key, err := h.store.GetTemplate(req.CourseCode)
	if err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			writeError(w, http.StatusNotFound, i18n.Td(r.Context(), "TemplateNotFound", map[string]any{
				"Course": model.NormalizeCourseCode(req.CourseCode),
			}))
			return
		}
		slog.Error("get template", "course", req.CourseCode, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidRequest"))
		return
	}

	recognition, err := h.recognizer.GradeBase64(r.Context(), req.Filename, image)
	if err != nil {
		slog.Error("recognition failed", "course", req.CourseCode, "error", err)
		writeError(w, http.StatusBadGateway, i18n.T(r.Context(), "RecognitionFailed"))
		return
	}

	record, err := grader.Reconcile(key, recognition)
	if err != nil {
		slog.Error("reconcile failed", "course", req.CourseCode, "error", err)
		writeError(w, http.StatusUnprocessableEntity, i18n.T(r.Context(), "GradingFailed"))
		return
	}
	record.CourseCode = model.NormalizeCourseCode(req.CourseCode)
	record.Timestamp = time.Now()

	if err := h.store.AppendResult(record); err != nil {
		slog.Error("append result", "course", req.CourseCode, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}

	slog.Info("sheet graded",
		"course", record.CourseCode,
		"reg_number", record.RegNumber,
		"score", record.Score,
		"total", record.Total,
	)
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListResults()
	if err != nil {
		slog.Error("list results", "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	if records == nil {
		records = []model.GradedRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleExportResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListResults()
	if err != nil {
		slog.Error("export results", "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="graded_results.csv"`)
	if _, err := w.Write([]byte(export.CSV(records))); err != nil {
		slog.Error("write csv", "error", err)
	}
}

func (h *Handler) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, i18n.Td(r.Context(), "ResultIndexInvalid", map[string]any{
			"Index": chi.URLParam(r, "index"),
		}))
		return
	}

	if err := h.store.DeleteResultAt(index); err != nil {
		if errors.Is(err, store.ErrIndexOutOfRange) {
			writeError(w, http.StatusNotFound, i18n.Td(r.Context(), "ResultIndexInvalid", map[string]any{
				"Index": index,
			}))
			return
		}
		slog.Error("delete result", "index", index, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	writeMessage(w, http.StatusOK, i18n.T(r.Context(), "ResultDeleted"))
}

func (h *Handler) handleClearResults(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearResults(); err != nil {
		slog.Error("clear results", "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	writeMessage(w, http.StatusOK, i18n.T(r.Context(), "ResultsCleared"))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		slog.Error("reset", "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "StorageFailed"))
		return
	}
	writeMessage(w, http.StatusOK, i18n.T(r.Context(), "ResetDone"))
}
