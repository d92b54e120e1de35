package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nmorozov/docpipe/internal/config"
	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
	"github.com/nmorozov/docpipe/internal/observability/metrics"
)

type Router struct {
	cfg     config.Config
	submit  ports.DocumentSubmitter
	status  ports.StatusResolver
	listing ports.ResultLister
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	submit ports.DocumentSubmitter,
	status ports.StatusResolver,
	listing ports.ResultLister,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		submit:  submit,
		status:  status,
		listing: listing,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/upload", rt.uploadDocument)
	mux.HandleFunc("/results", rt.getResults)
	mux.HandleFunc("/documents", rt.listDocuments)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.UploadRateRPS, rt.cfg.UploadRateBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, inFlightWait(rt.cfg))
	handler = corsMiddleware(handler)
	handler = rt.metrics.Middleware("api", handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rt.metrics.RecordUpload("api", "rejected", 0)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	msg, err := rt.submit.Submit(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if status == http.StatusBadRequest {
			rt.metrics.RecordUpload("api", "rejected", 0)
			writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
			return
		}
		rt.metrics.RecordUpload("api", "failed", 0)
		writeJSON(w, status, map[string]any{
			"success": false,
			"error":   "failed to store and queue the document",
			"details": err.Error(),
		})
		return
	}

	rt.metrics.RecordUpload("api", "accepted", msg.FileSize)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"docId":    msg.DocID,
		"fileName": msg.FileName,
		"fileSize": msg.FileSize,
		"message":  "document uploaded and queued for processing",
	})
}

type completedResponse struct {
	Status domain.LifecycleState `json:"status"`
	domain.ResultRecord
}

func (rt *Router) getResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	docID := strings.TrimSpace(r.URL.Query().Get("docId"))
	if docID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "docId query parameter is required"})
		return
	}

	state, record, err := rt.status.Resolve(r.Context(), docID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	switch state {
	case domain.StateCompleted:
		writeJSON(w, http.StatusOK, completedResponse{Status: state, ResultRecord: *record})
	case domain.StateProcessing:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  state,
			"docId":   docID,
			"message": "document is still being processed",
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status": domain.StateNotFound,
			"docId":  docID,
			"error":  "no document found for this id",
		})
	}
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	entries, err := rt.listing.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []domain.DocumentEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(entries),
		"documents": entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
