// Package httpapi implements the HTTP surface (C9, spec §4.9, §6.2): a
// chi router exposing the extract, progress, health, and service-info
// endpoints, following the teacher's cmd/coreml_inference_server router
// setup.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/orchestrator"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/progress"
)

// Server wires the batch orchestrator and progress tracker behind an
// HTTP router.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	tracker      *progress.Tracker
	validate     *validator.Validate
	logger       *log.Logger
}

// New builds a Server.
func New(orch *orchestrator.Orchestrator, tracker *progress.Tracker, logger *log.Logger) *Server {
	return &Server{
		orchestrator: orch,
		tracker:      tracker,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Router builds the chi.Mux serving all four endpoints under
// /api/document-text-extraction (spec §6.2).
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		Debug:            false,
	}).Handler)

	r.Route("/api/document-text-extraction", func(r chi.Router) {
		r.Get("/", s.serviceInfoHandler)
		r.Post("/extract", s.extractHandler)
		r.Get("/progress/{batch_id}", s.progressHandler)
		r.Get("/health", s.healthHandler)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// extractRequest is the POST /extract payload, spec §6.2.
type extractRequest struct {
	QueueIDs []int64 `json:"queue_ids" validate:"required,min=1"`
	BatchID  string  `json:"batch_id"`
}

type extractResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	ProcessedCount int      `json:"processed_count"`
	FailedCount    int      `json:"failed_count"`
	BatchID        string   `json:"batch_id"`
	Results        []string `json:"results"`
}

// extractHandler validates the payload, obtains a batch id, spawns the
// orchestrator asynchronously, and returns immediately (spec §4.9).
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	batchID := s.tracker.StartWithID(req.BatchID, req.QueueIDs)

	go s.orchestrator.Run(context.Background(), req.QueueIDs, batchID)

	writeJSON(w, http.StatusOK, extractResponse{
		Success:        true,
		Message:        "extraction started",
		ProcessedCount: 0,
		FailedCount:    0,
		BatchID:        batchID,
		Results:        []string{},
	})
}

// progressHandler returns the tracker snapshot, or a synthetic completed
// snapshot for an unknown batch id (spec §4.6, §6.2).
func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")

	snap := s.tracker.Get(batchID)
	if snap == nil {
		snap = &progress.Snapshot{
			Status:             progress.StatusCompleted,
			ProgressPercentage: 100,
			Results:            []progress.DocumentResult{},
			Errors:             []string{},
		}
	}
	writeJSON(w, http.StatusOK, snap)
}

type healthResponse struct {
	Service      string   `json:"service"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Service: "document_text_extraction",
		Status:  "healthy",
		Capabilities: []string{
			"pdf_download",
			"ocr_and_text_extraction",
			"text_file_storage",
		},
	})
}

type serviceInfoResponse struct {
	Service     string   `json:"service"`
	Description string   `json:"description"`
	Endpoints   []string `json:"endpoints"`
}

// serviceInfoHandler serves the static service-info descriptor at "/"
// (SPEC_FULL.md §5).
func (s *Server) serviceInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceInfoResponse{
		Service:     "document_text_extraction",
		Description: "Extracts text from PDF documents, falling back to OCR when primary extraction yields low-quality text.",
		Endpoints: []string{
			"POST /api/document-text-extraction/extract",
			"GET /api/document-text-extraction/progress/{batch_id}",
			"GET /api/document-text-extraction/health",
		},
	})
}
