package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"guidegen/internal/export"
	"guidegen/internal/extract"
	"guidegen/internal/httperr"
	"guidegen/internal/logger"
	"guidegen/internal/models"
	"guidegen/internal/schedule"
	"guidegen/internal/services"
	"guidegen/internal/store"
)

const maxMultipartMemory = 32 << 20 // 32 MB

// ModelKeyHeader carries a per-request override of the text-generation
// credential.
const ModelKeyHeader = "X-Model-Api-Key"

// Generator produces study materials from extracted text.
type Generator interface {
	Generate(ctx context.Context, apiKey string, text string) (*models.Materials, error)
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}

// Verifier resolves the caller's identity from a request.
type Verifier interface {
	Identity(r *http.Request) string
	RequireIdentity(r *http.Request) (string, error)
}

type Server struct {
	mux       *http.ServeMux
	log       *logger.Logger
	guides    store.GuideStore
	extractor *extract.Registry
	generator Generator
	verifier  Verifier

	defaultModelKey string
	uploadDir       string
}

func NewServer(
	log *logger.Logger,
	guides store.GuideStore,
	extractor *extract.Registry,
	generator Generator,
	verifier Verifier,
	defaultModelKey string,
) *Server {
	s := &Server{
		mux:             http.NewServeMux(),
		log:             log.With("component", "api"),
		guides:          guides,
		extractor:       extractor,
		generator:       generator,
		verifier:        verifier,
		defaultModelKey: defaultModelKey,
		uploadDir:       os.TempDir(),
	}
	s.routes()
	return s
}

// Handler returns the routing table wrapped with CORS injection, the OPTIONS
// short-circuit and panic recovery.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCORSHeaders(w)

		// Preflight is answered for every path, known or not.
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, fmt.Sprint(rec))
			}
		}()

		s.mux.ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/guides", s.handleListGuides)
	s.mux.HandleFunc("/api/guide/", s.handleGuideActions)
	s.mux.HandleFunc("/api/export/", s.handleExport)
	s.mux.HandleFunc("/api/models", s.handleListModels)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, httperr.NotFound("Not found"))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	apiKey := s.modelKey(r)
	if apiKey == "" {
		s.fail(w, httperr.Input("Model API key is missing. Provide one or configure a default."))
		return
	}

	owner := s.verifier.Identity(r)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.fail(w, httperr.Input("invalid multipart form"))
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, httperr.Input("No file provided"))
		return
	}
	defer file.Close()

	filename := strings.ToLower(header.Filename)
	ext := filepath.Ext(filename)
	if !s.extractor.Supported(ext) {
		s.fail(w, httperr.Input("Unsupported file type %q", ext))
		return
	}

	tmpPath, err := s.saveUpload(file, ext)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer os.Remove(tmpPath)

	text, err := s.extractor.Extract(r.Context(), tmpPath, ext)
	if err != nil {
		s.fail(w, err)
		return
	}

	materials, err := s.generator.Generate(r.Context(), apiKey, text)
	if err != nil {
		s.fail(w, err)
		return
	}

	guide := &models.Guide{
		ID:         store.NewGuideID(),
		Title:      materials.Title,
		Summary:    materials.Summary,
		FlashCards: materials.FlashCards,
		Quiz:       materials.Quiz,
		UserID:     owner,
		Filename:   filename,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.guides.Put(r.Context(), guide); err != nil {
		s.fail(w, err)
		return
	}

	s.log.Info("guide created", "id", guide.ID, "filename", filename, "owner", owner)
	writeJSON(w, http.StatusOK, map[string]string{"id": guide.ID, "title": guide.Title})
}

// saveUpload writes the multipart file to a process-unique temp path. The
// caller removes it once extraction is done, whichever way it went.
func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	tmpPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("save upload: %w", err)
	}
	return tmpPath, nil
}

func (s *Server) handleListGuides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	viewer := s.verifier.Identity(r)
	guides, err := s.guides.List(r.Context(), viewer)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guides": guides})
}

func (s *Server) handleGuideActions(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/guide/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			s.handleGetGuide(w, r, id)
		case http.MethodDelete:
			s.handleDeleteGuide(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "schedule":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.handleGuideSchedule(w, r, parts[0])
	default:
		s.fail(w, httperr.NotFound("Not found"))
	}
}

func (s *Server) handleGetGuide(w http.ResponseWriter, r *http.Request, id string) {
	guide, err := s.guides.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guide)
}

func (s *Server) handleDeleteGuide(w http.ResponseWriter, r *http.Request, id string) {
	requester, err := s.verifier.RequireIdentity(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.guides.Delete(r.Context(), id, requester); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("guide deleted", "id", id, "requester", requester)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGuideSchedule(w http.ResponseWriter, r *http.Request, id string) {
	guide, err := s.guides.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	plans := schedule.Plan(guide.FlashCards, time.Now(), 5)
	writeJSON(w, http.StatusOK, map[string]any{"id": guide.ID, "schedule": plans})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/export/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		s.fail(w, httperr.NotFound("Not found"))
		return
	}
	kind, id := parts[0], parts[1]

	guide, err := s.guides.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	var doc io.WriterTo
	switch kind {
	case "quiz":
		doc = export.Quiz(guide.Quiz)
	case "flashcards":
		doc = export.Flashcards(guide.FlashCards)
	case "summary":
		doc = export.Summary(guide.Summary)
	default:
		s.fail(w, httperr.NotFound("Not found"))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_%s.docx", kind, id))
	if _, err := doc.WriteTo(w); err != nil {
		s.log.Error("failed to stream export", "kind", kind, "id", id, "error", err)
	}
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	apiKey := s.modelKey(r)
	if apiKey == "" {
		s.fail(w, httperr.Input("Model API key is missing. Provide one or configure a default."))
		return
	}

	names, err := s.generator.ListModels(r.Context(), apiKey)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": names})
}

// modelKey resolves the text-generation credential: request header first,
// then the process-wide default.
func (s *Server) modelKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(ModelKeyHeader)); key != "" {
		return key
	}
	return strings.TrimSpace(s.defaultModelKey)
}

// fail maps an error to its HTTP status and writes the JSON error body.
func (s *Server) fail(w http.ResponseWriter, err error) {
	he := translate(err)
	if he.Status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, he.Status, he.Error())
}

// translate folds the stores' and extractors' sentinel errors into the
// httperr taxonomy. Errors outside it become a 500 carrying the error's text.
func translate(err error) *httperr.Error {
	var he *httperr.Error
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, store.ErrNotFound):
		return httperr.NotFound("Guide not found")
	case errors.Is(err, store.ErrForbidden):
		return httperr.Forbidden("Forbidden")
	case errors.Is(err, extract.ErrUnsupported), errors.Is(err, extract.ErrEmptyText):
		return httperr.Input("%s", err.Error())
	case errors.Is(err, services.ErrMissingAPIKey):
		return httperr.Input("Model API key is missing. Provide one or configure a default.")
	default:
		return httperr.Internal(err)
	}
}

func writeCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+ModelKeyHeader)
	h.Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
