package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/registry"
	"github.com/divu-hq/module-builder/internal/uploads"
)

// Module handlers

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	filters := models.ModuleFilters{
		CreatedBy: r.URL.Query().Get("created_by"),
		Limit:     50, // default
		Offset:    0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	modules, err := s.repo.ListModules(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list modules", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list modules")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"modules": modules,
		"total":   len(modules),
	})
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "module id is required")
		return
	}

	m, err := s.repo.GetModule(r.Context(), id)
	if err != nil {
		slog.Error("failed to get module", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get module")
		return
	}
	if m == nil {
		respondError(w, http.StatusNotFound, "not_found", "module not found")
		return
	}

	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "module id is required")
		return
	}

	if err := s.repo.DeleteModule(r.Context(), id); err != nil {
		slog.Error("failed to delete module", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete module")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "module deleted",
	})
}

// Section kind catalog

func (s *Server) handleListSectionKinds(w http.ResponseWriter, r *http.Request) {
	kinds := registry.Kinds()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"kinds": kinds,
		"total": len(kinds),
	})
}

// Blueprint handlers

func (s *Server) handleListBlueprints(w http.ResponseWriter, r *http.Request) {
	bps := s.blueprintLoader.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blueprints": bps,
		"total":      len(bps),
	})
}

func (s *Server) handleGetBlueprint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "blueprint id is required")
		return
	}

	bp := s.blueprintLoader.Get(id)
	if bp == nil {
		respondError(w, http.StatusNotFound, "not_found", "blueprint not found")
		return
	}

	respondJSON(w, http.StatusOK, bp)
}

// Upload handlers

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploads.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "file field is required")
		return
	}
	defer file.Close()

	path, err := s.uploadStore.Save(header.Filename, file)
	if err != nil {
		slog.Warn("upload rejected", "filename", header.Filename, "error", err)
		respondError(w, http.StatusUnprocessableEntity, "upload_failed", err.Error())
		return
	}

	slog.Info("file uploaded", "path", path, "size", header.Size)

	if actor := actorFromRequest(r); actor.ID != "" {
		s.hub.Notify(notify.Notice{
			AuthorID: actor.ID,
			Severity: notify.SeveritySuccess,
			Message:  "File uploaded successfully.",
			SentAt:   time.Now().UTC(),
		})
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"media_path": path,
	})
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	storagePath := "uploads/" + name

	f, err := s.uploadStore.Open(storagePath)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", uploads.ContentType(storagePath))
	if _, err := io.Copy(w, f); err != nil {
		slog.Debug("failed to stream upload", "path", storagePath, "error", err)
	}
}

// Notices websocket

func (s *Server) handleNoticesWS(w http.ResponseWriter, r *http.Request) {
	authorID := r.URL.Query().Get("author_id")
	if authorID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "author_id is required")
		return
	}

	s.hub.ServeWS(w, r, authorID)
}
