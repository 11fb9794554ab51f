package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/divu-hq/module-builder/internal/models"
)

// Draft lifecycle handlers

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.AuthorID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "author_id is required")
		return
	}

	d, err := s.builder.CreateDraft(r.Context(), req)
	if err != nil {
		respondBuilderError(w, err, "failed to create draft")
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "draft id is required")
		return
	}

	d, err := s.builder.GetDraft(r.Context(), id)
	if err != nil {
		respondBuilderError(w, err, "failed to get draft")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleResumeDraft(w http.ResponseWriter, r *http.Request) {
	authorID := r.URL.Query().Get("author_id")
	if authorID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "author_id is required")
		return
	}

	d, err := s.builder.ResumeDraft(r.Context(), authorID)
	if err != nil {
		respondBuilderError(w, err, "failed to resume draft")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	filters := models.DraftFilters{
		AuthorID: r.URL.Query().Get("author_id"),
		Limit:    50, // default
		Offset:   0,
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

	drafts, err := s.builder.ListDrafts(r.Context(), filters)
	if err != nil {
		respondBuilderError(w, err, "failed to list drafts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": drafts,
		"total":  len(drafts),
	})
}

func (s *Server) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := s.builder.UpdateInfo(r.Context(), actorFromRequest(r), id, req)
	if err != nil {
		respondBuilderError(w, err, "failed to update draft info")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SetStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := s.builder.SetStep(r.Context(), actorFromRequest(r), id, req.Step)
	if err != nil {
		respondBuilderError(w, err, "failed to change step")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := s.builder.Publish(r.Context(), actorFromRequest(r), id)
	if err != nil {
		respondBuilderError(w, err, "failed to publish module")
		return
	}

	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) handleRequestAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := s.builder.RequestAbandon(r.Context(), id)
	if err != nil {
		respondBuilderError(w, err, "failed to request abandon")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.ConfirmAbandonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.builder.ConfirmAbandon(r.Context(), id, req.ConfirmToken); err != nil {
		respondBuilderError(w, err, "failed to abandon draft")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "draft abandoned",
	})
}

// Page handlers

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.AddPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SectionType == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "section_type is required")
		return
	}

	res, err := s.builder.AddPage(r.Context(), actorFromRequest(r), id, req)
	if err != nil {
		respondBuilderError(w, err, "failed to add page")
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRemovePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")

	res, err := s.builder.RemovePage(r.Context(), actorFromRequest(r), id, pageID)
	if err != nil {
		respondBuilderError(w, err, "failed to remove page")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleDuplicatePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")

	res, err := s.builder.DuplicatePage(r.Context(), actorFromRequest(r), id, pageID)
	if err != nil {
		respondBuilderError(w, err, "failed to duplicate page")
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRenamePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")

	var req models.RenamePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := s.builder.RenamePage(r.Context(), actorFromRequest(r), id, pageID, req.Name)
	if err != nil {
		respondBuilderError(w, err, "failed to rename page")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// Section handlers

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")

	var req models.AddSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SectionType == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "section_type is required")
		return
	}

	d, err := s.builder.AddSection(r.Context(), actorFromRequest(r), id, pageID, req.SectionType)
	if err != nil {
		respondBuilderError(w, err, "failed to add section")
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")
	sectionID := chi.URLParam(r, "sectionID")

	var patch models.SectionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := s.builder.UpdateSection(r.Context(), actorFromRequest(r), id, pageID, sectionID, patch)
	if err != nil {
		respondBuilderError(w, err, "failed to update section")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")
	sectionID := chi.URLParam(r, "sectionID")

	d, err := s.builder.RemoveSection(r.Context(), actorFromRequest(r), id, pageID, sectionID)
	if err != nil {
		respondBuilderError(w, err, "failed to remove section")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")
	sectionID := chi.URLParam(r, "sectionID")

	var req models.MoveSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := s.builder.MoveSection(r.Context(), actorFromRequest(r), id, pageID, sectionID, req.Direction)
	if err != nil {
		respondBuilderError(w, err, "failed to move section")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleAppendItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")
	sectionID := chi.URLParam(r, "sectionID")

	d, err := s.builder.AppendItem(r.Context(), actorFromRequest(r), id, pageID, sectionID)
	if err != nil {
		respondBuilderError(w, err, "failed to append item")
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageID := chi.URLParam(r, "pageID")
	sectionID := chi.URLParam(r, "sectionID")

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "item index must be an integer")
		return
	}

	d, err := s.builder.RemoveItem(r.Context(), actorFromRequest(r), id, pageID, sectionID, index)
	if err != nil {
		respondBuilderError(w, err, "failed to remove item")
		return
	}

	respondJSON(w, http.StatusOK, d)
}
