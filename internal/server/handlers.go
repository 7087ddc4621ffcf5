package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/export"
	"github.com/Jamesybdp/VetaCV-AI/internal/generate"
	"github.com/Jamesybdp/VetaCV-AI/internal/history"
	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/internal/refine"
	"github.com/Jamesybdp/VetaCV-AI/internal/storage"
	"github.com/Jamesybdp/VetaCV-AI/pkg/utils"
)

type draftRequest struct {
	UserID     string             `json:"user_id"`
	SourceText string             `json:"source_text"`
	Goals      models.CareerGoals `json:"goals"`
}

type sessionResponse struct {
	SessionID      string   `json:"session_id"`
	Markup         string   `json:"markup"`
	DigitalSummary string   `json:"digital_summary"`
	ChangeLog      []string `json:"change_log,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceText == "" {
		s.respondError(w, http.StatusBadRequest, "source_text is required")
		return
	}
	if req.Goals.TargetRole == "" {
		s.respondError(w, http.StatusBadRequest, "goals.target_role is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.config.Generator.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := s.generator.Draft(ctx, req.SourceText, req.Goals)
	if err != nil {
		s.logger.Error("draft generation failed", zap.Error(err))
		s.respondGenerationError(w, err)
		return
	}

	sessionID := uuid.NewString()
	state := models.NewDocumentState(result.Markup, result.DigitalSummary)
	s.refiner.CreateSession(sessionID, state, models.RefinementContext{
		TargetRole:     req.Goals.TargetRole,
		TargetIndustry: req.Goals.Industry,
	})
	s.logger.Info("draft session created",
		zap.String("session", sessionID),
		zap.String("target_role", req.Goals.TargetRole))

	s.respondJSON(w, http.StatusCreated, sessionResponse{
		SessionID:      sessionID,
		Markup:         result.Markup,
		DigitalSummary: result.DigitalSummary,
		ChangeLog:      result.ChangeLog,
		Suggestions:    result.Suggestions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.currentState(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":      id,
		"markup":          state.Markup,
		"digital_summary": state.DigitalSummary,
		"created_at":      state.CreatedAt,
	})
}

// handleDeleteSession discards a session: the live registry entry (with any
// pending snapshot write) and the persisted snapshot both go.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	live := s.refiner.DeleteSession(id)
	err := s.storage.DeleteSnapshot(r.Context(), id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("session delete failed", zap.String("session", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !live && errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Info("session deleted", zap.String("session", id))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// currentState resolves the session's current state, reviving the session
// from its persisted snapshot when it is not live in memory.
func (s *Server) currentState(ctx context.Context, sessionID string) (models.DocumentState, error) {
	state, err := s.refiner.Current(sessionID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, refine.ErrNoSession) {
		return models.DocumentState{}, err
	}
	states, cursor, loadErr := s.storage.LoadSnapshot(ctx, sessionID)
	if loadErr != nil {
		return models.DocumentState{}, err
	}
	s.refiner.RestoreSession(sessionID, states, cursor, models.RefinementContext{})
	s.logger.Info("session restored from snapshot",
		zap.String("session", sessionID),
		zap.Int("states", len(states)))
	return s.refiner.Current(sessionID)
}

type refineRequest struct {
	Request string `json:"request"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Request == "" {
		s.respondError(w, http.StatusBadRequest, "request is required")
		return
	}
	if _, err := s.currentState(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	result, state, err := s.refiner.Refine(r.Context(), id, req.Request)
	if err != nil {
		switch {
		case errors.Is(err, refine.ErrBusy):
			s.respondError(w, http.StatusConflict, "a refinement is already in flight for this session")
		case errors.Is(err, refine.ErrNoSession):
			s.respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, context.DeadlineExceeded):
			s.respondError(w, http.StatusGatewayTimeout, "generation timed out")
		default:
			s.logger.Error("refinement failed", zap.String("session", id), zap.Error(err))
			s.respondGenerationError(w, err)
		}
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":        id,
		"markup":            state.Markup,
		"digital_summary":   state.DigitalSummary,
		"derived_artifacts": result.DerivedArtifacts,
		"change_log":        result.ChangeLog,
		"suggestions":       result.Suggestions,
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleStep(w, r, s.refiner.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleStep(w, r, s.refiner.Redo)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, op func(string) (models.DocumentState, error)) {
	id := chi.URLParam(r, "id")
	if _, err := s.currentState(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	state, err := op(id)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrAtStart), errors.Is(err, history.ErrAtEnd):
			// Boundary hits are expected client behavior, not faults.
			s.respondJSON(w, http.StatusConflict, map[string]interface{}{
				"error":       err.Error(),
				"at_boundary": true,
			})
		case errors.Is(err, refine.ErrBusy):
			s.respondError(w, http.StatusConflict, "a refinement is already in flight for this session")
		case errors.Is(err, refine.ErrNoSession):
			s.respondError(w, http.StatusNotFound, "session not found")
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":      id,
		"markup":          state.Markup,
		"digital_summary": state.DigitalSummary,
	})
}

type exportRequest struct {
	FileName string `json:"file_name"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req exportRequest
	// Body is optional; an empty body exports under the default name.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.FileName == "" {
		req.FileName = "cv"
	}

	state, err := s.currentState(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	res, err := s.exporter.Export(r.Context(), state, req.FileName)
	if res != nil {
		if recErr := s.storage.RecordOutcome(r.Context(), id, res.Outcome); recErr != nil {
			s.logger.Warn("failed to record export outcome", zap.Error(recErr))
		}
	}
	if err != nil {
		var exportErr *export.ExportError
		if errors.As(err, &exportErr) {
			s.logger.Error("export failed on every tier",
				zap.String("session", id),
				zap.String("reason", exportErr.Reason))
			s.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":   exportErr.Error(),
				"outcome": res.Outcome,
			})
			return
		}
		s.logger.Error("export aborted", zap.String("session", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored := id + "_" + res.Artifact.FileName
	if path, werr := storage.WriteArtifact(s.config.Storage.ArtifactsDir, stored, res.Artifact.Data); werr != nil {
		s.logger.Warn("failed to persist artifact", zap.Error(werr))
	} else {
		s.logger.Info("artifact written",
			zap.String("session", id),
			zap.String("path", path),
			zap.String("kind", string(res.Artifact.Kind)))
	}

	w.Header().Set("Content-Type", res.Artifact.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Artifact.FileName))
	w.Header().Set("X-Export-Degraded", strconv.FormatBool(res.Outcome.Degraded))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact.Data)
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	outcomes, err := s.storage.ListOutcomes(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("list outcomes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"outcomes": outcomes})
}

type repairRequest struct {
	Markup string `json:"markup"`
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := s.repairer.Repair(req.Markup)
	verdict := s.scorer.Score(result.InnerHTML)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"health": verdict,
	})
}

type archiveSaveRequest struct {
	SessionID  string             `json:"session_id"`
	UserID     string             `json:"user_id"`
	TargetRole string             `json:"target_role"`
	Goals      models.CareerGoals `json:"goals"`
}

func (s *Server) handleArchiveSave(w http.ResponseWriter, r *http.Request) {
	var req archiveSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id and user_id are required")
		return
	}
	state, err := s.currentState(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	role := req.TargetRole
	if role == "" {
		role = req.Goals.TargetRole
	}

	doc := &models.SavedDocument{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		TargetRole:  role,
		PreviewText: utils.Truncate(utils.StripTags(state.Markup), 200),
		State:       state,
		Goals:       req.Goals,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.storage.SaveDocument(r.Context(), doc); err != nil {
		s.logger.Error("archive save failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.archive != nil {
		if err := s.archive.IndexDocument(r.Context(), doc); err != nil {
			s.logger.Warn("archive indexing failed", zap.String("id", doc.ID), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "status": "archived"})
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	docs, err := s.storage.ListDocuments(r.Context(), userID, offset, limit)
	if err != nil {
		s.logger.Error("archive list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleArchiveSearch(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.respondError(w, http.StatusNotImplemented, "archive index not enabled")
		return
	}
	userID := r.URL.Query().Get("user_id")
	query := r.URL.Query().Get("q")
	if userID == "" || query == "" {
		s.respondError(w, http.StatusBadRequest, "user_id and q are required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := s.archive.Search(r.Context(), userID, query, limit)
	if err != nil {
		s.logger.Error("archive search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type searchResult struct {
		ID         string  `json:"id"`
		Score      float64 `json:"score"`
		TargetRole string  `json:"target_role"`
		Preview    string  `json:"preview_text"`
	}
	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.storage.GetDocument(r.Context(), hit.ID)
		if err != nil {
			// Index entry with no row behind it; skip rather than fail the page.
			s.logger.Warn("indexed document missing from storage", zap.String("id", hit.ID))
			continue
		}
		results = append(results, searchResult{
			ID:         doc.ID,
			Score:      hit.Score,
			TargetRole: doc.TargetRole,
			Preview:    doc.PreviewText,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.archive != nil {
		if err := s.archive.Delete(r.Context(), id); err != nil {
			s.logger.Warn("archive index delete failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	var job models.JobApplication
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if job.UserID == "" || job.Company == "" || job.Role == "" {
		s.respondError(w, http.StatusBadRequest, "user_id, company, and role are required")
		return
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if err := s.storage.CreateJob(r.Context(), &job); err != nil {
		s.logger.Error("job create failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, job)
}

func (s *Server) handleJobList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	jobs, err := s.storage.ListJobs(r.Context(), userID)
	if err != nil {
		s.logger.Error("job list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.storage.GetJob(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

type jobUpdateRequest struct {
	Status models.JobStatus `json:"status"`
	Notes  string           `json:"notes"`
}

func (s *Server) handleJobUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req jobUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		s.respondError(w, http.StatusBadRequest, "status is required")
		return
	}
	if err := s.storage.UpdateJobStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

func (s *Server) handleJobDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteJob(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snapCount, err := s.storage.CountSnapshots(ctx)
	if err != nil {
		s.logger.Error("status: count snapshots failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents":       docCount,
		"sessions":        snapCount,
		"recent_outcomes": s.exporter.Outcomes(),
	}
	if s.archive != nil {
		if n, err := s.archive.DocCount(); err == nil {
			resp["indexed_documents"] = n
		}
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.ArtifactsDir,
		s.config.Storage.ArchiveIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]interface{}{
		"model":              s.config.Generator.Model,
		"database_path":      s.config.Storage.DatabasePath,
		"artifacts_dir":      s.config.Storage.ArtifactsDir,
		"archive_index_path": s.config.Storage.ArchiveIndexPath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondGenerationError maps generator failures onto upstream-error codes.
func (s *Server) respondGenerationError(w http.ResponseWriter, err error) {
	var genErr *generate.GenerationError
	if errors.As(err, &genErr) {
		s.respondError(w, http.StatusBadGateway, genErr.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
