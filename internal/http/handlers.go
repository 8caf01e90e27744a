package http

import (
	"bytes"
	"fmt"
	"net/http"

	"timetracker/internal/transfer"
)

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

// handleSaveData replaces the whole snapshot with the request body.
func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	snap, err := transfer.Import(http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize))
	if err != nil {
		respondError(w, r, err, "Failed to save data")
		return
	}
	if _, err := s.tracker.Replace(r.Context(), snap); err != nil {
		respondError(w, r, err, "Failed to save data")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to create category")
		return
	}
	c, err := s.tracker.CreateCategory(r.Context(), req.toCategory())
	if err != nil {
		respondError(w, r, err, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to update category")
		return
	}
	c, err := s.tracker.UpdateCategory(r.Context(), r.PathValue("id"), req.toCategory())
	if err != nil {
		respondError(w, r, err, "Failed to update category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCategory also removes the category's projects and their entries.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to create project")
		return
	}
	p, err := s.tracker.CreateProject(r.Context(), req.toProject())
	if err != nil {
		respondError(w, r, err, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to update project")
		return
	}
	p, err := s.tracker.UpdateProject(r.Context(), r.PathValue("id"), req.toProject())
	if err != nil {
		respondError(w, r, err, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req timeEntryRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to create time entry")
		return
	}
	entry, err := req.toTimeEntry()
	if err != nil {
		respondError(w, r, err, "Failed to create time entry")
		return
	}
	entry, err = s.tracker.CreateTimeEntry(r.Context(), entry)
	if err != nil {
		respondError(w, r, err, "Failed to create time entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req timeEntryRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		respondError(w, r, err, "Failed to update time entry")
		return
	}
	entry, err := req.toTimeEntry()
	if err != nil {
		respondError(w, r, err, "Failed to update time entry")
		return
	}
	entry, err = s.tracker.UpdateTimeEntry(r.Context(), r.PathValue("id"), entry)
	if err != nil {
		respondError(w, r, err, "Failed to update time entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteTimeEntry(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err, "Failed to delete time entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves the backup document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.tracker.Export(&buf)
	if err != nil {
		respondError(w, r, err, "Failed to export data")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport replaces the snapshot with an uploaded backup document. A
// malformed document is rejected as a whole.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.tracker.Import(r.Context(), http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize))
	if err != nil {
		respondError(w, r, err, "Failed to import data")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
