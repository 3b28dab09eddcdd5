package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/talentpipe/importer/internal/core"
	"github.com/talentpipe/importer/internal/schema"
)

// defaultPageSize bounds review pages when the client does not specify.
const defaultPageSize = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// entityInfo describes one importable entity type.
type entityInfo struct {
	Type       schema.EntityType `json:"type"`
	Label      string            `json:"label"`
	NaturalKey string            `json:"naturalKey"`
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	types := schema.Types()
	infos := make([]entityInfo, 0, len(types))
	for _, t := range types {
		ent, ok := schema.Get(t)
		if !ok {
			continue
		}
		infos = append(infos, entityInfo{
			Type:       ent.Type,
			Label:      ent.Label,
			NaturalKey: ent.NaturalKey,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.service.Fields(chi.URLParam(r, "entityType"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	name, content, err := s.service.Template(chi.URLParam(r, "entityType"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeCSVDownload(w, name, content)
}

func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	name, content, err := s.service.Export(r.Context(), chi.URLParam(r, "entityType"), intQuery(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeCSVDownload(w, name, content)
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), chi.URLParam(r, "entityType"), intQuery(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.ImportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleCreateSession accepts a multipart upload (entityType field plus a
// single file) and starts an import session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+4096)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	entityType := r.FormValue("entityType")
	if entityType == "" {
		writeError(w, http.StatusBadRequest, "entityType is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	view, err := s.service.CreateSession(r.Context(), entityType, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// mappingRequest is one mapping mutation: map sourceColumn to targetField,
// or clear the association when targetField is empty.
type mappingRequest struct {
	SourceColumn string `json:"sourceColumn"`
	TargetField  string `json:"targetField"`
}

func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.SourceColumn == "" {
		writeError(w, http.StatusBadRequest, "sourceColumn is required")
		return
	}

	view, err := s.service.SetMapping(chi.URLParam(r, "sessionID"), req.SourceColumn, req.TargetField)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1)
	pageSize := intQuery(r, "pageSize", defaultPageSize)

	rows, err := s.service.Review(chi.URLParam(r, "sessionID"), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.ProjectedRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExecuteImport(w http.ResponseWriter, r *http.Request) {
	var opts core.Options
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	result, err := s.service.Execute(r.Context(), chi.URLParam(r, "sessionID"), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Reset(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeCSVDownload writes content as a CSV file attachment.
func writeCSVDownload(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(content)
}

// intQuery parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
