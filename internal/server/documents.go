package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/reprise/internal/store"
)

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string   `json:"title" validate:"required,max=1000"`
		Source   string   `json:"source" validate:"max=2000"`
		Category string   `json:"category" validate:"max=200"`
		Priority int      `json:"priority" validate:"omitempty,min=1,max=100"`
		Tags     []string `json:"tags" validate:"max=50,dive,max=100"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	d := &store.Document{
		Title:      req.Title,
		Source:     req.Source,
		Category:   req.Category,
		Priority:   req.Priority,
		Tags:       req.Tags,
		ImportedAt: s.now().UnixMilli(),
	}
	if err := s.engine.DB.CreateDocument(r.Context(), d); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Rating ratingValue `json:"rating"`
		At     *time.Time  `json:"at"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Rating.set {
		writeError(w, http.StatusBadRequest, "rating required")
		return
	}

	res, err := s.engine.ScheduleDocument(r.Context(), id, req.Rating.Rating, s.requestTime(req.At))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDocumentPriority(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Priority int `json:"priority" validate:"required,min=1,max=100"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.SetDocumentPriority(r.Context(), id, req.Priority); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "priority": req.Priority})
}

func (s *Server) handleAddExtract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Content  string `json:"content" validate:"required"`
		Priority int    `json:"priority" validate:"omitempty,min=1,max=100"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	x, err := s.engine.AddExtract(r.Context(), id, req.Content, req.Priority, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, x)
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Content string `json:"content"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	hid, err := s.engine.AddHighlight(r.Context(), id, req.Content, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": hid, "document_id": id})
}

func (s *Server) handleNextDocuments(w http.ResponseWriter, r *http.Request) {
	refs, err := s.engine.NextDocuments(r.Context(), queryFilter(r), queryInt(r, "count", 5), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": refs, "count": len(refs)})
}
