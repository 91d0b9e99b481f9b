package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/leech"
	"github.com/lazypower/reprise/internal/store"
)

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question  string   `json:"question" validate:"required,max=10000"`
		Answer    string   `json:"answer" validate:"max=10000"`
		Category  string   `json:"category" validate:"max=200"`
		Priority  int      `json:"priority" validate:"omitempty,min=1,max=100"`
		Tags      []string `json:"tags" validate:"max=50,dive,max=100"`
		ExtractID *string  `json:"extract_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	it := &store.Item{
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
		Priority:  req.Priority,
		Tags:      req.Tags,
		ExtractID: req.ExtractID,
	}
	if err := s.engine.DB.CreateItem(r.Context(), it); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, err := s.engine.DB.GetItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Rating       ratingValue `json:"rating"`
		ResponseTime *int        `json:"response_time" validate:"omitempty,min=0"`
		At           *time.Time  `json:"at"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Rating.set {
		writeError(w, http.StatusBadRequest, "rating required")
		return
	}

	res, err := s.engine.ApplyRating(r.Context(), id, req.Rating.Rating, s.requestTime(req.At), req.ResponseTime)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prev, err := s.engine.PreviewItem(r.Context(), id, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make(map[string]fsrs.ScheduleResult, len(prev))
	for rating, res := range prev {
		out[rating.String()] = res
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.engine.ItemMetrics(r.Context(), id, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.engine.ItemDifficulty(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":    m,
		"difficulty": d,
	})
}

func (s *Server) handleTreatment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Strategy string `json:"strategy" validate:"required,oneof=relearn simplify hint mnemonic"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	ok, err := s.engine.ApplyTreatment(r.Context(), id, leech.Strategy(req.Strategy), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": ok, "strategy": req.Strategy})
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	refs, err := s.engine.SelectDue(r.Context(), queryFilter(r), queryInt(r, "limit", 0), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": refs, "count": len(refs)})
}

// handleLeeches scans with the engine's thresholds, each overridable by
// query parameter. ?treatments=true attaches a suggested treatment.
func (s *Server) handleLeeches(w http.ResponseWriter, r *http.Request) {
	cfg := s.engine.Leech
	cfg.LeechThreshold = queryInt(r, "leech_threshold", cfg.LeechThreshold)
	cfg.RecentReviewsWindow = queryInt(r, "recent_reviews_window", cfg.RecentReviewsWindow)
	cfg.MaxFailRatio = queryFloat(r, "max_fail_ratio", cfg.MaxFailRatio)
	cfg.ConsecutiveFails = queryInt(r, "consecutive_fails", cfg.ConsecutiveFails)

	if r.URL.Query().Get("treatments") == "true" {
		sugg, err := s.engine.SuggestTreatments(r.Context(), cfg)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leeches": sugg, "count": len(sugg)})
		return
	}

	recs, err := s.engine.DetectLeeches(r.Context(), cfg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leeches": recs, "count": len(recs)})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	refs, err := s.engine.IncrementalQueue(r.Context(), queryInt(r, "limit", 20), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": refs, "count": len(refs)})
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.QueueStats(r.Context(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive")
		return
	}
	sess, err := s.engine.SessionSummary(r.Context(), days, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	eff, err := s.engine.Efficiency(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "efficiency": eff})
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	rep, err := s.engine.RunPriorityMaintenance(r.Context(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
