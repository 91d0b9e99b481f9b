package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/leech"
	"github.com/lazypower/reprise/internal/queue"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps engine errors onto status codes. Anything unrecognised is a 500
// and gets logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, leech.ErrInvalidConfig),
		errors.Is(err, leech.ErrUnknownStrategy),
		errors.Is(err, fsrs.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s failed %s validation", strings.ToLower(f.Field()), f.Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// ratingValue accepts a JSON number or a rating name.
type ratingValue struct {
	fsrs.Rating
	set bool
}

func (rv *ratingValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	r, err := fsrs.ParseRating(s)
	if err != nil {
		return err
	}
	rv.Rating, rv.set = r, true
	return nil
}

// requestTime returns at when given, else the server clock.
func (s *Server) requestTime(at *time.Time) time.Time {
	if at != nil && !at.IsZero() {
		return *at
	}
	return s.now()
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// queryFilter reads ?category=&tag=a&tag=b (or tags=a,b).
func queryFilter(r *http.Request) queue.Filter {
	q := r.URL.Query()
	f := queue.Filter{Category: q.Get("category"), Tags: q["tag"]}
	if tags := q.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	return f
}
