package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// writeJSON encodes v and logs encoding errors.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

// subjectName returns the unescaped, trimmed {name} route variable.
func (s *Server) subjectName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, ErrInvalidName, http.StatusBadRequest)
		return "", false
	}
	return strings.TrimSpace(name), true
}

func (s *Server) ok(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v and validates it. Status values are
// lowercased first so "Present" is accepted.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return false
	}
	if sr, ok := v.(*StatusRequest); ok {
		sr.Status = strings.ToLower(strings.TrimSpace(sr.Status))
	}
	if err := s.validate.Struct(v); err != nil {
		http.Error(w, ErrInvalidBody+": "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attendance.ErrEmptyName),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidDate),
		errors.Is(err, attendance.ErrInvalidImport):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, attendance.ErrDuplicateSubject):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, attendance.ErrSubjectNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, attendance.ErrNotConfirmed):
		http.Error(w, ErrConfirmRequired, http.StatusPreconditionFailed)
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
	}
}

// confirmed turns ?confirm=true into a ConfirmFunc.
func confirmed(r *http.Request) attendance.ConfirmFunc {
	ok, _ := strconv.ParseBool(r.URL.Query().Get(ParamConfirm))
	return func(string) bool { return ok }
}
