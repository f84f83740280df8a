package app

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// GetConfig returns the settings the client needs for rendering
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"threshold":     s.cfg.Threshold,
		"timezone":      s.cfg.Timezone,
		"backend":       s.cfg.Backend,
		"authProtected": s.auth.Enabled(),
		"storeKeys":     []string{attendance.KeyClasses, attendance.KeyDaily},
	})
}

// GetOverview returns the aggregate across all subjects
func (s *Server) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.aggregator.ComputeOverview()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview)
}

// ListSubjects returns every subject with its stats
func (s *Server) ListSubjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.registry.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]SubjectResponse, 0, len(list))
	for _, sub := range list {
		out = append(out, SubjectResponse{SubjectSummary: sub, BelowThreshold: !sub.Meets(s.cfg.Threshold)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// AddSubject creates a subject
func (s *Server) AddSubject(w http.ResponseWriter, r *http.Request) {
	var req SubjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	name, err := s.registry.AddSubject(req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "name": name})
}

// ClearSubjects drops every subject (needs ?confirm=true)
func (s *Server) ClearSubjects(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r)("") {
		s.fail(w, r, attendance.ErrNotConfirmed)
		return
	}
	if err := s.registry.ClearAll(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w)
}

// GetSubject returns one subject
func (s *Server) GetSubject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.subjectName(w, r)
	if !ok {
		return
	}
	subject, err := s.registry.Subject(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats := subject.Stats()
	s.writeJSON(w, http.StatusOK, SubjectResponse{
		SubjectSummary: attendance.SubjectSummary{Name: name, Records: subject.Records, Stats: stats},
		BelowThreshold: !stats.Meets(s.cfg.Threshold),
	})
}

// DeleteSubject removes a subject and its records (needs ?confirm=true)
func (s *Server) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.subjectName(w, r)
	if !ok {
		return
	}
	if err := s.registry.DeleteSubject(name, confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w)
}

// GetStats returns present/total/percentage for one subject
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	name, ok := s.subjectName(w, r)
	if !ok {
		return
	}
	stats, err := s.registry.ComputeStats(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// SetToday records today's status for a subject
func (s *Server) SetToday(w http.ResponseWriter, r *http.Request) {
	name, ok := s.subjectName(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.registry.SetTodayStatus(name, attendance.Status(req.Status)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w)
}

// DeleteToday removes today's record for a subject
func (s *Server) DeleteToday(w http.ResponseWriter, r *http.Request) {
	name, ok := s.subjectName(w, r)
	if !ok {
		return
	}
	if err := s.registry.DeleteTodayRecord(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w)
}

// GetMonth returns the calendar grid for ?year=&month=, defaulting to
// the current month
func (s *Server) GetMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var grid attendance.MonthGrid
	var err error
	if q.Get(ParamYear) == "" && q.Get(ParamMonth) == "" {
		grid, err = s.daily.CurrentMonth()
	} else {
		year, convErr := strconv.Atoi(q.Get(ParamYear))
		if convErr != nil {
			http.Error(w, ErrInvalidYear, http.StatusBadRequest)
			return
		}
		// out-of-range months roll over, so only reject non-numbers
		month, convErr := strconv.Atoi(q.Get(ParamMonth))
		if convErr != nil {
			http.Error(w, ErrInvalidMonth, http.StatusBadRequest)
			return
		}
		grid, err = s.daily.RenderMonth(year, time.Month(month))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := MonthResponse{MonthGrid: grid}
	resp.Prev.Year, resp.Prev.Month = grid.Prev()
	resp.Next.Year, resp.Next.Month = grid.Next()
	s.writeJSON(w, http.StatusOK, resp)
}

// ToggleDay cycles one day none -> present -> absent -> none
func (s *Server) ToggleDay(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	status, err := s.daily.ToggleDay(date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ToggleResponse{Date: date, Status: status})
}

// SetDay overwrites one day's status
func (s *Server) SetDay(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	date := mux.Vars(r)["date"]
	if err := s.daily.SetDayStatus(date, attendance.Status(req.Status)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ToggleResponse{Date: date, Status: attendance.Status(req.Status)})
}

// MarkToday sets today's whole-day status
func (s *Server) MarkToday(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	date, err := s.daily.MarkToday(attendance.Status(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ToggleResponse{Date: date, Status: attendance.Status(req.Status)})
}

// ClearDaily removes every daily entry (needs ?confirm=true)
func (s *Server) ClearDaily(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r)("") {
		s.fail(w, r, attendance.ErrNotConfirmed)
		return
	}
	if err := s.daily.ClearAll(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w)
}

// Import replaces the registry with the uploaded JSON
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, ErrImportTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	n, err := s.registry.ImportAll(data)
	if err != nil {
		s.log.Warn("import rejected", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ImportResponse{Status: "ok", Subjects: n})
}
