package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// writeString writes to w and logs any error (helper for ICS generation)
func (s *Server) writeString(w io.Writer, str string) {
	if _, err := fmt.Fprint(w, str); err != nil {
		s.log.Warn("failed to write response", zap.Error(err))
	}
}

// Export offers the whole registry as a JSON download
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	data, err := s.registry.ExportAll()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ExportFileName))
	if _, err := w.Write(data); err != nil {
		s.log.Warn("failed to write export", zap.Error(err))
	}
}

// ExportCSV offers every record as subject,date,status rows
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	classes, err := s.registry.Classes()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ExportCSVFileName))
	if err := WriteCSV(w, classes); err != nil {
		s.log.Warn("failed to write csv export", zap.Error(err))
	}
}

// WriteCSV writes classes sorted by subject, records in stored order.
func WriteCSV(w io.Writer, classes attendance.Classes) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subject", "date", "status"}); err != nil {
		return err
	}
	for _, name := range classes.Names() {
		for _, rec := range classes[name].Records {
			if err := cw.Write([]string{name, rec.Date, string(rec.Status)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// DailyFeed serves the daily calendar as an iCalendar subscription:
// one all-day event per marked day, no alarms, no attachment header.
func (s *Server) DailyFeed(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daily.Entries()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	s.writeString(w, GenerateDailyICS(entries, time.Now().UTC()))
}

// GenerateDailyICS renders entries sorted by date. Entries with a bad
// date are skipped.
func GenerateDailyICS(entries attendance.DailyMap, stamp time.Time) string {
	dates := make([]string, 0, len(entries))
	for date := range entries {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var b []byte
	line := func(format string, args ...any) {
		b = fmt.Appendf(b, format+"\r\n", args...)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", ICSProductID)
	line("METHOD:PUBLISH")
	line("X-WR-CALNAME:%s", ICSCalName)
	line("CALSCALE:GREGORIAN")
	line("X-PUBLISHED-TTL:PT1H")

	for _, date := range dates {
		day, err := time.Parse(attendance.DateLayout, date)
		if err != nil {
			continue
		}
		summary := "Present"
		if entries[date] == attendance.StatusAbsent {
			summary = "Absent"
		}

		line("BEGIN:VEVENT")
		line("UID:%s-daily@%s", date, ICSUIDDomain)
		line("DTSTAMP:%s", stamp.Format("20060102T150405Z"))
		line("DTSTART;VALUE=DATE:%s", day.Format("20060102"))
		line("DTEND;VALUE=DATE:%s", day.AddDate(0, 0, 1).Format("20060102"))
		line("SUMMARY:%s", summary)
		line("CATEGORIES:%s", entries[date])
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return string(b)
}
