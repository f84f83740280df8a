// Package attendance holds the class registry, the daily calendar and the
// overview aggregator. All three read a fresh copy of their record from a
// kv.Store on every operation and write the whole record back after each
// mutation.
package attendance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Store keys
const (
	KeyClasses = "attendanceData"
	KeyDaily   = "dailyAttendance"
)

// DateLayout is the ISO calendar date used for every record key.
const DateLayout = "2006-01-02"

// Status is a present/absent observation.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent, nil
	case StatusAbsent:
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Record is one dated observation for a subject.
type Record struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
}

// Subject holds the records of one class, oldest first.
type Subject struct {
	Records []Record `json:"records"`
}

// Stats counts the records of one subject.
func (s *Subject) Stats() Stats {
	present := 0
	for _, r := range s.Records {
		if r.Status == StatusPresent {
			present++
		}
	}
	return NewStats(present, len(s.Records))
}

// indexOf returns the position of the record for date, or -1.
func (s *Subject) indexOf(date string) int {
	for i, r := range s.Records {
		if r.Date == date {
			return i
		}
	}
	return -1
}

func (s *Subject) clone() *Subject {
	records := make([]Record, len(s.Records))
	copy(records, s.Records)
	return &Subject{Records: records}
}

// Classes is the attendanceData record: subject name to subject.
type Classes map[string]*Subject

// Clone returns a deep copy.
func (c Classes) Clone() Classes {
	out := make(Classes, len(c))
	for name, s := range c {
		out[name] = s.clone()
	}
	return out
}

// Names returns the subject names sorted.
func (c Classes) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DailyMap is the dailyAttendance record: ISO date to status.
type DailyMap map[string]Status

func (d DailyMap) Clone() DailyMap {
	out := make(DailyMap, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Stats is the present/total/percentage triple.
type Stats struct {
	Present    int `json:"present"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func NewStats(present, total int) Stats {
	return Stats{Present: present, Total: total, Percentage: Percentage(present, total)}
}

// Meets reports whether the percentage reaches threshold.
func (s Stats) Meets(threshold int) bool {
	return s.Percentage >= threshold
}

// Percentage is round(100*present/total), 0 for no records, within [0,100].
func Percentage(present, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(present) * 100 / float64(total)))
	return max(0, min(100, pct))
}

// SubjectSummary is a subject with its name and stats, as listed.
type SubjectSummary struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
	Stats
}

// ValidateDate checks the YYYY-MM-DD layout and that the date exists.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
