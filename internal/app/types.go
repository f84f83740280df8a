package app

import (
	"time"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

// SubjectRequest is the body of POST /api/subjects.
type SubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// StatusRequest is the body of every "set status" call.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent"`
}

// MonthRef names a month without its cells.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthResponse is a month grid plus its neighbours for navigation.
type MonthResponse struct {
	attendance.MonthGrid
	Prev MonthRef `json:"prev"`
	Next MonthRef `json:"next"`
}

// SubjectResponse is one subject with stats and the threshold verdict.
type SubjectResponse struct {
	attendance.SubjectSummary
	BelowThreshold bool `json:"belowThreshold"`
}

// ToggleResponse reports the status after a toggle; empty means no entry.
type ToggleResponse struct {
	Date   string            `json:"date"`
	Status attendance.Status `json:"status"`
}

// ImportResponse reports how many subjects were imported.
type ImportResponse struct {
	Status   string `json:"status"`
	Subjects int    `json:"subjects"`
}
