package attendance

import "errors"

var (
	ErrEmptyName        = errors.New("subject name is empty")
	ErrDuplicateSubject = errors.New("subject already exists")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidImport    = errors.New("invalid import payload")
	ErrNotConfirmed     = errors.New("not confirmed")
)
