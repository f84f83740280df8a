package app

// Constants
const (
	ExportFileName    = "classes-attendance.json"
	ExportCSVFileName = "classes-attendance.csv"
	MaxImportBytes    = 1 << 20

	// Error messages
	ErrInvalidYear     = "Invalid year"
	ErrInvalidMonth    = "Invalid month"
	ErrInvalidBody     = "Invalid request body"
	ErrInvalidName     = "Invalid subject name"
	ErrInternalServer  = "Internal server error"
	ErrConfirmRequired = "Confirmation required (add ?confirm=true)"
	ErrImportTooLarge  = "Import file too large"

	// ICS constants
	ICSProductID = "-//wb-services//Attendance//EN"
	ICSCalName   = "Attendance"
	ICSUIDDomain = "attendance.local"

	// Query parameters
	ParamConfirm = "confirm"
	ParamYear    = "year"
	ParamMonth   = "month"
)
