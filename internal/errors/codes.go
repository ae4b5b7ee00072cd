// Package errors provides structured error handling for launcherd.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Store and file I/O errors
//   - 3XX: Query service errors
//   - 4XX: Launcher entry validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates cache store and file I/O errors.
	CategoryStore Category = "STORE"
	// CategoryQuery indicates package query service errors.
	CategoryQuery Category = "QUERY"
	// CategoryEntry indicates launcher entry validation errors.
	CategoryEntry Category = "ENTRY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Store and file I/O errors (200-299)
	ErrCodeStoreUnavailable = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreWrite       = "ERR_202_STORE_WRITE"
	ErrCodeStoreLocked      = "ERR_203_STORE_LOCKED"
	ErrCodeFileUnreadable   = "ERR_204_FILE_UNREADABLE"

	// Query service errors (300-399)
	ErrCodeQueryUnsupported = "ERR_301_QUERY_UNSUPPORTED"
	ErrCodeQueryFailed      = "ERR_302_QUERY_FAILED"
	ErrCodeQueryTimeout     = "ERR_303_QUERY_TIMEOUT"
	ErrCodeAmbiguousOwner   = "ERR_304_AMBIGUOUS_OWNER"

	// Launcher entry validation errors (400-499)
	ErrCodeUnparsableEntry = "ERR_401_UNPARSABLE_ENTRY"
	ErrCodeInvalidPath     = "ERR_402_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryQuery
	case '4':
		return CategoryEntry
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreUnavailable:
		// Disables the whole cache subsystem for the process lifetime.
		return SeverityFatal
	case ErrCodeAmbiguousOwner, ErrCodeUnparsableEntry, ErrCodeQueryUnsupported:
		// Skip-and-continue conditions.
		return SeverityWarning
	}
	return SeverityError
}
