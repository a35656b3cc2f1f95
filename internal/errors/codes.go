// Package errors provides structured error handling for MKViewer.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Object store errors
//   - 3XX: Search index errors
//   - 4XX: Validation errors
//   - 5XX: Rendering errors
//   - 6XX: Synchronization errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates object-store errors.
	CategoryStore Category = "STORE"
	// CategoryIndex indicates search-index errors.
	CategoryIndex Category = "INDEX"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryRender indicates document rendering errors.
	CategoryRender Category = "RENDER"
	// CategorySync indicates index synchronization errors.
	CategorySync Category = "SYNC"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Object store errors (200-299)
	ErrCodeStoreUnavailable   = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreTimeout       = "ERR_202_STORE_TIMEOUT"
	ErrCodeObjectNotFound     = "ERR_203_OBJECT_NOT_FOUND"
	ErrCodeCatalogUnavailable = "ERR_204_CATALOG_UNAVAILABLE"

	// Search index errors (300-399)
	ErrCodeIndexUnavailable  = "ERR_301_INDEX_UNAVAILABLE"
	ErrCodeIndexTimeout      = "ERR_302_INDEX_TIMEOUT"
	ErrCodeIndexCorrupt      = "ERR_303_INDEX_CORRUPT"
	ErrCodeSearchUnavailable = "ERR_304_SEARCH_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeUnknownKey      = "ERR_402_UNKNOWN_KEY"
	ErrCodeUnsupportedType = "ERR_403_UNSUPPORTED_TYPE"

	// Rendering errors (500-599)
	ErrCodeRenderFailure = "ERR_501_RENDER_FAILURE"

	// Synchronization errors (600-699)
	ErrCodeSyncInProgress = "ERR_601_SYNC_IN_PROGRESS"
	ErrCodeSyncPartial    = "ERR_602_SYNC_PARTIAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategorySync
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryIndex
	case '4':
		return CategoryValidation
	case '5':
		return CategoryRender
	default:
		return CategorySync
	}
}

// severityFromCode derives severity from error code.
// Partial sync failures and in-progress rejections degrade but do not abort.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSyncPartial, ErrCodeSyncInProgress:
		return SeverityWarning
	case ErrCodeConfigNotFound, ErrCodeConfigInvalid:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with code may be retried.
// Store and index transport failures are transient; everything else is not.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeStoreTimeout,
		ErrCodeIndexUnavailable, ErrCodeIndexTimeout:
		return true
	default:
		return false
	}
}
