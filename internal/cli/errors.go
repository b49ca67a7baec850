package cli

import (
	"errors"

	"github.com/aidanlsb/ebbinghaus/internal/blockdb"
	"github.com/aidanlsb/ebbinghaus/internal/dates"
	"github.com/aidanlsb/ebbinghaus/internal/graph"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Graph errors
	ErrGraphNotFound     = "GRAPH_NOT_FOUND"
	ErrGraphNotSpecified = "GRAPH_NOT_SPECIFIED"
	ErrConfigInvalid     = "CONFIG_INVALID"

	// Page and block errors
	ErrPageNotFound  = "PAGE_NOT_FOUND"
	ErrBlockNotFound = "BLOCK_NOT_FOUND"
	ErrNoCurrentPage = "NO_CURRENT_PAGE"

	// File errors
	ErrFileWriteError   = "FILE_WRITE_ERROR"
	ErrFileOutsideGraph = "FILE_OUTSIDE_GRAPH"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Date errors
	ErrInvalidDate   = "INVALID_DATE"
	ErrInvalidRange  = "INVALID_RANGE"
	ErrRangeTooLarge = "RANGE_TOO_LARGE"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// codedError carries a stable code for failures raised before a command runs.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	return &codedError{code: code, err: err}
}

// classifyError maps sentinel errors from the engine and hosts to a code and
// an optional suggestion.
func classifyError(err error) (string, string) {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code, ""
	}
	switch {
	case errors.Is(err, refresh.ErrPageNotFound):
		return ErrPageNotFound, "Run 'ebb pages' to list pages"
	case errors.Is(err, graph.ErrBlockNotFound), errors.Is(err, blockdb.ErrBlockNotFound):
		return ErrBlockNotFound, "The page changed underneath the update; run it again"
	case errors.Is(err, graph.ErrNoCurrentPage), errors.Is(err, blockdb.ErrNoCurrentPage):
		return ErrNoCurrentPage, "Run 'ebb open <page>' first"
	case errors.Is(err, paths.ErrPathOutsideGraph):
		return ErrFileOutsideGraph, ""
	case errors.Is(err, dates.ErrInvalidDate):
		return ErrInvalidDate, "Dates are YYYYMMDD, e.g. 20250301"
	case errors.Is(err, dates.ErrInvertedRange):
		return ErrInvalidRange, "The start date must not be after the end date"
	case errors.Is(err, dates.ErrRangeTooLarge):
		return ErrRangeTooLarge, "Raise max_range_days or narrow the range"
	default:
		return ErrInternal, ""
	}
}
