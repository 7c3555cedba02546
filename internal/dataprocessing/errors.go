package dataprocessing

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
)

var (
	// ErrSectionNotFound means a section sentinel (or its closing Total) is absent.
	// Callers treat it as "section absent".
	ErrSectionNotFound = errors.New("section not found")
	// ErrRowNotFound means no row's first cell contains the requested label
	ErrRowNotFound = errors.New("labeled row not found")
	// ErrFileNotFound is returned when the report path does not exist
	ErrFileNotFound = errors.New("report file not found")
	// ErrInvalidFormat is returned for files without the expected extension
	ErrInvalidFormat = errors.New("report is not in the expected spreadsheet format")
	// ErrSheetNotFound is returned when the report worksheet is missing
	ErrSheetNotFound = errors.New("report worksheet not found")
	// ErrMissingColumn means a canonical column was not produced by normalization
	ErrMissingColumn = errors.New("canonical column missing")
)

// fail classifies sentinel and attaches a stack trace for diagnostics
func fail(errType apperrors.ErrorType, message string, sentinel error) error {
	return pkgerrors.WithStack(apperrors.NewAppError(errType, message, sentinel))
}
