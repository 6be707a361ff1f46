// Package apperr defines sentinel errors shared across the assembly pipeline.
package apperr

import "errors"

var (
	ErrPermissionDenied = errors.New("control API did not grant permission")
	ErrModelCreate      = errors.New("model creation failed")
	ErrExportFailed     = errors.New("package export failed")
	ErrUnknownField     = errors.New("configured field missing from deck source")
	ErrDeckFailures     = errors.New("one or more decks were not fully submitted")
)
