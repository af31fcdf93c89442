package app

import (
	"errors"
	"fmt"
	"net/http"

	"htmleditor/internal/auth"
	"htmleditor/internal/clean"
	"htmleditor/internal/editor"
	"htmleditor/internal/export"
	"htmleditor/internal/grid"
	"htmleditor/internal/mutation"
	"htmleditor/internal/session"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var rejection *grid.Rejection
	if errors.As(err, &rejection) {
		return http.StatusConflict, rejection.Code, rejection.Message, nil
	}
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found or expired", nil
	case errors.Is(err, editor.ErrNodeNotFound), errors.Is(err, mutation.ErrNodeNotFound):
		return http.StatusNotFound, "NODE_NOT_FOUND", err.Error(), nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, auth.ErrWrongSession), errors.Is(err, auth.ErrReadOnly):
		return http.StatusForbidden, "FORBIDDEN", err.Error(), nil
	case errors.Is(err, editor.ErrNothingToUndo):
		return http.StatusConflict, "NOTHING_TO_UNDO", "Nothing to undo", nil
	case errors.Is(err, editor.ErrNothingToRedo):
		return http.StatusConflict, "NOTHING_TO_REDO", "Nothing to redo", nil
	case errors.Is(err, editor.ErrNoResize), errors.Is(err, editor.ErrResizeActive):
		return http.StatusConflict, "RESIZE_STATE", err.Error(), nil
	case errors.Is(err, editor.ErrNotAButton):
		return http.StatusConflict, "NOT_A_BUTTON", "Node is not a button", nil
	case errors.Is(err, editor.ErrUnknownInsertion),
		errors.Is(err, editor.ErrMissingHref),
		errors.Is(err, clean.ErrUnknownOption),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, grid.ErrInvalidGrid):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", err.Error(), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
