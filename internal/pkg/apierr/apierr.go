package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Kind is the closed set of error variants the service produces. Handlers map
// kinds to HTTP statuses; services decide control flow on them.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindExtraction         Kind = "extraction"
	KindStageDegraded      Kind = "stage_degraded"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindTimeout            Kind = "timeout"
	KindPersistence        Kind = "persistence"
)

type Error struct {
	Kind       Kind
	Code       string
	Stage      string
	DocumentID uuid.UUID
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Code
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: stage=%s: %s", e.Kind, e.Stage, msg)
	}
	if msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindBackendUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code string, err error) *Error {
	return &Error{Kind: KindValidation, Code: code, Err: err}
}

func NotFound(code string, err error) *Error {
	return &Error{Kind: KindNotFound, Code: code, Err: err}
}

// Extraction marks the fatal pipeline variant: the run aborts and the document
// transitions to failed.
func Extraction(docID uuid.UUID, err error) *Error {
	return &Error{Kind: KindExtraction, Code: "extraction_failed", Stage: "extract", DocumentID: docID, Err: err}
}

// Degraded marks a non-fatal stage failure; callers absorb it and substitute
// the stage default.
func Degraded(stage string, docID uuid.UUID, err error) *Error {
	return &Error{Kind: KindStageDegraded, Code: "stage_degraded", Stage: stage, DocumentID: docID, Err: err}
}

func Unavailable(err error) *Error {
	return &Error{Kind: KindBackendUnavailable, Code: "backend_unavailable", Err: err}
}

func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Code: "timeout", Err: err}
}

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Code: "persistence_failed", Err: err}
}

// KindOf returns the kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError returns the embedded *Error, wrapping unknown errors as persistence
// failures so the response layer always has a kind to map.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence(err)
}
