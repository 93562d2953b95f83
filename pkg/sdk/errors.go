package scholarmatch

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes. Use errors.Is() to check.
var (
	ErrProfileNotFound        = errors.New("profile not found")
	ErrBatchNotFound          = errors.New("recommendation batch not found")
	ErrProfileNotEligible     = errors.New("profile not eligible for indexing")
	ErrNoVector               = errors.New("no embedding signal available")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrBadRequest             = errors.New("bad request")
)

// APIError is the decoded error body of a failed call. It wraps a sentinel
// when the code maps to one, so errors.Is works through it.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	sentinel   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scholarmatch: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.sentinel }

var codeSentinels = map[string]error{
	"profile_not_found":        ErrProfileNotFound,
	"batch_not_found":          ErrBatchNotFound,
	"profile_not_eligible":     ErrProfileNotEligible,
	"no_vector":                ErrNoVector,
	"vector_store_unavailable": ErrVectorStoreUnavailable,
	"bad_request":              ErrBadRequest,
	"validation_failed":        ErrBadRequest,
}

func newAPIError(status int, code, message string) *APIError {
	sentinel := codeSentinels[code]
	if sentinel == nil && status == 401 {
		sentinel = ErrUnauthorized
	}
	return &APIError{StatusCode: status, Code: code, Message: message, sentinel: sentinel}
}
