package dto

import (
	"net/http"

	"github.com/openpos/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when request body parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeMissingTenant is used when the tenant header is absent or malformed
	ErrCodeMissingTenant = "MISSING_TENANT"
)

// errorCodeHTTPStatus maps domain and transport error codes to HTTP status
// codes. Validation problems are client errors, missing aggregates are 404,
// state conflicts (invalid transitions, duplicate keys, lost optimistic-lock
// races) are 409, and business rule rejections are 422.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeMissingTenant: http.StatusBadRequest,

	shared.CodeValidation: http.StatusBadRequest,
	shared.CodeNotFound:   http.StatusNotFound,

	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInvalidState:        http.StatusConflict,

	shared.CodeInsufficientPayment: http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeMaxRetriesExceeded:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code, defaulting
// to 500 for codes the map does not know
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
