package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
)

// errorCodeHTTPStatus maps application error codes to HTTP status
// codes. Domain codes pass through unchanged so clients can branch on
// them; only the status derives from this table.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,

	// Shared domain codes
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVALID_INPUT":        http.StatusBadRequest,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"INVALID_STATE":        http.StatusUnprocessableEntity,

	// Ledger domain codes
	"LEDGER_WRITE_CONFLICT": http.StatusConflict,
	"INVALID_ALLOCATION":    http.StatusUnprocessableEntity,
	"BANK_ACCOUNT_REQUIRED": http.StatusUnprocessableEntity,
	"PARTY_INACTIVE":        http.StatusUnprocessableEntity,
	"BANK_ACCOUNT_INACTIVE": http.StatusUnprocessableEntity,

	// Aggregate construction codes surface as bad input
	"INVALID_PARTY":           http.StatusBadRequest,
	"INVALID_PARTY_NAME":      http.StatusBadRequest,
	"INVALID_PARTY_TYPE":      http.StatusBadRequest,
	"INVALID_DOCUMENT_NUMBER": http.StatusBadRequest,
	"INVALID_DOCUMENT_TYPE":   http.StatusBadRequest,
	"INVALID_PAYMENT_NUMBER":  http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD":  http.StatusBadRequest,
	"INVALID_DIRECTION":       http.StatusBadRequest,
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_REASON":          http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Per-entity lookup failures follow the NOT_FOUND naming convention
// and map to 404 without individual table entries. Other unknown codes
// map to 422 so new domain rules fail closed as business-rule
// violations rather than 500s.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasSuffix(code, "_NOT_FOUND") {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}
