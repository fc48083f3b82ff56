package dto

import (
	"net/http"

	"github.com/retailos/backoffice/internal/domain/settlement"
)

// General error codes
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeNotFound    = "ERR_NOT_FOUND"
	ErrCodeConflict    = "ERR_CONFLICT"
	ErrCodeDuplicate   = "ERR_DUPLICATE_REQUEST"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeConflict:    http.StatusConflict,
	ErrCodeDuplicate:   http.StatusConflict,

	settlement.CodeInvalidAmount:          http.StatusBadRequest,
	settlement.CodeNoOutstanding:          http.StatusUnprocessableEntity,
	settlement.CodeObligationNotFound:     http.StatusNotFound,
	settlement.CodeOverAllocation:         http.StatusConflict,
	settlement.CodeLedgerPostingFailed:    http.StatusInternalServerError,
	settlement.CodeConcurrentModification: http.StatusConflict,

	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVALID_INPUT":        http.StatusBadRequest,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"INVALID_KIND":         http.StatusBadRequest,
	"INVALID_PAYER":        http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 422: a domain rejection the client can act on.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
