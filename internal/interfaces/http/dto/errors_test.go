package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrCodeInternal:          http.StatusInternalServerError,
		ErrCodeBadRequest:        http.StatusBadRequest,
		ErrCodeUnauthorized:      http.StatusUnauthorized,
		"NOT_FOUND":              http.StatusNotFound,
		"PAYMENT_NOT_FOUND":      http.StatusNotFound,
		"PARTY_NOT_FOUND":        http.StatusNotFound,
		"INVOICE_NOT_FOUND":      http.StatusNotFound,
		"BANK_ACCOUNT_NOT_FOUND": http.StatusNotFound,
		"LEDGER_WRITE_CONFLICT":  http.StatusConflict,
		"CONCURRENCY_CONFLICT":   http.StatusConflict,
		"INVALID_ALLOCATION":     http.StatusUnprocessableEntity,
		"BANK_ACCOUNT_REQUIRED":  http.StatusUnprocessableEntity,
		"BANK_ACCOUNT_INACTIVE":  http.StatusUnprocessableEntity,
		"INVALID_AMOUNT":         http.StatusBadRequest,
		"SOME_FUTURE_RULE":       http.StatusUnprocessableEntity,
	}
	for code, want := range cases {
		assert.Equal(t, want, GetHTTPStatus(code), "code %q", code)
	}
}

func TestResponses(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]string{"id": "1"})
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
	})

	t.Run("error with request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID("NOT_FOUND", "payment not found", "req-1")
		assert.False(t, resp.Success)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})

	t.Run("meta rounds total pages up", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta(nil, 45, 2, 20)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})
}

func TestListRequestNormalize(t *testing.T) {
	r := ListRequest{}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, 20, r.PageSize)

	r = ListRequest{Page: 3, PageSize: 50}
	r.Normalize()
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 50, r.PageSize)
}
