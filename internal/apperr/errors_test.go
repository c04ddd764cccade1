package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("db down"), CodeNotFound, "project not found")

	assert.True(t, errors.Is(err, NotFound))
	assert.False(t, errors.Is(err, Forbidden))

	wrapped := fmt.Errorf("loading project: %w", err)
	assert.True(t, errors.Is(wrapped, NotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "x"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateIdentity, http.StatusConflict},
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeDependencyUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestPublicMessage_HidesCauses(t *testing.T) {
	err := Wrap(errors.New("dial tcp 10.0.0.7:3306: connection refused"), CodeInternal, "create project failed")
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Equal(t, "internal error", PublicMessage(errors.New("raw")))

	err = Wrap(errors.New("sql: no rows"), CodeNotFound, "project not found")
	assert.Equal(t, "project not found", PublicMessage(err))
	assert.NotContains(t, PublicMessage(err), "sql")
}
