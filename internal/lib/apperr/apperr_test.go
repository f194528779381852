package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: NotFound(), want: http.StatusNotFound},
		{name: "unauthorized", err: Unauthorized(), want: http.StatusUnauthorized},
		{name: "forbidden", err: Forbidden(), want: http.StatusForbidden},
		{name: "bad request", err: BadRequest("token expired"), want: http.StatusBadRequest},
		{name: "internal", err: Internal(errors.New("db down")), want: http.StatusInternalServerError},
		{name: "foreign error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "wrapped", err: fmt.Errorf("op: %w", Forbidden()), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessage_HidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))

	assert.Equal(t, "internal server error", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "token expired", Message(BadRequest("token expired")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
}
