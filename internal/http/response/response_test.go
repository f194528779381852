package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
)

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something went wrong")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something went wrong", resp.Error)
}

func TestValidationError(t *testing.T) {
	type request struct {
		Name            string `json:"name" validate:"required,min=3,max=50"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=6"`
		PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	}

	err := NewValidator().Struct(request{
		Name:            "ab",
		Email:           "not-an-email",
		Password:        "secret1",
		PasswordConfirm: "secret2",
	})
	require.Error(t, err)

	var resp ValidationResponse
	rec := httptest.NewRecorder()
	RenderValidation(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, []string{"name must be at least 3 characters"}, resp.Errors["name"])
	assert.Equal(t, []string{"Invalid email address"}, resp.Errors["email"])
	assert.Equal(t, []string{"passwordConfirm must match Password"}, resp.Errors["passwordConfirm"])
	assert.NotContains(t, resp.Errors, "password")
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "bad request", err: apperr.BadRequest("Token expired"), wantStatus: http.StatusBadRequest, wantMsg: "Token expired"},
		{name: "unauthorized", err: apperr.Unauthorized(), wantStatus: http.StatusUnauthorized, wantMsg: "unauthorized"},
		{name: "forbidden", err: apperr.Forbidden(), wantStatus: http.StatusForbidden, wantMsg: "forbidden"},
		{name: "not found", err: apperr.NotFound(), wantStatus: http.StatusNotFound, wantMsg: "resource not found"},
		{name: "internal hides cause", err: apperr.Internal(errors.New("pq: password authentication failed")), wantStatus: http.StatusInternalServerError, wantMsg: "internal server error"},
		{name: "raw error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RenderError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}
