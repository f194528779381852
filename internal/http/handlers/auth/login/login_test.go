package login

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-api/internal/lib/apperr"
	"github.com/magabrotheeeer/content-api/internal/lib/sl"
	"github.com/magabrotheeeer/content-api/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *ServiceMock) LoginTTL() time.Duration { return time.Hour }

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *ServiceMock)
		wantStatus int
		wantToken  string
	}{
		{
			name: "successful login",
			body: `{"email":"ann@x.test","password":"secret1"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "ann@x.test", "secret1").Return("jwt-token", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantToken:  "jwt-token",
		},
		{
			name: "not verified",
			body: `{"email":"ann@x.test","password":"secret1"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "ann@x.test", "secret1").Return("", apperr.BadRequest(auth.MsgNotVerified)).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short password",
			body:       `{"email":"ann@x.test","password":"123"}`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `not json`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-1")
			rec := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantToken != "" {
				var body Response
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantToken, body.Token)

				cookies := rec.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, "token", cookies[0].Name)
				assert.Equal(t, tt.wantToken, cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
				assert.Equal(t, "/", cookies[0].Path)
				assert.Equal(t, 3600, cookies[0].MaxAge)
			} else {
				assert.Empty(t, rec.Result().Cookies())
			}
			svc.AssertExpectations(t)
		})
	}
}
