package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/services"
)

func newAuthServer(t *testing.T) *echo.Echo {
	t.Helper()
	v, err := services.NewStaticCredentialVerifier("admin", "clinic123", "")
	require.NoError(t, err)
	ac := NewAuthController(services.NewAuthService(v, []byte("s3cret"), time.Hour))

	e := echo.New()
	e.POST("/api/auth/login", ac.Login)
	return e
}

func post(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	e := newAuthServer(t)

	rec := post(e, `{"username":"admin","password":"clinic123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "admin", body.Data.User.Username)
}

func TestLogin_Failures(t *testing.T) {
	e := newAuthServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest},
		{"malformed json", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(e, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "token")
		})
	}
}
