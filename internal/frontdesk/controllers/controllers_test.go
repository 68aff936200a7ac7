package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/validation"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
)

type recordedEvent struct {
	Type string
	Data interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(eventType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, data})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	e      *echo.Echo
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := services.Clock{
		NowFunc:  func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) },
		Location: time.UTC,
	}
	tokens := services.NewTokenService(store, clock, time.Second)
	events := &recorder{}
	pc := NewPatientController(services.NewPatientService(store, clock, time.Second), events)
	vc := NewVisitController(services.NewVisitService(store, tokens, clock, time.Second), events)

	e := echo.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = validation.EchoValidator{}
	e.GET("/api/patients", pc.ListPatients)
	e.POST("/api/patients", pc.RegisterPatient)
	e.GET("/api/patients/:id", pc.GetPatient)
	e.POST("/api/visits", vc.CreateVisit)
	e.GET("/api/visits", vc.ListVisits)
	e.GET("/api/visits/:id", vc.GetVisit)
	e.PUT("/api/visits/:id/complete", vc.CompleteVisit)
	return &fixture{e: e, events: events}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Status)
	return rec.Code, env
}

const janeBody = `{"name":"Jane Doe","date_of_birth":"1990-01-01","phone":"555-1111","address":"1 Elm St","medical_history":"None"}`

func TestPatientEndpoints(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/patients", janeBody)
	require.Equal(t, http.StatusCreated, code)
	var p struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Email *string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "P001", p.ID)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Nil(t, p.Email)

	code, env = f.do(t, http.MethodGet, "/api/patients/P001", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"medical_history":"None"`)

	code, _ = f.do(t, http.MethodGet, "/api/patients/P404", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = f.do(t, http.MethodGet, "/api/patients?search=JANE", "")
	assert.Equal(t, http.StatusOK, code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["token_number"])

	code, env = f.do(t, http.MethodGet, "/api/patients?search=zzz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	assert.Equal(t, []string{EventPatientRegistered}, f.events.types())
}

func TestRegisterPatient_BadInput(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/patients", `{"name":"","date_of_birth":"1990-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "name is required")

	code, _ = f.do(t, http.MethodPost, "/api/patients", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Empty(t, f.events.types())
}

func TestVisitLifecycleEndpoints(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/api/patients", janeBody)
	require.Equal(t, http.StatusCreated, code)

	code, env := f.do(t, http.MethodPost, "/api/visits", `{"patient_id":"P001","reason_for_visit":"Checkup"}`)
	require.Equal(t, http.StatusCreated, code)
	var v struct {
		ID          int64  `json:"id"`
		TokenNumber int    `json:"token_number"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, 1, v.TokenNumber)
	assert.Equal(t, "pending", v.Status)

	code, env = f.do(t, http.MethodGet, "/api/visits?status=pending", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"token_number":1`)

	code, _ = f.do(t, http.MethodPut, "/api/visits/1/complete", `{"consultation_fee":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPut, "/api/visits/1/complete", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPut, "/api/visits/1/complete", `{"consultation_fee":150}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"consultation_fee":150`)
	assert.Contains(t, string(env.Data), `"status":"completed"`)

	code, _ = f.do(t, http.MethodPut, "/api/visits/1/complete", `{"consultation_fee":200}`)
	assert.Equal(t, http.StatusConflict, code)

	code, env = f.do(t, http.MethodGet, "/api/visits?date=2026-10-15&status=completed", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"id":1`)

	code, env = f.do(t, http.MethodGet, "/api/visits?status=pending", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, _ = f.do(t, http.MethodGet, "/api/visits/1", "")
	assert.Equal(t, http.StatusOK, code)

	assert.Equal(t, []string{EventPatientRegistered, EventVisitCreated, EventVisitCompleted}, f.events.types())
}

func TestVisitEndpoints_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown patient", http.MethodPost, "/api/visits", `{"patient_id":"P404","reason_for_visit":"Checkup"}`, http.StatusNotFound},
		{"blank reason", http.MethodPost, "/api/visits", `{"patient_id":"P001","reason_for_visit":" "}`, http.StatusBadRequest},
		{"bad status", http.MethodGet, "/api/visits?status=cancelled", "", http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/visits?date=15-10-2026", "", http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/visits/abc", "", http.StatusBadRequest},
		{"unknown visit", http.MethodGet, "/api/visits/42", "", http.StatusNotFound},
		{"complete unknown visit", http.MethodPut, "/api/visits/42/complete", `{"consultation_fee":10}`, http.StatusNotFound},
		{"complete bad id", http.MethodPut, "/api/visits/0/complete", `{"consultation_fee":10}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
	assert.Empty(t, f.events.types())
}

func TestCompleteVisit_FeeOutOfColumnRange(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/api/patients", janeBody)
	require.Equal(t, http.StatusCreated, code)
	code, _ = f.do(t, http.MethodPost, "/api/visits", `{"patient_id":"P001","reason_for_visit":"Checkup"}`)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing fee", `{}`, "consultation_fee is required"},
		{"too large", `{"consultation_fee":1e12}`, "consultation_fee must be less than or equal to 99999999.99"},
		{"sub-cent", `{"consultation_fee":150.005}`, "consultation_fee must have at most 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, http.MethodPut, "/api/visits/1/complete", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, env.Message, tt.msg)
		})
	}

	code, env := f.do(t, http.MethodPut, "/api/visits/1/complete", `{"consultation_fee":99999999.99}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"consultation_fee":99999999.99`)
}
