package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/auth"
	"axiapac.com/punchclock/kv"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/web/metrics"
)

type server struct {
	router *gin.Engine
	store  *store.RecordStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rs := store.New(kv.NewMemoryStore(), time.UTC)
	require.NoError(t, rs.SaveEmployee(context.Background(),
		model.Employee{ID: "1", PhoneNumber: "9876543210", Name: "Ramesh", Pin: "1234"}))

	tokens, err := security.NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("test-secret")), 0)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	router := NewRouter(Dependencies{
		Auth:          auth.NewService(rs, tokens, nil),
		Punch:         punch.New(rs, nil, punch.Options{}),
		Store:         rs,
		Gatherer:      reg,
		Metrics:       metrics.New(reg),
		AdminAccounts: gin.Accounts{"admin": "secret"},
	})
	return &server{router: router, store: rs}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) login(t *testing.T, phone, pin string) *httptest.ResponseRecorder {
	body := `{"phoneNumber":"` + phone + `","pin":"` + pin + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *server) token(t *testing.T) string {
	w := s.login(t, "9876543210", "1234")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Data auth.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Data.Token
}

func photoForm(t *testing.T, width, height int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, width, height))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("photo", "selfie.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (s *server) punch(t *testing.T, token string, width, height int, fields map[string]string) *httptest.ResponseRecorder {
	body, contentType := photoForm(t, width, height, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/punch", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(req)
}

var office = map[string]string{"latitude": "12.9716", "longitude": "77.5946", "address": "MG Road"}

func TestPing(t *testing.T) {
	s := newServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestLoginScenarios(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name    string
		phone   string
		pin     string
		status  int
		message string
	}{
		{"valid", "9876543210", "1234", http.StatusOK, ""},
		{"wrong pin", "9876543210", "0000", http.StatusUnauthorized, "Invalid PIN"},
		{"unknown phone", "0000000000", "1234", http.StatusNotFound, "Employee not found"},
		{"missing pin", "9876543210", "", http.StatusBadRequest, "Field 'pin' is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.login(t, tt.phone, tt.pin)
			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Contains(t, w.Body.String(), tt.message)
			} else {
				assert.NotContains(t, w.Body.String(), `"pin":"1234"`)
			}
		})
	}
}

func TestSessionRestoreAndLogout(t *testing.T) {
	s := newServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	token := s.token(t)
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), token)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(req).Code)

	// the token stops working once the session is cleared
	req = httptest.NewRequest(http.MethodGet, "/api/v1/punch/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
}

func TestPunchRequiresLogin(t *testing.T) {
	s := newServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/punch/status", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPunchFlow(t *testing.T) {
	s := newServer(t)
	token := s.token(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/punch/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"PUNCHED_OUT"`)
	assert.Contains(t, w.Body.String(), `"nextPunchType":"IN"`)

	w = s.punch(t, token, 640, 480, office)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"punchType":"IN"`)
	assert.Contains(t, w.Body.String(), `"state":"PUNCHED_IN"`)

	w = s.punch(t, token, 640, 480, office)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"punchType":"OUT"`)

	records, err := s.store.Records(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPunchFailuresStoreNothing(t *testing.T) {
	s := newServer(t)
	token := s.token(t)

	tests := []struct {
		name          string
		width, height int
		fields        map[string]string
		status        int
		message       string
	}{
		{"small photo", 320, 240, office, http.StatusUnprocessableEntity, "Photo capture failed"},
		{"no location source", 640, 480, nil, http.StatusForbidden, "Permission not granted"},
		{"half a location", 640, 480, map[string]string{"latitude": "12.9"}, http.StatusBadRequest, "together"},
		{"latitude out of range", 640, 480, map[string]string{"latitude": "120", "longitude": "77"}, http.StatusBadRequest, "latitude"},
		{"bad capture time", 640, 480, map[string]string{"latitude": "12.9", "longitude": "77.5", "capturedAt": "noon"}, http.StatusBadRequest, "failed to parse time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.punch(t, token, tt.width, tt.height, tt.fields)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}

	records, err := s.store.Records(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdmin(t *testing.T) {
	s := newServer(t)
	token := s.token(t)
	require.Equal(t, http.StatusCreated, s.punch(t, token, 640, 480, office).Code)
	require.Equal(t, http.StatusCreated, s.punch(t, token, 640, 480, office).Code)

	admin := func(method, target string, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.SetBasicAuth("admin", "secret")
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		return s.do(req)
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/records", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = admin(http.MethodGet, "/api/v1/admin/records?employeeId=all", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data       []model.AttendanceRecord `json:"data"`
		Pagination struct{ Total int64 }    `json:"pagination"`
		Stats      struct {
			Employees int `json:"employees"`
			Records   int `json:"records"`
			PunchIns  int `json:"punchIns"`
			Unsynced  int `json:"unsynced"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, model.PunchOut, list.Data[0].PunchType, "newest first")
	assert.Equal(t, 1, list.Stats.PunchIns)
	assert.Equal(t, 2, list.Stats.Unsynced)

	w = admin(http.MethodPost, "/api/v1/admin/records/"+list.Data[1].ID+"/synced", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = admin(http.MethodGet, "/api/v1/admin/records/unsynced", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), list.Data[0].ID)
	assert.NotContains(t, w.Body.String(), list.Data[1].ID)

	w = admin(http.MethodGet, "/api/v1/admin/records?date=09-03-2024", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := time.Now().UTC().Format("2006-01-02")
	w = admin(http.MethodGet, "/api/v1/admin/records/export?format=csv&date="+today, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="attendance_`+today+`.csv"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(w.Body.String(), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "Employee,Punch Type,Timestamp,Location,Synced", lines[0])

	w = admin(http.MethodGet, "/api/v1/admin/records/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = admin(http.MethodPut, "/api/v1/admin/employees/2", `{"phoneNumber":"9123456780","name":"Sita","pin":"4321"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = admin(http.MethodGet, "/api/v1/admin/employees", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sita")
	assert.NotContains(t, w.Body.String(), "4321")

	w = admin(http.MethodDelete, "/api/v1/admin/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	records, err := s.store.Records(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func (s *server) admin(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.SetBasicAuth("admin", "secret")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func TestAdminSaveEmployeeValidation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"phone held by another employee", `{"phoneNumber":"9876543210","name":"Impostor","pin":"9999"}`, http.StatusConflict, "Phone number already in use"},
		{"short pin", `{"phoneNumber":"9123456780","name":"Sita","pin":"1"}`, http.StatusBadRequest, "pin"},
		{"letters in pin", `{"phoneNumber":"9123456780","name":"Sita","pin":"12ab"}`, http.StatusBadRequest, "pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.admin(http.MethodPut, "/api/v1/admin/employees/2", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}

	employees, err := s.store.Employees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, http.StatusOK, s.login(t, "9876543210", "1234").Code)
}

func TestMetrics(t *testing.T) {
	s := newServer(t)
	s.token(t)
	s.login(t, "9876543210", "0000")

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `punchclock_logins_total{result="ok"} 1`)
	assert.Contains(t, w.Body.String(), `punchclock_logins_total{result="invalid_pin"} 1`)
	assert.Contains(t, w.Body.String(), `punchclock_http_requests_total{method="POST",route="/api/v1/auth/login",status="200"} 1`)
}
