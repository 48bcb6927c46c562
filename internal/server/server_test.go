package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database/dbtest"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/bizday"
)

type testSuite struct {
	t      *testing.T
	server *Server
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorDetail    `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *testSuite {
	gin.SetMode(gin.TestMode)
	cfg := &config.RuntimeConfig{
		AppEnv:         "test",
		JWTSecret:      "test_secret_key_32_characters_min",
		JWTAccessTTL:   time.Hour,
		MetricsEnabled: true,
	}
	srv := New(cfg, config.DefaultPolicy(), dbtest.Open(t))
	t.Cleanup(srv.Close)
	return &testSuite{t: t, server: srv}
}

func (s *testSuite) token(userID uuid.UUID, role access.Role) string {
	tok, err := s.server.JWT.GenerateToken(userID.String(), string(role))
	require.NoError(s.t, err)
	return tok
}

func (s *testSuite) do(method, path, token string, body any) (int, testResponse) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.server.Router.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w.Code, resp
}

func decode[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestSuite(t)

	code, _ := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	s.server.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAPIRequiresToken(t *testing.T) {
	s := setupTestSuite(t)

	code, resp := s.do(http.MethodGet, "/api/v1/members/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)
}

func TestMemberBookingSettlementFlow(t *testing.T) {
	s := setupTestSuite(t)
	trainerID := uuid.New()
	trainer := s.token(trainerID, access.RoleTrainer)
	stranger := s.token(uuid.New(), access.RoleTrainer)

	register := map[string]any{
		"trainer_id": trainerID,
		"name":       "Kim Minji",
		"phone":      "010-1111-2222",
		"sessions":   2,
		"unit_price": 50000,
		"channel":    "FC",
	}

	code, resp := s.do(http.MethodPost, "/api/v1/members", stranger, register)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(http.MethodPost, "/api/v1/members", trainer, register)
	require.Equal(t, http.StatusCreated, code)
	member := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, resp)

	tomorrow := bizday.In(time.Now()).AddDate(0, 0, 1).Format(bizday.DateLayout)
	book := map[string]any{
		"member_id":  member.ID,
		"trainer_id": trainerID,
		"date":       tomorrow,
		"start_time": "09:00",
	}
	code, resp = s.do(http.MethodPost, "/api/v1/bookings", trainer, book)
	require.Equal(t, http.StatusCreated, code)
	booking := decode[struct {
		ID      uuid.UUID `json:"id"`
		EndTime string    `json:"end_time"`
		Status  string    `json:"status"`
	}](t, resp)
	assert.Equal(t, "10:00", booking.EndTime)
	assert.Equal(t, "planned", booking.Status)

	code, resp = s.do(http.MethodPost, "/api/v1/bookings", trainer, book)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)

	code, resp = s.do(http.MethodPost, "/api/v1/bookings/"+booking.ID.String()+"/complete", trainer, nil)
	require.Equal(t, http.StatusOK, code)
	completed := decode[struct {
		Status   string `json:"status"`
		WorkType string `json:"work_type"`
	}](t, resp)
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, "in_hours", completed.WorkType)

	notesPath := "/api/v1/bookings/" + booking.ID.String() + "/notes"
	code, _ = s.do(http.MethodPatch, notesPath, stranger, map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(http.MethodPatch, notesPath, trainer, map[string]any{"notes": "left knee sore"})
	require.Equal(t, http.StatusOK, code)
	noted := decode[struct {
		Notes  string `json:"notes"`
		Status string `json:"status"`
	}](t, resp)
	assert.Equal(t, "left knee sore", noted.Notes)
	assert.Equal(t, "completed", noted.Status)

	code, resp = s.do(http.MethodGet, "/api/v1/members/"+member.ID.String()+"/remaining", trainer, nil)
	require.Equal(t, http.StatusOK, code)
	balance := decode[struct {
		TotalRemaining int `json:"total_remaining"`
	}](t, resp)
	assert.Equal(t, 1, balance.TotalRemaining)

	month := bizday.MonthKey(time.Now())
	code, resp = s.do(http.MethodGet, "/api/v1/settlement/trainers/"+trainerID.String()+"/months/"+month, trainer, nil)
	require.Equal(t, http.StatusOK, code)
	breakdown := decode[struct {
		Month string `json:"month"`
		Sales string `json:"sales"`
	}](t, resp)
	assert.Equal(t, month, breakdown.Month)
	assert.Equal(t, "100000", breakdown.Sales)

	code, _ = s.do(http.MethodGet, "/api/v1/settlement/trainers/"+trainerID.String()+"/months/"+month, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSettingsNeedAdmin(t *testing.T) {
	s := setupTestSuite(t)
	trainer := s.token(uuid.New(), access.RoleTrainer)
	mainAdmin := s.token(uuid.New(), access.RoleMainAdmin)

	code, _ := s.do(http.MethodGet, "/api/v1/settlement/settings", trainer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := s.do(http.MethodGet, "/api/v1/settlement/settings", mainAdmin, nil)
	require.Equal(t, http.StatusOK, code)
	settings := decode[struct {
		PolicyVersion string `json:"policy_version"`
	}](t, resp)
	assert.Equal(t, "proportional-v2", settings.PolicyVersion)
}

func TestSweepEndpointsNeedAdmin(t *testing.T) {
	s := setupTestSuite(t)
	trainer := s.token(uuid.New(), access.RoleTrainer)
	branchAdmin := s.token(uuid.New(), access.RoleBranchAdmin)

	for _, path := range []string{"/api/v1/bookings/sweep", "/api/v1/ot/sweep"} {
		code, resp := s.do(http.MethodPost, path, trainer, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
		require.NotNil(t, resp.Error, path)
		assert.Equal(t, "FORBIDDEN", resp.Error.Code)

		code, _ = s.do(http.MethodPost, path, branchAdmin, nil)
		assert.Equal(t, http.StatusOK, code, path)
	}
}
