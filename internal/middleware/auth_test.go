package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(jwtService *jwt.Service, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.Use(extra...)
	router.GET("/protected", func(c *gin.Context) {
		actor, ok := access.FromGin(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": actor.UserID.String(),
			"role":    actor.Role,
		})
	})
	return router
}

func serve(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	trainerID := uuid.New()
	token, err := jwtService.GenerateToken(trainerID.String(), string(access.RoleTrainer))
	require.NoError(t, err)

	w := serve(protectedRouter(jwtService), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), trainerID.String())
	assert.Contains(t, w.Body.String(), "trainer")
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	w := serve(protectedRouter(jwt.New("wrong-secret", time.Hour)), "Bearer invalid-jwt-here")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_ForeignSecret(t *testing.T) {
	token, err := jwt.New("other", time.Hour).GenerateToken(uuid.NewString(), string(access.RoleMainAdmin))
	require.NoError(t, err)

	w := serve(protectedRouter(jwt.New("mine", time.Hour)), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_UnknownRoleOrSubject(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)

	badRole, err := jwtService.GenerateToken(uuid.NewString(), "client")
	require.NoError(t, err)
	badSubject, err := jwtService.GenerateToken("42", string(access.RoleTrainer))
	require.NoError(t, err)

	for _, token := range []string{badRole, badSubject} {
		w := serve(protectedRouter(jwtService), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	}
}

func TestJWTAuth_NoToken(t *testing.T) {
	w := serve(protectedRouter(jwt.New("secret", time.Hour)), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")
}

func TestJWTAuth_InvalidFormat(t *testing.T) {
	w := serve(protectedRouter(jwt.New("secret", time.Hour)), "Token abc")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)
	router := protectedRouter(jwtService, AdminOnly())

	trainer, err := jwtService.GenerateToken(uuid.NewString(), string(access.RoleTrainer))
	require.NoError(t, err)
	admin, err := jwtService.GenerateToken(uuid.NewString(), string(access.RoleBranchAdmin))
	require.NoError(t, err)

	w := serve(router, "Bearer "+trainer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")

	w = serve(router, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, requestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestErrorLoggerRecoversPanic(t *testing.T) {
	router := gin.New()
	router.Use(ErrorLogger())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
