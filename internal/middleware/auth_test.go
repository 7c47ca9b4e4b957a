package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retail-service/pkg/config"
	"retail-service/pkg/jwtutil"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTest(t *testing.T) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT: config.JWTConfig{
			SigningKey:             "test-signing-key",
			AccessTokenExpiration:  30 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
		},
		Log:     config.LogConfig{Level: "error"},
		Metrics: config.MetricsConfig{Prefix: "retail_test"},
	}
	logger.InitLogger(cfg)
	jwtutil.Initialize(&cfg.JWT)
	prometheus.InitMetrics(cfg)
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	handler := AuthMiddleware(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	setupAuthTest(t)

	rec, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	setupAuthTest(t)

	rec, _ := runAuth(t, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	setupAuthTest(t)

	refresh, err := jwtutil.GenerateRefreshToken("user1", 7)
	require.NoError(t, err)

	rec, _ := runAuth(t, "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	setupAuthTest(t)

	access, err := jwtutil.GenerateAccessToken("user1", 7)
	require.NoError(t, err)

	rec, c := runAuth(t, "Bearer "+access)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), c.Get("user_id"))
	assert.Equal(t, "user1", c.Get("username"))
}
